// EduBot - chat tutor backend server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/edubot/internal/agent"
	"github.com/ashureev/edubot/internal/api"
	"github.com/ashureev/edubot/internal/auth"
	"github.com/ashureev/edubot/internal/chat"
	"github.com/ashureev/edubot/internal/config"
	"github.com/ashureev/edubot/internal/domain"
	"github.com/ashureev/edubot/internal/identity"
	"github.com/ashureev/edubot/internal/livechat"
	"github.com/ashureev/edubot/internal/middleware"
	"github.com/ashureev/edubot/internal/store"
	"github.com/ashureev/edubot/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	history, err := store.OpenKV(cfg.HistoryBackend, cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open history store", "error", err, "backend", cfg.HistoryBackend)
		os.Exit(1)
	}
	defer func() {
		if closeErr := history.Close(); closeErr != nil {
			slog.Error("Failed to close history store", "error", closeErr)
		}
	}()

	if p, ok := history.(api.Pinger); ok {
		if err := p.Ping(context.Background()); err != nil {
			slog.Error("History store health check failed", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("History store ready", "backend", cfg.HistoryBackend)

	var seed []domain.User
	if cfg.SeedTestUser {
		seed = append(seed, store.TestUser())
	}
	users := store.NewMemoryUserStore(seed...)
	if n, err := users.Count(context.Background()); err == nil {
		slog.Info("Credential store initialized", "users", n)
	}

	chatClient, err := agent.NewHTTPClient(agent.Config{
		BaseURL: cfg.ChatServiceURL,
		Timeout: cfg.ChatTimeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize chat service client", "error", err)
		os.Exit(1)
	}
	slog.Info("Chat service configured", "endpoint", chatClient.Endpoint())

	// Initialize services.
	authService := auth.NewService(users, logger)
	dispatcher := chat.NewDispatcher(chatClient, cfg.ChatUserEmail, logger)
	cm := livechat.NewConnManager(logger)

	// Initialize handlers.
	authHandler := api.NewAuthHandler(authService, logger)
	healthHandler := api.NewHealthHandler(users, history)
	wsHandler := livechat.NewHandler(history, dispatcher, cm, cfg.FrontendURL, cfg.IsDevelopment(), logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.CORSAllowedOrigins)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	authHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: chat sockets stay open across slow exchanges.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	cm.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
