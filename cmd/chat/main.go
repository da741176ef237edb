// EduBot - terminal chat client
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ashureev/edubot/internal/agent"
	"github.com/ashureev/edubot/internal/chat"
	"github.com/ashureev/edubot/internal/config"
	"github.com/ashureev/edubot/internal/store"
)

func main() {
	// Logs go to stderr at warn so they don't interleave with the conversation.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if err := newRootCmd(logger).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app holds what every command needs: configuration and the opened archive.
type app struct {
	configPath string
	logger     *slog.Logger

	cfg     *config.ClientConfig
	kv      store.KV
	archive *chat.Archive
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.LoadClient(a.configPath)
	if err != nil {
		return err
	}
	kv, err := store.OpenKV(cfg.HistoryBackend, cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	a.cfg = cfg
	a.kv = kv
	a.archive = chat.OpenArchive(ctx, kv, chat.DefaultArchiveKey, a.logger)
	return nil
}

func (a *app) close() {
	if a.kv == nil {
		return
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("Failed to close history store", "error", err)
	}
}

// run opens the archive for the duration of fn.
func (a *app) run(ctx context.Context, fn func() error) error {
	if err := a.open(ctx); err != nil {
		return err
	}
	defer a.close()
	return fn()
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.Default()
	}
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:   "edubot-chat",
		Short: "Chat with EduBot from the terminal",
		Long: `Start an interactive chat session with EduBot.

Conversations are saved to the local history after every reply.
Type /help inside the session for the list of commands.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), func() error { return runChat(cmd, a) })
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.edubot/config.toml)")

	root.AddCommand(newHistoryCmd(a), newShowCmd(a))
	return root
}

func runChat(cmd *cobra.Command, a *app) error {
	client, err := agent.NewHTTPClient(agent.Config{
		BaseURL: a.cfg.ChatServiceURL,
		Timeout: a.cfg.Timeout,
	}, a.logger)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer func() {
		if err := line.Close(); err != nil {
			a.logger.Debug("Failed to restore terminal", "error", err)
		}
	}()

	r := &repl{
		mgr:        chat.NewManager(a.archive),
		dispatcher: chat.NewDispatcher(client, a.cfg.UserEmail, a.logger),
		in:         line,
		out:        cmd.OutOrStdout(),
	}
	return r.run(cmd.Context())
}
