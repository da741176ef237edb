package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/edubot/internal/auth"
)

// Client-facing messages.
const (
	msgRegistered         = "Registration successful!"
	msgLoggedIn           = "Login successful!"
	msgMissingFields      = "All fields are required."
	msgDuplicateUser      = "User with this email already exists."
	msgInvalidCredentials = "Invalid email or password."
	msgInvalidBody        = "Invalid request body."
	msgInternal           = "Internal server error."
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	svc    *auth.Service
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	account, err := h.svc.Register(r.Context(), req.Email, req.Username, req.Password)
	switch {
	case err == nil:
		JSON(w, http.StatusCreated, Response{Success: true, Message: msgRegistered, User: account})
	case errors.Is(err, auth.ErrMissingField):
		Error(w, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, auth.ErrDuplicateUser):
		Error(w, http.StatusConflict, msgDuplicateUser)
	default:
		h.logger.Error("Registration failed", "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// Login authenticates an existing account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	account, err := h.svc.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, Response{Success: true, Message: msgLoggedIn, User: account})
	case errors.Is(err, auth.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, msgInvalidCredentials)
	default:
		h.logger.Error("Login failed", "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}
