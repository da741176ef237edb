// Package auth validates registration and login requests against the credential store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/edubot/internal/domain"
	"github.com/ashureev/edubot/internal/store"
)

var (
	// ErrMissingField is returned when a required registration field is empty.
	ErrMissingField = errors.New("all fields are required")
	// ErrDuplicateUser is returned when registering an email that already exists.
	ErrDuplicateUser = store.ErrDuplicateUser
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service registers and authenticates users.
type Service struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewService creates an auth service backed by users.
func NewService(users store.UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, logger: logger}
}

// Register creates a new user. Values are stored verbatim.
func (s *Service) Register(ctx context.Context, email, username, password string) (domain.Account, error) {
	if email == "" || username == "" || password == "" {
		return domain.Account{}, ErrMissingField
	}

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return domain.Account{}, ErrDuplicateUser
	}

	user := &domain.User{Email: email, Username: username, Password: password}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return domain.Account{}, ErrDuplicateUser
		}
		return domain.Account{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("New user registered", "username", username)
	return user.Account(), nil
}

// Login checks email and password against the stored record.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Account, error) {
	user, err := s.users.Find(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.PasswordMatches(password) {
		return domain.Account{}, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "username", user.Username)
	return user.Account(), nil
}
