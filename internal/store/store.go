// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/edubot/internal/domain"
)

// ErrDuplicateUser is returned by Insert when a user with the same email exists.
var ErrDuplicateUser = errors.New("user with this email already exists")

// UserStore defines the credential store consulted at registration and login.
type UserStore interface {
	// Exists reports whether a user with the given email is present.
	Exists(ctx context.Context, email string) (bool, error)

	// Find retrieves a user by email. Returns nil, nil when absent.
	Find(ctx context.Context, email string) (*domain.User, error)

	// Insert adds a new user record. Returns ErrDuplicateUser if the email is taken.
	Insert(ctx context.Context, user *domain.User) error

	// Count returns the number of stored users.
	Count(ctx context.Context) (int, error)
}

// KV is a minimal durable key-value store. The chat history archive keeps
// its whole serialized state under a single key.
type KV interface {
	// Load returns the value stored under key. ok is false when the key is absent.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Close releases the underlying resources.
	Close() error
}
