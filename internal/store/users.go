package store

import (
	"context"
	"sync"

	"github.com/ashureev/edubot/internal/domain"
)

// MemoryUserStore implements UserStore in process memory. Records do not
// survive a restart.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users []domain.User
}

// NewMemoryUserStore returns a store preloaded with the supplied users.
// Seed entries with an email already present are skipped.
func NewMemoryUserStore(seed ...domain.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make([]domain.User, 0, len(seed))}
	for _, u := range seed {
		if s.indexOf(u.Email) >= 0 {
			continue
		}
		s.users = append(s.users, u)
	}
	return s
}

// TestUser is the default account seeded at startup.
func TestUser() domain.User {
	return domain.User{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "password123",
	}
}

// Exists reports whether a user with the given email is present.
func (s *MemoryUserStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(email) >= 0, nil
}

// Find retrieves a copy of the user with the given email.
func (s *MemoryUserStore) Find(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(email)
	if i < 0 {
		return nil, nil
	}
	user := s.users[i]
	return &user, nil
}

// Insert appends a new user. The existence check and the append happen
// under one lock so concurrent registrations cannot both succeed.
func (s *MemoryUserStore) Insert(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(user.Email) >= 0 {
		return ErrDuplicateUser
	}
	s.users = append(s.users, *user)
	return nil
}

// Count returns the number of stored users.
func (s *MemoryUserStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// indexOf must be called with mu held.
func (s *MemoryUserStore) indexOf(email string) int {
	for i := range s.users {
		if s.users[i].Email == email {
			return i
		}
	}
	return -1
}

var _ UserStore = (*MemoryUserStore)(nil)
