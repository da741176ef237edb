package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/edubot/internal/domain"
)

func TestMemoryUserStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	exists, err := s.Exists(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Insert(ctx, &domain.User{Email: "a@b.com", Username: "alice", Password: "pw1"}))

	exists, err = s.Exists(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, exists)

	user, err := s.Find(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "pw1", user.Password)
}

func TestMemoryUserStore_FindAbsent(t *testing.T) {
	user, err := NewMemoryUserStore().Find(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestMemoryUserStore_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore(domain.User{Email: "a@b.com", Username: "alice", Password: "pw1"})

	err := s.Insert(ctx, &domain.User{Email: "a@b.com", Username: "mallory", Password: "x"})
	require.ErrorIs(t, err, ErrDuplicateUser)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	user, err := s.Find(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestMemoryUserStore_FindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore(TestUser())

	user, err := s.Find(ctx, "test@example.com")
	require.NoError(t, err)
	user.Username = "changed"

	again, err := s.Find(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "testuser", again.Username)
}

func TestMemoryUserStore_SeedSkipsDuplicates(t *testing.T) {
	s := NewMemoryUserStore(TestUser(), TestUser())
	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryUserStore_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Insert(ctx, &domain.User{Email: "race@example.com", Username: "r", Password: "p"}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
