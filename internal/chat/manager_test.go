package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/edubot/internal/domain"
	"github.com/ashureev/edubot/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("session-%d", n)
	}
}

func newTestManager(t *testing.T, archive *Archive) *Manager {
	t.Helper()
	return NewManager(archive,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	)
}

func TestNewManager_StartsIdle(t *testing.T) {
	m := newTestManager(t, nil)

	assert.Equal(t, "session-1", m.ID())
	assert.Equal(t, StateIdle, m.State())
	assert.False(t, m.Pending())
	assert.NotNil(t, m.Messages())
	assert.Empty(t, m.Messages())
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestManager_AppendUserMessage(t *testing.T) {
	m := newTestManager(t, nil)

	assert.False(t, m.AppendUserMessage(""))
	assert.False(t, m.AppendUserMessage("   \t\n"))
	assert.Equal(t, StateIdle, m.State())

	assert.True(t, m.AppendUserMessage("Hello"))
	assert.Equal(t, StateActive, m.State())

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ChatMessage{Text: "Hello", Sender: domain.SenderUser, Timestamp: fixedNow}, msgs[0])
}

func TestManager_MessagesReturnsCopy(t *testing.T) {
	m := newTestManager(t, nil)
	m.AppendUserMessage("Hello")

	msgs := m.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "Hello", m.Messages()[0].Text)
}

func TestManager_StartNewChatDoesNotArchive(t *testing.T) {
	archive := OpenArchive(context.Background(), store.NewMemoryKV(), "", nil)
	m := newTestManager(t, archive)
	m.AppendUserMessage("Hello")
	firstID := m.ID()

	newID := m.StartNewChat()

	assert.NotEqual(t, firstID, newID)
	assert.Equal(t, newID, m.ID())
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.Messages())
	assert.Zero(t, archive.Len())
}

func TestManager_LoadChat(t *testing.T) {
	ctx := context.Background()
	archive := OpenArchive(ctx, store.NewMemoryKV(), "", nil)
	saved := domain.ChatSession{
		ID:    "archived",
		Title: "Hello...",
		Messages: []domain.ChatMessage{
			{Text: "Hello", Sender: domain.SenderUser, Timestamp: fixedNow},
			{Text: "Hi there", Sender: domain.SenderBot, Timestamp: fixedNow},
		},
		SavedAt: fixedNow,
	}
	require.NoError(t, archive.Save(ctx, saved))

	m := newTestManager(t, archive)
	m.LoadChat("archived")

	assert.Equal(t, "archived", m.ID())
	assert.Equal(t, StateActive, m.State())
	assert.Equal(t, saved.Messages, m.Messages())

	// Mutating the active session must not reach the archive.
	m.AppendUserMessage("more")
	got, ok := archive.Find("archived")
	require.True(t, ok)
	assert.Len(t, got.Messages, 2)
}

func TestManager_LoadChatUnknownID(t *testing.T) {
	archive := OpenArchive(context.Background(), store.NewMemoryKV(), "", nil)
	m := newTestManager(t, archive)
	m.AppendUserMessage("keep me")
	before := m.View()

	m.LoadChat("missing")

	assert.Equal(t, before, m.View())
}

func TestManager_Snapshot(t *testing.T) {
	m := newTestManager(t, nil)

	empty := m.Snapshot()
	assert.Equal(t, domain.DefaultTitle, empty.Title)
	assert.True(t, empty.IsEmpty())

	m.AppendUserMessage("What is the capital of France and why?")
	m.AppendBotMessage("Paris")

	snap := m.Snapshot()
	assert.Equal(t, m.ID(), snap.ID)
	assert.Equal(t, "What is the capital of France ...", snap.Title)
	assert.Len(t, snap.Messages, 2)
	assert.Equal(t, fixedNow, snap.SavedAt)
}

func TestManager_Subscribe(t *testing.T) {
	m := newTestManager(t, nil)

	var views []View
	unsubscribe := m.Subscribe(func(v View) { views = append(views, v) })

	m.AppendUserMessage("Hello")
	m.setPending(true)
	m.setPending(true)
	m.setPending(false)
	m.StartNewChat()

	require.Len(t, views, 4)
	assert.Equal(t, StateActive, views[0].State)
	assert.True(t, views[1].Pending)
	assert.False(t, views[2].Pending)
	assert.Equal(t, StateIdle, views[3].State)
	assert.Equal(t, "session-2", views[3].ID)

	unsubscribe()
	m.AppendUserMessage("ignored")
	assert.Len(t, views, 4)
}

func TestManager_ListenerMayReadState(t *testing.T) {
	m := newTestManager(t, nil)

	var pending []bool
	m.Subscribe(func(View) { pending = append(pending, m.Pending()) })

	m.setPending(true)
	m.setPending(false)

	assert.Equal(t, []bool{true, false}, pending)
}

func TestManager_ConcurrentAppends(t *testing.T) {
	m := newTestManager(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.AppendUserMessage(fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Messages(), 50)
}

func TestManager_SavedSessionReloadsAfterReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	kv, err := store.NewSQLiteKV(path)
	require.NoError(t, err)
	first := newTestManager(t, OpenArchive(ctx, kv, "", nil))
	first.AppendUserMessage("Hello")
	first.AppendBotMessage("Hi there")
	saved := first.Snapshot()
	require.NoError(t, first.Archive().Save(ctx, saved))
	require.NoError(t, kv.Close())

	reopened, err := store.NewSQLiteKV(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	archive := OpenArchive(ctx, reopened, "", nil)
	require.Len(t, archive.LoadAll(ctx), 1)

	second := newTestManager(t, archive)
	second.LoadChat(saved.ID)

	assert.Equal(t, saved.ID, second.ID())
	assert.Equal(t, StateActive, second.State())
	got := second.Messages()
	require.Len(t, got, len(saved.Messages))
	for i := range got {
		assert.Equal(t, saved.Messages[i].Text, got[i].Text)
		assert.Equal(t, saved.Messages[i].Sender, got[i].Sender)
		assert.True(t, saved.Messages[i].Timestamp.Equal(got[i].Timestamp))
	}
}
