package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ashureev/edubot/internal/agent"
)

const (
	// DefaultUserEmail is the fixed identifier sent with every exchange.
	// It is not derived from the logged-in account.
	DefaultUserEmail = "user@example.com"

	errorPrefix          = "Error: "
	fallbackRemoteDetail = "Failed to get response"
)

// Dispatcher sends user messages to the conversational service and
// reconciles the outcome into a Manager.
type Dispatcher struct {
	client    agent.Client
	userEmail string
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. An empty userEmail falls back to DefaultUserEmail.
func NewDispatcher(client agent.Client, userEmail string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if userEmail == "" {
		userEmail = DefaultUserEmail
	}
	return &Dispatcher{client: client, userEmail: userEmail, logger: logger}
}

// Send appends text to m, performs one exchange, appends the reply (or the
// rendered failure) as a bot message and saves the session to m's archive.
// Empty or whitespace-only text is ignored. The pending flag is set for the
// duration of the exchange.
func (d *Dispatcher) Send(ctx context.Context, m *Manager, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if !m.AppendUserMessage(text) {
		return
	}

	d.exchange(ctx, m, text)

	archive := m.Archive()
	if archive == nil {
		return
	}
	// The save must land even when the exchange's context was cancelled.
	snap := m.Snapshot()
	if err := archive.Save(context.WithoutCancel(ctx), snap); err != nil {
		d.logger.Error("Failed to save chat history", "session_id", snap.ID, "error", err)
	}
}

func (d *Dispatcher) exchange(ctx context.Context, m *Manager, text string) {
	m.setPending(true)
	defer m.setPending(false)

	resp, err := d.client.Chat(ctx, agent.ChatRequest{
		Message:   text,
		UserEmail: d.userEmail,
	})
	if err != nil {
		d.logger.Warn("Chat exchange failed", "session_id", m.ID(), "error", err)
		m.AppendBotMessage(renderFailure(err))
		return
	}

	m.AppendBotMessage(resp.Response)
}

func renderFailure(err error) string {
	var remote *agent.RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			return errorPrefix + remote.Message
		}
		return errorPrefix + fallbackRemoteDetail
	}
	return errorPrefix + err.Error()
}
