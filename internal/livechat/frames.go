package livechat

import (
	"github.com/ashureev/edubot/internal/chat"
	"github.com/ashureev/edubot/internal/domain"
)

// Client frame types.
const (
	frameSend     = "send"
	frameNewChat  = "new_chat"
	frameLoadChat = "load_chat"
	frameHistory  = "history"
	framePing     = "ping"
)

// Server frame types.
const (
	frameState = "state"
	framePong  = "pong"
	frameError = "error"
)

// clientFrame is a message read from the browser.
type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	ID      string `json:"id,omitempty"`
}

type sessionPayload struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Messages []domain.ChatMessage `json:"messages"`
}

// stateFrame mirrors a chat.View.
type stateFrame struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
	State   string         `json:"state"`
	Pending bool           `json:"pending"`
}

type historyFrame struct {
	Type    string               `json:"type"`
	Entries []domain.ChatSession `json:"entries"`
}

type textFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

func newStateFrame(v chat.View) stateFrame {
	return stateFrame{
		Type: frameState,
		Session: sessionPayload{
			ID:       v.ID,
			Title:    domain.DeriveTitle(v.Messages),
			Messages: v.Messages,
		},
		State:   v.State.String(),
		Pending: v.Pending,
	}
}

func newHistoryFrame(entries []domain.ChatSession) historyFrame {
	return historyFrame{Type: frameHistory, Entries: entries}
}
