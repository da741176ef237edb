package domain

import (
	"time"
	"unicode/utf8"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	// SenderUser marks messages typed by the person chatting.
	SenderUser Sender = "user"
	// SenderBot marks replies from the conversational service, including
	// rendered exchange failures.
	SenderBot Sender = "bot"
)

const (
	// TitleMaxRunes is the number of characters of the first message kept in a title.
	TitleMaxRunes = 30
	// TitleEllipsis is appended to every derived title.
	TitleEllipsis = "..."
	// DefaultTitle is used for sessions without a first message.
	DefaultTitle = "New Chat"
)

// ChatMessage is a single immutable entry of a conversation.
type ChatMessage struct {
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a snapshot of one conversation as stored in the history archive.
type ChatSession struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
	SavedAt  time.Time     `json:"timestamp"`
}

// Clone returns a copy that shares no message storage with s.
func (s ChatSession) Clone() ChatSession {
	s.Messages = CloneMessages(s.Messages)
	return s
}

// IsEmpty returns true if the session has no messages.
func (s ChatSession) IsEmpty() bool {
	return len(s.Messages) == 0
}

// CloneMessages copies a message slice. A nil input yields an empty, non-nil slice
// so snapshots always serialize as a JSON array.
func CloneMessages(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(messages))
	copy(out, messages)
	return out
}

// DeriveTitle builds a session title from the first message: its first 30
// characters followed by an ellipsis, or DefaultTitle when there is none.
func DeriveTitle(messages []ChatMessage) string {
	if len(messages) == 0 {
		return DefaultTitle
	}
	text := messages[0].Text
	if utf8.RuneCountInString(text) > TitleMaxRunes {
		text = string([]rune(text)[:TitleMaxRunes])
	}
	return text + TitleEllipsis
}
