// Package agent implements the client for the remote conversational service.
package agent

import (
	"fmt"
	"time"
)

// ChatRequest is the body sent to the conversational service.
type ChatRequest struct {
	Message   string `json:"message"`
	UserEmail string `json:"user_email"`
}

// ChatResponse is a successful reply from the conversational service.
type ChatResponse struct {
	Response string `json:"response"`
}

// errorResponse is the body of a non-success reply.
type errorResponse struct {
	Error string `json:"error"`
}

// RemoteError is returned when the service answers with a non-success status.
// Message holds the server-reported error, or is empty if none was given.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat service returned status %d: %s", e.StatusCode, e.Message)
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Timeout bounds a single exchange. Zero waits for the transport indefinitely.
	Timeout time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:5000",
	}
}
