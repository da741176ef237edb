package agent

import "context"

// Client defines a single request/response exchange with the conversational service.
// This interface is implemented by the HTTP client.
type Client interface {
	// Chat sends one user message and returns the service's reply.
	// A non-success reply is reported as *RemoteError.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

// Chat calls f.
func (f ClientFunc) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return f(ctx, req)
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
