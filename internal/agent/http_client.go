package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxResponseBodySize caps how much of a reply is read (1MB).
const maxResponseBodySize = 1 << 20

// HTTPClient talks to the conversational service over JSON/HTTP.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewHTTPClient creates a client posting to <cfg.BaseURL>/chat.
func NewHTTPClient(cfg Config, logger *slog.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("chat service URL cannot be empty")
	}

	return &HTTPClient{
		endpoint: base + "/chat",
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// Endpoint returns the URL requests are posted to.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Chat posts req and decodes the reply.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close chat response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody errorResponse
		if err := json.Unmarshal(data, &errBody); err != nil {
			c.logger.Debug("chat service error body is not JSON", "status", resp.StatusCode)
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var out ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &out, nil
}
