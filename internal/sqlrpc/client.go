package sqlrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of a failed response is read for logging.
const maxErrorBody = 4 << 10

// HTTPDoer is the subset of *http.Client the Client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller sends one envelope and returns the decoded response.
type Caller interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// Compile-time interface check
var _ Caller = (*Client)(nil)

// Client posts envelopes to the remote service. It performs exactly one
// round trip per call and never retries.
type Client struct {
	url   string
	creds Credentials
	http  HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(d HTTPDoer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithTimeout sets a client-side timeout. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// NewClient creates a Client for the endpoint at url.
func NewClient(url string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		url:   url,
		creds: creds,
		http:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends req and decodes the response. The token is resolved first;
// without one no request is made.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	callID := CallIDFromContext(ctx)
	tool := req.Tool()

	token, err := c.creds.Token(ctx)
	if err != nil {
		slog.Error("remote call skipped", "tool", tool, "call_id", callID, "error", err)
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	httpReq.Header.Set("X-Request-ID", callID)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		slog.Error("remote call failed", "tool", tool, "call_id", callID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	logAttrs := []any{
		"tool", tool,
		"call_id", callID,
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		slog.Warn("remote call rejected", append(logAttrs, "body", string(snippet))...)
		return nil, &StatusError{Status: httpResp.StatusCode}
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		slog.Error("remote body read failed", append(logAttrs, "error", err)...)
		return nil, &DecodeError{Stage: "read", Err: err}
	}

	resp, err := Decode(httpResp.Header.Get("Content-Type"), raw)
	if err != nil {
		slog.Warn("remote response not usable", append(logAttrs, "error", err)...)
		return resp, err
	}

	slog.Info("remote call", append(logAttrs, "streamed", resp.Streamed)...)
	return resp, nil
}
