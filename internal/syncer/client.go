package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/postsync/internal/post"
)

// DefaultEndpoint is a public mock of the remote protocol.
const DefaultEndpoint = "https://jsonplaceholder.typicode.com/posts"

// TokenHeader carries the per-sync token.
const TokenHeader = "X-Sync-Token"

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 8 << 20

// Client talks to the remote endpoint.
type Client struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	tokens   TokenGenerator
	timeout  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the transport timeout for each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit bounds outgoing requests to r per second with the given burst.
// rate.Inf disables limiting.
func WithRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithTokenGenerator replaces the sync token source.
func WithTokenGenerator(g TokenGenerator) ClientOption {
	return func(c *Client) {
		c.tokens = g
	}
}

// NewClient creates a client for endpoint. An empty endpoint means
// DefaultEndpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Inf, 1),
		tokens:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// Endpoint returns the URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Push sends the full local collection and returns the remote's answer.
//
// Any 2xx response is decoded as the authoritative collection. A non-2xx
// response becomes a *post.SyncError carrying the status and body; transport
// and decode failures become a *post.SyncError wrapping the cause.
func (c *Client) Push(ctx context.Context, posts []post.Post) ([]post.Post, error) {
	if posts == nil {
		posts = []post.Post{}
	}

	body, err := json.Marshal(posts)
	if err != nil {
		return nil, &post.SyncError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	token := c.tokens.Generate()
	slog.Debug("sync push", "sync_token", token, "count", len(posts), "endpoint", c.endpoint)

	return c.do(ctx, http.MethodPost, token, body)
}

// Pull fetches the remote collection without sending anything.
func (c *Client) Pull(ctx context.Context) ([]post.Post, error) {
	token := c.tokens.Generate()
	slog.Debug("sync pull", "sync_token", token, "endpoint", c.endpoint)

	return c.do(ctx, http.MethodGet, token, nil)
}

func (c *Client) do(ctx context.Context, method, token string, body []byte) ([]post.Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &post.SyncError{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, reader)
	if err != nil {
		return nil, &post.SyncError{Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &post.SyncError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &post.SyncError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &post.SyncError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var remote []post.Post
	if err := json.Unmarshal(respBody, &remote); err != nil {
		return nil, &post.SyncError{Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	if remote == nil {
		remote = []post.Post{}
	}

	slog.Debug("sync response", "sync_token", token, "status", resp.StatusCode, "count", len(remote))
	return remote, nil
}
