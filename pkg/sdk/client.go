package campusrag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 90 * time.Second

// Client is the campusrag SDK entry point.
type Client struct {
	http *resty.Client
}

// New creates a client for the campusrag API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.timeout).
		SetRetryCount(cfg.retries).
		SetHeader("Content-Type", "application/json")
	if cfg.apiKey != "" {
		rc.SetAuthToken(cfg.apiKey)
	}

	return &Client{http: rc}, nil
}

// AskOptions tunes a single chat request. The zero value uses server defaults.
type AskOptions struct {
	// NResults is the number of passages retrieved as context.
	NResults int
	// UniversityID restricts retrieval to one tenant's documents.
	UniversityID string
}

// Ask sends a question to the chat endpoint and returns the answer with its
// cited sources. An empty retrieval result is a valid low-confidence answer,
// not an error.
func (c *Client) Ask(ctx context.Context, question string, opts AskOptions) (Answer, error) {
	body := chatRequest{
		Question:     question,
		NResults:     opts.NResults,
		UniversityID: opts.UniversityID,
	}

	var answer Answer
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&answer).
		SetError(&apiErr).
		Post("/chat")
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	if resp.IsError() {
		return Answer{}, apiErr.toError(resp.StatusCode())
	}

	return answer, nil
}

// Health fetches the server's aggregated component health.
// A degraded report is returned as data, not as an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/healthz")
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	// 503 still carries a valid report body.
	if resp.IsError() && resp.StatusCode() != http.StatusServiceUnavailable {
		return HealthStatus{}, fmt.Errorf("health: unexpected status %d", resp.StatusCode())
	}

	return status, nil
}

// Stats fetches retrieval diagnostics, including the shard directory state.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&stats).
		SetError(&apiErr).
		Get("/stats")
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if resp.IsError() {
		return Stats{}, apiErr.toError(resp.StatusCode())
	}

	return stats, nil
}
