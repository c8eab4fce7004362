// Package chroma is an HTTP client for a Chroma-compatible vector store.
// The store is treated as a black box: paginated collection listing plus a
// per-collection nearest-neighbor query.
package chroma

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/shard"
)

// Config holds vector store connection settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Tenant   string
	Database string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client talks to the Chroma HTTP API.
type Client struct {
	http   *resty.Client
	tenant string
	dbName string
	logger *zap.Logger
}

// New creates a Chroma client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:   rc,
		tenant: cfg.Tenant,
		dbName: cfg.Database,
		logger: logger,
	}, nil
}

// Heartbeat checks store availability.
func (c *Client) Heartbeat(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/v1/heartbeat")
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("heartbeat: unexpected status %d", resp.StatusCode())
	}
	return nil
}

// ListCollections returns one page of collection descriptors.
// Pages are addressed by offset; a page shorter than limit ends pagination.
func (c *Client) ListCollections(ctx context.Context, limit, offset int) ([]shard.Descriptor, error) {
	var page []collectionDTO

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetQueryParam("offset", fmt.Sprintf("%d", offset)).
		SetResult(&page)
	c.setTenancy(req)

	resp, err := req.Get("/api/v1/collections")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("list collections: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}

	out := make([]shard.Descriptor, 0, len(page))
	for _, col := range page {
		out = append(out, shard.New(col.Name, col.Metadata))
	}
	return out, nil
}

// Query runs a nearest-neighbor search against one collection.
// where is an optional equality filter on document metadata.
func (c *Client) Query(
	ctx context.Context, collection string,
	embedding []float32, nResults int, where map[string]string,
) ([]hit.Hit, error) {
	body := queryRequestDTO{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        nResults,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		body.Where = where
	}

	var result queryResponseDTO
	req := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result)
	c.setTenancy(req)

	resp, err := req.Post(fmt.Sprintf("/api/v1/collections/%s/query", collection))
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("query collection %s: unexpected status %d", collection, resp.StatusCode())
	}

	return result.toHits(collection), nil
}

func (c *Client) setTenancy(req *resty.Request) {
	if c.tenant != "" {
		req.SetQueryParam("tenant", c.tenant)
	}
	if c.dbName != "" {
		req.SetQueryParam("database", c.dbName)
	}
}
