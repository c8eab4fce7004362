// Package request defines a validated scatter-gather search query.
package request

import "fmt"

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query text length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
)

// Request is a validated search query: the raw question text (used for
// lexical overlap scoring), its embedding, the requested result count and
// an optional tenant filter applied on every shard query.
type Request struct {
	query        string
	embedding    []float32
	topK         int
	universityID string
}

// New validates and normalizes search parameters.
// Defaults: topK=10, clamped to MaxTopK.
func New(query string, embedding []float32, topK int, universityID string) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if len(embedding) == 0 {
		return Request{}, fmt.Errorf("query embedding is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{
		query:        query,
		embedding:    embedding,
		topK:         topK,
		universityID: universityID,
	}, nil
}

// Query returns the raw question text.
func (r *Request) Query() string { return r.query }

// Embedding returns the query embedding.
func (r *Request) Embedding() []float32 { return r.embedding }

// TopK returns the number of results to return after ranking.
func (r *Request) TopK() int { return r.topK }

// UniversityID returns the tenant filter, empty when unset.
func (r *Request) UniversityID() string { return r.universityID }
