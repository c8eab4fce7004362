package chat

import (
	"context"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/search/request"
)

// Searcher runs the scatter-gather retrieval.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]hit.Hit, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
