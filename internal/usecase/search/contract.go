package search

import (
	"context"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/shard"
)

// ShardQuerier runs a nearest-neighbor query against one shard.
type ShardQuerier interface {
	Query(
		ctx context.Context, collection string,
		embedding []float32, nResults int, where map[string]string,
	) ([]hit.Hit, error)
}

// Directory yields the shard list to search.
type Directory interface {
	Shards(ctx context.Context, forceRefresh bool) ([]shard.Descriptor, error)
}
