package directory

import (
	"context"

	"github.com/campusrag/campusrag/internal/domain/shard"
)

// Lister pages through the vector store's collection listing.
type Lister interface {
	ListCollections(ctx context.Context, limit, offset int) ([]shard.Descriptor, error)
}
