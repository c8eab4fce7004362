// Package search implements the scatter-gather retrieval core: one bounded
// concurrent nearest-neighbor query per shard, merged into a ranked top-K.
package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campusrag/campusrag/internal/domain"
	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/search/request"
	"github.com/campusrag/campusrag/internal/domain/shard"
	"github.com/campusrag/campusrag/internal/metrics"
)

// Config holds scatter-gather tuning.
type Config struct {
	// MaxShards caps how many shards one search touches. This bounds
	// worst-case latency at the cost of recall.
	MaxShards int
	// Workers bounds concurrent shard queries.
	Workers int
	// ShardTimeout cancels an individual shard query at its deadline.
	ShardTimeout time.Duration
	// Overfetch multiplies topK on each shard query to compensate for
	// loss during deduplication.
	Overfetch int
}

// Service fans a query out across the shard set and merges the results.
type Service struct {
	store  ShardQuerier
	dir    Directory
	cfg    Config
	policy Policy
	logger *zap.Logger
}

// New creates a search service.
func New(store ShardQuerier, dir Directory, cfg Config, policy Policy, logger *zap.Logger) *Service {
	if cfg.MaxShards <= 0 {
		cfg.MaxShards = 150
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.ShardTimeout <= 0 {
		cfg.ShardTimeout = 5 * time.Second
	}
	if cfg.Overfetch <= 0 {
		cfg.Overfetch = 2
	}
	return &Service{store: store, dir: dir, cfg: cfg, policy: policy, logger: logger}
}

// shardResult carries one shard's outcome through the gather step, so the
// decision to drop errored shards is explicit rather than a silent catch.
type shardResult struct {
	shard string
	hits  []hit.Hit
	err   error
}

// Search executes the scatter-gather query. Shard-level failures contribute
// zero hits and are never surfaced; a fully failed search returns an empty
// list, which callers must treat as a valid low-confidence outcome.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]hit.Hit, error) {
	start := time.Now()

	shards, err := s.dir.Shards(ctx, false)
	if err != nil {
		if errors.Is(err, domain.ErrNoShards) {
			s.logger.Warn("No shards available for search")
			return nil, nil
		}
		return nil, err
	}

	if len(shards) > s.cfg.MaxShards {
		shards = shards[:s.cfg.MaxShards]
	}

	results := s.scatter(ctx, shards, req)

	var gathered []hit.Hit
	failed := 0
	for _, res := range results {
		if res.err != nil {
			// Shard errors are absorbed here: read-only idempotent
			// queries, a missing or slow shard just contributes nothing.
			failed++
			continue
		}
		gathered = append(gathered, res.hits...)
	}

	ranked := s.policy.Rank(gathered, req.Query(), req.TopK())

	metrics.SearchDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	metrics.SearchHitsReturned.Observe(float64(len(ranked)))

	s.logger.Info("Scatter-gather search completed",
		zap.Int("shards_queried", len(shards)),
		zap.Int("shards_failed", failed),
		zap.Int("hits_gathered", len(gathered)),
		zap.Int("hits_returned", len(ranked)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return ranked, nil
}

// scatter submits one query per shard to a bounded worker pool. Each query
// runs under its own deadline, so a hung shard is cancelled at the source
// instead of leaking work; the overall call finishes once every submitted
// task has completed or timed out.
func (s *Service) scatter(ctx context.Context, shards []shard.Descriptor, req *request.Request) []shardResult {
	results := make([]shardResult, len(shards))

	var where map[string]string
	if req.UniversityID() != "" {
		where = map[string]string{"university_id": req.UniversityID()}
	}
	nResults := req.TopK() * s.cfg.Overfetch

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, d := range shards {
		i, d := i, d
		g.Go(func() error {
			results[i] = s.querySingle(ctx, d.Name(), req.Embedding(), nResults, where)
			return nil
		})
	}

	// Tasks never return errors; Wait is purely a join.
	_ = g.Wait()

	return results
}

func (s *Service) querySingle(
	ctx context.Context, name string,
	embedding []float32, nResults int, where map[string]string,
) shardResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShardTimeout)
	defer cancel()

	hits, err := s.store.Query(ctx, name, embedding, nResults, where)
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.ShardQueriesTotal.WithLabelValues(status).Inc()
		s.logger.Debug("Shard query failed",
			zap.String("shard", name),
			zap.Error(err),
		)
		return shardResult{shard: name, err: err}
	}

	metrics.ShardQueriesTotal.WithLabelValues("ok").Inc()
	return shardResult{shard: name, hits: hits}
}
