// Package directory discovers and caches the set of searchable shards.
package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/domain"
	"github.com/campusrag/campusrag/internal/domain/shard"
	"github.com/campusrag/campusrag/internal/metrics"
)

// Config holds discovery and caching settings.
type Config struct {
	TTL      time.Duration
	PageSize int

	// FilterEnabled restricts the shard set to names containing one of
	// FilterKeywords. The permissive deployments search every shard.
	FilterEnabled  bool
	FilterKeywords []string

	// Fallback naming template used when discovery fails outright:
	// "<FallbackPrefix><i>" for i in 1..FallbackCount.
	FallbackPrefix string
	FallbackCount  int
}

// Service produces the authoritative, bounded list of shards to search,
// minimizing calls to the underlying store. The cache is the only persistent
// shared mutable state in the retrieval core; the mutex serializes refreshes
// so concurrent cache misses trigger a single listing pass.
type Service struct {
	lister Lister
	cfg    Config
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	shards      []shard.Descriptor
	lastRefresh time.Time
	degraded    bool
}

// New creates a directory service.
func New(lister Lister, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	return &Service{
		lister: lister,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source, for deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Shards returns the cached shard list, refreshing when the TTL has elapsed
// or forceRefresh is set. The result is non-empty unless discovery fails and
// fallback generation is disabled, in which case domain.ErrNoShards is
// returned. Callers must not mutate the returned slice.
func (s *Service) Shards(ctx context.Context, forceRefresh bool) ([]shard.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !forceRefresh && len(s.shards) > 0 && s.now().Sub(s.lastRefresh) < s.cfg.TTL {
		return s.shards, nil
	}

	shards, degraded := s.refresh(ctx)
	if len(shards) == 0 {
		// No discovery result and no fallback: nothing left to search.
		return nil, domain.ErrNoShards
	}

	s.shards = shards
	s.lastRefresh = s.now()
	s.degraded = degraded
	metrics.DirectoryShards.Set(float64(len(shards)))

	return s.shards, nil
}

// refresh runs paginated discovery. Any page error ends pagination early and
// whatever was accumulated is used (partial success, no retry). When nothing
// at all was discovered, deterministic fallback names are synthesized so the
// system stays searchable; stale shard names are harmless, they just return
// zero hits.
func (s *Service) refresh(ctx context.Context) (shards []shard.Descriptor, degraded bool) {
	var all []shard.Descriptor
	offset := 0
	partial := false

	for {
		page, err := s.lister.ListCollections(ctx, s.cfg.PageSize, offset)
		if err != nil {
			s.logger.Warn("Shard listing page failed, using accumulated pages",
				zap.Int("offset", offset),
				zap.Int("accumulated", len(all)),
				zap.Error(err),
			)
			partial = true
			break
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < s.cfg.PageSize {
			break
		}
		offset += s.cfg.PageSize
	}

	filtered := s.filter(all)

	if len(filtered) == 0 {
		s.logger.Warn("Shard discovery yielded nothing, synthesizing fallback shard names",
			zap.String("prefix", s.cfg.FallbackPrefix),
			zap.Int("count", s.cfg.FallbackCount),
		)
		metrics.DirectoryRefreshTotal.WithLabelValues("fallback").Inc()
		return shard.Synthesize(s.cfg.FallbackPrefix, s.cfg.FallbackCount), true
	}

	if partial {
		metrics.DirectoryRefreshTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.DirectoryRefreshTotal.WithLabelValues("ok").Inc()
	}

	s.logger.Info("Shard directory refreshed",
		zap.Int("discovered", len(all)),
		zap.Int("searchable", len(filtered)),
		zap.Bool("partial", partial),
	)

	return filtered, false
}

func (s *Service) filter(all []shard.Descriptor) []shard.Descriptor {
	if !s.cfg.FilterEnabled || len(s.cfg.FilterKeywords) == 0 {
		return all
	}

	filtered := make([]shard.Descriptor, 0, len(all))
	for _, d := range all {
		name := strings.ToLower(d.Name())
		for _, kw := range s.cfg.FilterKeywords {
			if strings.Contains(name, kw) {
				filtered = append(filtered, d)
				break
			}
		}
	}
	return filtered
}

// Stats is a snapshot of the directory cache for diagnostics.
type Stats struct {
	CachedShards int           `json:"cached_shards"`
	LastRefresh  time.Time     `json:"last_refresh"`
	Age          time.Duration `json:"age"`
	TTL          time.Duration `json:"ttl"`
	Degraded     bool          `json:"degraded"`
}

// Stats returns the current cache state.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var age time.Duration
	if !s.lastRefresh.IsZero() {
		age = s.now().Sub(s.lastRefresh)
	}
	return Stats{
		CachedShards: len(s.shards),
		LastRefresh:  s.lastRefresh,
		Age:          age,
		TTL:          s.cfg.TTL,
		Degraded:     s.degraded,
	}
}
