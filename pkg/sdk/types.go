package campusrag

import "time"

type chatRequest struct {
	Question     string `json:"question"`
	NResults     int    `json:"n_results,omitempty"`
	UniversityID string `json:"university_id,omitempty"`
}

// Source describes one passage cited by an answer.
type Source struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Similarity     float64 `json:"similarity"`
	Rank           int     `json:"rank"`
	ContentPreview string  `json:"content_preview"`
}

// Timing is the per-stage latency breakdown, in seconds.
type Timing struct {
	Search     float64 `json:"search"`
	Generation float64 `json:"generation"`
	Total      float64 `json:"total"`
}

// Answer is a chat response. Confidence is "high", "medium" or "low".
type Answer struct {
	Answer            string   `json:"answer"`
	Sources           []Source `json:"sources"`
	Confidence        string   `json:"confidence"`
	DocumentsSearched int      `json:"documents_searched"`
	Timing            Timing   `json:"timing"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks"` // component -> "ok"/"error"
}

// DirectoryStats is the shard directory cache state.
type DirectoryStats struct {
	CachedShards int           `json:"cached_shards"`
	LastRefresh  time.Time     `json:"last_refresh"`
	Age          time.Duration `json:"age"`
	TTL          time.Duration `json:"ttl"`
	Degraded     bool          `json:"degraded"`
}

// Stats is the server diagnostics payload.
type Stats struct {
	Directory DirectoryStats `json:"directory"`
}
