// Package hit defines a single retrieved passage.
package hit

// Hit is one passage retrieved from a shard. Distance is the vector store's
// native dissimilarity metric (lower = more similar); Similarity and
// RelevanceScore are derived during ranking.
type Hit struct {
	id             string
	content        string
	metadata       map[string]string
	distance       float64
	similarity     float64
	relevanceScore float64
	sourceShard    string
}

// New creates a hit as returned by a shard query, before scoring.
func New(id, content string, metadata map[string]string, distance float64, sourceShard string) Hit {
	return Hit{
		id:          id,
		content:     content,
		metadata:    metadata,
		distance:    distance,
		sourceShard: sourceShard,
	}
}

// ID returns the document identifier, unique within a ranked result set.
func (h Hit) ID() string { return h.id }

// Content returns the passage text.
func (h Hit) Content() string { return h.content }

// Metadata returns the opaque metadata mapping. May include title, url, source.
func (h Hit) Metadata() map[string]string { return h.metadata }

// Distance returns the store-native dissimilarity, non-negative.
func (h Hit) Distance() float64 { return h.distance }

// Similarity returns the derived similarity, set during scoring.
func (h Hit) Similarity() float64 { return h.similarity }

// RelevanceScore returns the blended ranking signal, set during scoring.
func (h Hit) RelevanceScore() float64 { return h.relevanceScore }

// SourceShard returns the shard that produced this hit.
func (h Hit) SourceShard() string { return h.sourceShard }

// Meta returns a metadata value or empty string.
func (h Hit) Meta(key string) string {
	if h.metadata == nil {
		return ""
	}
	return h.metadata[key]
}

// WithScores returns a copy carrying the derived similarity and relevance.
func (h Hit) WithScores(similarity, relevance float64) Hit {
	h.similarity = similarity
	h.relevanceScore = relevance
	return h
}
