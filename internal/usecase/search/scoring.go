package search

import (
	"sort"
	"strings"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
)

// RankBy selects the final sort order.
type RankBy string

const (
	// RankByRelevance sorts by descending blended relevance score.
	RankByRelevance RankBy = "relevance"
	// RankByDistance sorts by ascending store-native distance.
	RankByDistance RankBy = "distance"
)

// Score clamp bounds. The positive floor keeps downstream confidence
// computation from seeing nonsensical negative values.
const (
	minRelevance = 0.1
	maxRelevance = 1.0
)

// Common terms excluded from overlap scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "at": {}, "be": {}, "by": {},
	"do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "in": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "with": {},
}

// Policy blends embedding similarity with lexical term overlap into one
// relevance score. The weights were hand-tuned in production; treat them as
// tunable defaults, not derived constants.
type Policy struct {
	SimilarityWeight float64
	ContentWeight    float64
	TitleWeight      float64

	// SimilarityFloor is the minimum similarity assigned to any hit, so a
	// large distance never produces negative confidence downstream.
	SimilarityFloor float64

	RankBy RankBy
}

// DefaultPolicy returns the production scoring blend.
func DefaultPolicy() Policy {
	return Policy{
		SimilarityWeight: 0.6,
		ContentWeight:    0.3,
		TitleWeight:      0.1,
		SimilarityFloor:  0.3,
		RankBy:           RankByRelevance,
	}
}

// Rank deduplicates, scores, sorts, and truncates the gathered hits.
// Dedup keeps the instance with the lower distance regardless of arrival
// order. The result has at most topK entries with unique ids, sorted per the
// policy's RankBy mode.
func (p Policy) Rank(hits []hit.Hit, query string, topK int) []hit.Hit {
	unique := dedupe(hits)

	terms := queryTerms(query)
	scored := make([]hit.Hit, 0, len(unique))
	for _, h := range unique {
		similarity := 1 - h.Distance()
		if similarity < p.SimilarityFloor {
			similarity = p.SimilarityFloor
		}
		scored = append(scored, h.WithScores(similarity, p.relevance(h, similarity, terms)))
	}

	switch p.RankBy {
	case RankByDistance:
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Distance() < scored[j].Distance()
		})
	default:
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].RelevanceScore() > scored[j].RelevanceScore()
		})
	}

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// dedupe keeps one hit per id, preferring the lower distance. Replication of
// the same document across shards is expected.
func dedupe(hits []hit.Hit) []hit.Hit {
	seen := make(map[string]int, len(hits))
	unique := make([]hit.Hit, 0, len(hits))
	for _, h := range hits {
		idx, ok := seen[h.ID()]
		if !ok {
			seen[h.ID()] = len(unique)
			unique = append(unique, h)
			continue
		}
		if h.Distance() < unique[idx].Distance() {
			unique[idx] = h
		}
	}
	return unique
}

// relevance blends similarity with term overlap against content and title,
// clamped to [0.1, 1.0].
func (p Policy) relevance(h hit.Hit, similarity float64, terms []string) float64 {
	score := similarity*p.SimilarityWeight +
		overlap(strings.ToLower(h.Content()), terms)*p.ContentWeight +
		overlap(strings.ToLower(h.Meta("title")), terms)*p.TitleWeight

	if score < minRelevance {
		return minRelevance
	}
	if score > maxRelevance {
		return maxRelevance
	}
	return score
}

// overlap is the fraction of query terms found as substrings in text.
func overlap(text string, terms []string) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}
	matches := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			matches++
		}
	}
	return float64(matches) / float64(len(terms))
}

// queryTerms lowercases and whitespace-splits the query, dropping stopwords.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
