package search

import (
	"math"
	"testing"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- Tests ---

func TestRank_DedupeKeepsLowerDistance(t *testing.T) {
	hits := []hit.Hit{
		hit.New("doc1", "tuition payment", nil, 0.4, "batch_1"),
		hit.New("doc1", "tuition payment", nil, 0.2, "batch_2"),
		hit.New("doc2", "housing", nil, 0.3, "batch_1"),
	}

	ranked := DefaultPolicy().Rank(hits, "tuition", 10)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 unique hits, got %d", len(ranked))
	}
	for _, h := range ranked {
		if h.ID() == "doc1" && !approxEqual(h.Distance(), 0.2) {
			t.Errorf("expected doc1 to keep distance 0.2, got %v", h.Distance())
		}
	}
}

func TestRank_DedupeOrderIndependent(t *testing.T) {
	forward := []hit.Hit{
		hit.New("doc1", "x", nil, 0.2, "batch_1"),
		hit.New("doc1", "x", nil, 0.4, "batch_2"),
	}
	reversed := []hit.Hit{
		hit.New("doc1", "x", nil, 0.4, "batch_2"),
		hit.New("doc1", "x", nil, 0.2, "batch_1"),
	}

	p := DefaultPolicy()
	a := p.Rank(forward, "x", 10)
	b := p.Rank(reversed, "x", 10)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected single hit from both orders, got %d and %d", len(a), len(b))
	}
	if a[0].Distance() != b[0].Distance() || a[0].SourceShard() != b[0].SourceShard() {
		t.Errorf("dedup differs by arrival order: %v vs %v", a[0], b[0])
	}
}

func TestRank_SortsByRelevanceDescending(t *testing.T) {
	hits := []hit.Hit{
		hit.New("far", "unrelated text", nil, 0.9, "batch_1"),
		hit.New("near", "tuition deadlines for fall", nil, 0.1, "batch_1"),
		hit.New("mid", "tuition note", nil, 0.5, "batch_1"),
	}

	ranked := DefaultPolicy().Rank(hits, "tuition deadlines", 10)

	if ranked[0].ID() != "near" {
		t.Errorf("expected closest relevant hit first, got %q", ranked[0].ID())
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].RelevanceScore() > ranked[i-1].RelevanceScore() {
			t.Errorf("relevance order violated at %d: %v > %v",
				i, ranked[i].RelevanceScore(), ranked[i-1].RelevanceScore())
		}
	}
}

func TestRank_SortsByDistanceAscending(t *testing.T) {
	hits := []hit.Hit{
		hit.New("b", "x", nil, 0.5, "batch_1"),
		hit.New("a", "x", nil, 0.1, "batch_1"),
		hit.New("c", "x", nil, 0.9, "batch_1"),
	}

	p := DefaultPolicy()
	p.RankBy = RankByDistance
	ranked := p.Rank(hits, "x", 10)

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Distance() < ranked[i-1].Distance() {
			t.Errorf("distance order violated at %d", i)
		}
	}
}

func TestRank_DistanceModeWithCrossShardDuplicate(t *testing.T) {
	hits := []hit.Hit{
		hit.New("a", "co-op program requirements", nil, 0.1, "batch_1"),
		hit.New("b", "co-op eligibility", nil, 0.3, "batch_1"),
		hit.New("c", "co-op timeline", nil, 0.15, "batch_2"),
		hit.New("b", "co-op eligibility", nil, 0.2, "batch_2"),
		hit.New("d", "co-op employers", nil, 0.1, "batch_3"),
		hit.New("e", "co-op salaries", nil, 0.5, "batch_3"),
	}

	p := DefaultPolicy()
	p.RankBy = RankByDistance
	ranked := p.Rank(hits, "co-op program requirements", 10)

	if len(ranked) != 5 {
		t.Fatalf("expected 5 unique hits, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Distance() < ranked[i-1].Distance() {
			t.Errorf("distance order violated at %d", i)
		}
	}
	for _, h := range ranked {
		if h.ID() == "b" && !approxEqual(h.Distance(), 0.2) {
			t.Errorf("expected duplicate b resolved to distance 0.2, got %v", h.Distance())
		}
	}
}

func TestRank_TruncatesToTopK(t *testing.T) {
	hits := []hit.Hit{
		hit.New("a", "x", nil, 0.1, "batch_1"),
		hit.New("b", "x", nil, 0.2, "batch_1"),
		hit.New("c", "x", nil, 0.3, "batch_1"),
	}

	ranked := DefaultPolicy().Rank(hits, "x", 2)
	if len(ranked) != 2 {
		t.Fatalf("expected topK=2 hits, got %d", len(ranked))
	}
}

func TestRank_SimilarityFloor(t *testing.T) {
	hits := []hit.Hit{
		hit.New("a", "nothing in common", nil, 1.8, "batch_1"),
	}

	ranked := DefaultPolicy().Rank(hits, "tuition", 10)
	if !approxEqual(ranked[0].Similarity(), 0.3) {
		t.Errorf("expected similarity clamped to floor 0.3, got %v", ranked[0].Similarity())
	}
}

func TestRank_RelevanceClampedToBounds(t *testing.T) {
	hits := []hit.Hit{
		hit.New("low", "zzz", nil, 5.0, "batch_1"),
		hit.New("high", "tuition deadlines", map[string]string{"title": "tuition deadlines"}, 0.0, "batch_1"),
	}

	p := DefaultPolicy()
	p.SimilarityFloor = 0
	ranked := p.Rank(hits, "tuition deadlines", 10)

	for _, h := range ranked {
		if h.RelevanceScore() < 0.1 || h.RelevanceScore() > 1.0 {
			t.Errorf("relevance %v for %q outside [0.1, 1.0]", h.RelevanceScore(), h.ID())
		}
	}
}

func TestRank_EmptyInput(t *testing.T) {
	ranked := DefaultPolicy().Rank(nil, "anything", 10)
	if len(ranked) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(ranked))
	}
}

func TestOverlap_FractionOfTermsMatched(t *testing.T) {
	terms := []string{"tuition", "deadline"}
	if got := overlap("the tuition office", terms); !approxEqual(got, 0.5) {
		t.Errorf("expected overlap 0.5, got %v", got)
	}
	if got := overlap("tuition deadline info", terms); !approxEqual(got, 1.0) {
		t.Errorf("expected overlap 1.0, got %v", got)
	}
	if got := overlap("", terms); got != 0 {
		t.Errorf("expected zero overlap for empty text, got %v", got)
	}
}

func TestQueryTerms_DropsStopwords(t *testing.T) {
	terms := queryTerms("What is the deadline for tuition")
	want := []string{"deadline", "tuition"}
	if len(terms) != len(want) {
		t.Fatalf("expected terms %v, got %v", want, terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Fatalf("expected terms %v, got %v", want, terms)
		}
	}
}
