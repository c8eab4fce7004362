// Package chat orchestrates the RAG pipeline: embed the question, retrieve
// context via scatter-gather search, build a prompt, call the LLM.
package chat

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/domain"
	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/search/request"
)

// Confidence labels attached to every answer.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

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

// Answer is the full chat result.
type Answer struct {
	Answer            string   `json:"answer"`
	Sources           []Source `json:"sources"`
	Confidence        string   `json:"confidence"`
	DocumentsSearched int      `json:"documents_searched"`
	Timing            Timing   `json:"timing"`
}

// Service is the chat orchestrator.
type Service struct {
	embedder    domain.Embedder
	searcher    Searcher
	generator   Generator
	institution string
	logger      *zap.Logger
}

// New creates a chat service. institution names the tenant in prompts and
// canned answers (e.g. "Northeastern University").
func New(embedder domain.Embedder, searcher Searcher, generator Generator, institution string, logger *zap.Logger) *Service {
	return &Service{
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		institution: institution,
		logger:      logger,
	}
}

// Ask answers a question. Embedding failure aborts the request; retrieval or
// generation failure degrades to a low-confidence apologetic answer,
// never an error.
func (s *Service) Ask(ctx context.Context, question string, topK int, universityID string) (Answer, error) {
	if question == "" {
		return Answer{}, domain.ErrEmptyQuestion
	}

	start := time.Now()

	embResult, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}

	req, err := request.New(question, embResult.Embedding, topK, universityID)
	if err != nil {
		return Answer{}, fmt.Errorf("build search request: %w", err)
	}

	searchStart := time.Now()
	docs, err := s.searcher.Search(ctx, &req)
	if err != nil {
		// Retrieval failure is treated like an empty result set.
		s.logger.Error("Retrieval failed", zap.Error(err))
		docs = nil
	}
	searchElapsed := time.Since(searchStart)

	if len(docs) == 0 {
		return Answer{
			Answer: fmt.Sprintf(
				"I don't have enough information to answer this question about %s.",
				s.institution,
			),
			Sources:    []Source{},
			Confidence: ConfidenceLow,
			Timing:     timing(searchElapsed, 0, time.Since(start)),
		}, nil
	}

	genStart := time.Now()
	answer, err := s.generator.Generate(ctx, buildPrompt(s.institution, question, docs))
	genElapsed := time.Since(genStart)
	if err != nil {
		s.logger.Error("Answer generation failed", zap.Error(err))
		return Answer{
			Answer: fmt.Sprintf(
				"I'm having trouble generating an answer right now. Please try asking about %s again shortly.",
				s.institution,
			),
			Sources:           sources(docs),
			Confidence:        ConfidenceLow,
			DocumentsSearched: len(docs),
			Timing:            timing(searchElapsed, genElapsed, time.Since(start)),
		}, nil
	}

	result := Answer{
		Answer:            answer,
		Sources:           sources(docs),
		Confidence:        confidence(docs, answer),
		DocumentsSearched: len(docs),
		Timing:            timing(searchElapsed, genElapsed, time.Since(start)),
	}

	s.logger.Info("Chat answered",
		zap.String("confidence", result.Confidence),
		zap.Int("documents", len(docs)),
		zap.Float64("total_sec", result.Timing.Total),
	)

	return result, nil
}

// History returns prior conversation turns. Persistent history is
// deliberately unimplemented; every question stands alone.
func (s *Service) History(_ context.Context, _ string) []Answer {
	return []Answer{}
}

func sources(docs []hit.Hit) []Source {
	n := len(docs)
	if n > maxContextDocs {
		n = maxContextDocs
	}
	out := make([]Source, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Source{
			Title:          docTitle(docs[i], i+1),
			URL:            docURL(docs[i]),
			Similarity:     round3(docs[i].Similarity()),
			Rank:           i + 1,
			ContentPreview: preview(docs[i].Content()),
		})
	}
	return out
}

// confidence blends average similarity with document count, answer length,
// and source diversity into a high/medium/low label.
func confidence(docs []hit.Hit, answer string) string {
	n := len(docs)
	if n > maxContextDocs {
		n = maxContextDocs
	}

	var simSum float64
	urls := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		simSum += docs[i].Similarity()
		urls[docURL(docs[i])] = struct{}{}
	}
	avgSimilarity := simSum / float64(n)

	docCountScore := math.Min(float64(len(docs))/10.0, 1.0)
	answerLengthScore := math.Min(float64(len(answer))/500.0, 1.0)
	diversityScore := math.Min(float64(len(urls))/5.0, 1.0)

	overall := avgSimilarity*0.4 + docCountScore*0.2 + answerLengthScore*0.2 + diversityScore*0.2

	switch {
	case overall > 0.7:
		return ConfidenceHigh
	case overall > 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func timing(search, generation, total time.Duration) Timing {
	return Timing{
		Search:     round2(search.Seconds()),
		Generation: round2(generation.Seconds()),
		Total:      round2(total.Seconds()),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
