package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/domain"
	"github.com/campusrag/campusrag/internal/domain/search/hit"
	"github.com/campusrag/campusrag/internal/domain/search/request"
	"github.com/campusrag/campusrag/internal/domain/shard"
	chatuc "github.com/campusrag/campusrag/internal/usecase/chat"
	directoryuc "github.com/campusrag/campusrag/internal/usecase/directory"
	healthuc "github.com/campusrag/campusrag/internal/usecase/health"
)

// --- Mocks ---

type mockEmbedder struct{ err error }

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockSearcher struct{ hits []hit.Hit }

func (m *mockSearcher) Search(_ context.Context, _ *request.Request) ([]hit.Hit, error) {
	return m.hits, nil
}

type mockGenerator struct{ answer string }

func (m *mockGenerator) Generate(_ context.Context, _ string) (string, error) {
	return m.answer, nil
}

type mockLister struct{ shards []shard.Descriptor }

func (m *mockLister) ListCollections(_ context.Context, _, _ int) ([]shard.Descriptor, error) {
	return m.shards, nil
}

type mockHeartbeat struct{ err error }

func (m *mockHeartbeat) Heartbeat(_ context.Context) error { return m.err }

func newTestRouter(t *testing.T, embedder domain.Embedder, storeErr error) http.Handler {
	t.Helper()

	searcher := &mockSearcher{hits: []hit.Hit{
		hit.New("doc1", "Tuition is due September 1.",
			map[string]string{"title": "Tuition", "url": "https://x/t"}, 0.1, "batch_1").
			WithScores(0.9, 0.8),
	}}
	chatSvc := chatuc.New(embedder, searcher, &mockGenerator{answer: "Tuition is due September 1."},
		"Northeastern University", zap.NewNop())

	dirSvc := directoryuc.New(
		&mockLister{shards: []shard.Descriptor{shard.New("batch_1", nil)}},
		directoryuc.Config{TTL: 5 * time.Minute, PageSize: 1000},
		zap.NewNop(),
	)

	healthSvc := healthuc.New(&mockHeartbeat{err: storeErr}, nil, nil)

	srv := NewServer(chatSvc, dirSvc, healthSvc, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

// --- Tests ---

func TestHandleRoot(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["service"] != "campusrag" {
		t.Errorf("unexpected service name %q", body["service"])
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := newTestRouter(t, &mockEmbedder{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		router := newTestRouter(t, &mockEmbedder{}, context.DeadlineExceeded)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestHandleChat(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	body := strings.NewReader(`{"question": "When is tuition due?", "n_results": 5}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer chatuc.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Answer != "Tuition is due September 1." {
		t.Errorf("unexpected answer %q", answer.Answer)
	}
	if len(answer.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(answer.Sources))
	}
}

func TestHandleChat_EmptyQuestion(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question": ""}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleChat_InvalidBody(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{not json`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleChat_EmbeddingFailure(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{err: domain.ErrEmbeddingProviderError}, nil)

	body := strings.NewReader(`{"question": "When is tuition due?"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != "embedding_unavailable" {
		t.Errorf("unexpected error code %q", errResp.Code)
	}
}

func TestHandleRunSync_EnvelopeShape(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	body := strings.NewReader(`{"input": {"question": "When is tuition due?"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runsync", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer chatuc.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Answer == "" {
		t.Error("expected non-empty answer from envelope request")
	}
}

func TestHandleStats(t *testing.T) {
	router := newTestRouter(t, &mockEmbedder{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["directory"]; !ok {
		t.Error("expected directory stats in response")
	}
}
