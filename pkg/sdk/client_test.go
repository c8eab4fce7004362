package campusrag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

// --- Tests ---

func TestAsk(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"answer": "Tuition is due September 1.",
			"sources": [{"title": "Tuition", "url": "https://x/t", "similarity": 0.9, "rank": 1, "content_preview": "..."}],
			"confidence": "high",
			"documents_searched": 4,
			"timing": {"search": 0.8, "generation": 2.1, "total": 3.0}
		}`))
	})

	answer, err := client.Ask(context.Background(), "When is tuition due?", AskOptions{NResults: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Answer != "Tuition is due September 1." {
		t.Errorf("unexpected answer %q", answer.Answer)
	}
	if answer.Confidence != "high" || answer.DocumentsSearched != 4 {
		t.Errorf("unexpected answer fields: %+v", answer)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Rank != 1 {
		t.Errorf("unexpected sources: %v", answer.Sources)
	}
}

func TestAsk_SendsAuthToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": "ok"}`))
	}, WithAPIKey("key-1"))

	if _, err := client.Ask(context.Background(), "question", AskOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad request", http.StatusBadRequest, `{"code": "bad_request", "message": "no question provided"}`, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, `{"code": "unauthorized", "message": "invalid api key"}`, ErrUnauthorized},
		{"upstream down", http.StatusBadGateway, `{"code": "embedding_unavailable", "message": "embedding provider unavailable"}`, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Ask(context.Background(), "question", AskOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHealth_DegradedIsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": "degraded", "checks": {"vector_store": "error"}}`))
	})

	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("expected degraded report as data, got %v", err)
	}
	if status.Status != "degraded" || status.Checks["vector_store"] != "error" {
		t.Errorf("unexpected health status: %+v", status)
	}
}

func TestStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"directory": {"cached_shards": 42, "degraded": false}}`))
	})

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Directory.CachedShards != 42 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
