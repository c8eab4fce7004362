package chroma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:  srv.URL,
		Tenant:   "default_tenant",
		Database: "default_database",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

// --- Tests ---

func TestHeartbeat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/heartbeat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	})

	if err := client.Heartbeat(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHeartbeat_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if err := client.Heartbeat(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestListCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/collections" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "1000" || q.Get("offset") != "2000" {
			t.Errorf("unexpected pagination params: %v", q)
		}
		if q.Get("tenant") != "default_tenant" || q.Get("database") != "default_database" {
			t.Errorf("missing tenancy params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "c1", "name": "documents_ultra_optimized_batch_1", "metadata": {"region": "us"}},
			{"id": "c2", "name": "documents_ultra_optimized_batch_2"}
		]`))
	})

	shards, err := client.ListCollections(context.Background(), 1000, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shards) != 2 {
		t.Fatalf("expected 2 shards, got %d", len(shards))
	}
	if shards[0].Name() != "documents_ultra_optimized_batch_1" {
		t.Errorf("unexpected shard name %q", shards[0].Name())
	}
	if shards[0].Metadata()["region"] != "us" {
		t.Errorf("expected metadata carried over, got %v", shards[0].Metadata())
	}
}

func TestListCollections_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.ListCollections(context.Background(), 1000, 0); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/collections/batch_1/query" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ids": [["doc1", "doc2"]],
			"documents": [["tuition text", "housing text"]],
			"metadatas": [[{"title": "Tuition", "pages": 3}, null]],
			"distances": [[0.12, 0.34]]
		}`))
	})

	hits, err := client.Query(context.Background(), "batch_1", []float32{0.1, 0.2}, 20, map[string]string{"university_id": "neu"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "doc1" || hits[0].Content() != "tuition text" {
		t.Errorf("unexpected first hit: %v", hits[0])
	}
	if hits[0].Distance() != 0.12 {
		t.Errorf("unexpected distance %v", hits[0].Distance())
	}
	if hits[0].Meta("title") != "Tuition" || hits[0].Meta("pages") != "3" {
		t.Errorf("expected stringified metadata, got %v", hits[0].Metadata())
	}
	if hits[0].SourceShard() != "batch_1" {
		t.Errorf("expected source shard recorded, got %q", hits[0].SourceShard())
	}
}

func TestQuery_MissingColumnsGetDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [["passage only"]]}`))
	})

	hits, err := client.Query(context.Background(), "batch_1", []float32{0.1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ID() != "0" {
		t.Errorf("expected positional id, got %q", hits[0].ID())
	}
	if hits[0].Distance() != 1.0 {
		t.Errorf("expected default distance 1.0, got %v", hits[0].Distance())
	}
}

func TestQuery_EmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ids": [], "documents": []}`))
	})

	hits, err := client.Query(context.Background(), "batch_1", []float32{0.1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestQuery_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.Query(context.Background(), "missing", []float32{0.1}, 10, nil); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
