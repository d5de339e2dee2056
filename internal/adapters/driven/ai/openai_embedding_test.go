package ai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIEmbedding) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewOpenAIEmbedding("test-key", "text-embedding-3-small", server.URL)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedding failed: %v", err)
	}
	return server, svc.(*OpenAIEmbedding)
}

func TestEmbedReturnsNormalizedVectors(t *testing.T) {
	_, svc := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{3, 4}},
				{"index": 1, "embedding": []float32{0, 2}},
			},
		})
	})

	embeddings, err := svc.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}

	var norm float64
	for _, x := range embeddings[0] {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("expected unit-length embedding, got norm^2 %f", norm)
	}
}

func TestEmbedBatchFailureFallsBackPerItem(t *testing.T) {
	calls := 0
	_, svc := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)

		// Fail the batch call, then fail one of the single-item retries
		if _, isBatch := req.Input.([]interface{}); isBatch {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "overloaded"},
			})
			return
		}
		if req.Input == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "overloaded"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	})

	embeddings, err := svc.Embed(context.Background(), []string{"good", "bad"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}
	if calls != 3 {
		t.Errorf("expected batch call plus 2 retries, got %d calls", calls)
	}

	// The failed item becomes a zero vector of the model dimension
	if len(embeddings[1]) != svc.Dimensions() {
		t.Fatalf("expected zero vector of dimension %d, got %d", svc.Dimensions(), len(embeddings[1]))
	}
	for _, x := range embeddings[1] {
		if x != 0 {
			t.Errorf("expected zero vector for failed item")
			break
		}
	}
}

func TestEmbedQuery(t *testing.T) {
	_, svc := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{0, 5}},
			},
		})
	})

	v, err := svc.EmbedQuery(context.Background(), "query")
	if err != nil {
		t.Fatalf("EmbedQuery failed: %v", err)
	}
	if len(v) != 2 || math.Abs(float64(v[1])-1.0) > 1e-6 {
		t.Errorf("unexpected query embedding %v", v)
	}
}

func TestNewEmbeddingServiceInvalidProvider(t *testing.T) {
	_, err := NewEmbeddingService(EmbeddingConfig{Provider: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
