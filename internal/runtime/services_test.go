package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockIndex records saves for testing
type mockIndex struct {
	saved   bool
	saveErr error
}

func (m *mockIndex) Add(vectors [][]float32, records []domain.VectorRecord) ([]int64, error) {
	return nil, nil
}

func (m *mockIndex) Search(query []float32, k int, predicate func(domain.VectorRecord) bool) ([]driven.SearchHit, error) {
	return nil, nil
}

func (m *mockIndex) RemoveBySource(sourceID string) int { return 0 }

func (m *mockIndex) Size() int { return 0 }

func (m *mockIndex) Save() error {
	m.saved = true
	return m.saveErr
}

func (m *mockIndex) Load() error { return nil }

func TestNewServices(t *testing.T) {
	articles := &mockIndex{}
	videos := &mockIndex{}
	services := NewServices(articles, videos)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.ArticleIndex() != driven.VectorIndex(articles) {
		t.Error("expected article index to match")
	}
	if services.VideoIndex() != driven.VectorIndex(videos) {
		t.Error("expected video index to match")
	}
}

func TestServices_EmbeddingService(t *testing.T) {
	services := NewServices(&mockIndex{}, &mockIndex{})

	// Initially nil
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}

	// Set embedding service
	mock := &mockEmbeddingService{}
	services.SetEmbeddingService(mock)

	if services.EmbeddingService() == nil {
		t.Error("expected non-nil embedding service after set")
	}

	// Set to nil
	services.SetEmbeddingService(nil)
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after clearing")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	services := NewServices(&mockIndex{}, &mockIndex{})
	ctx := context.Background()

	// Healthy service is accepted
	healthy := &mockEmbeddingService{}
	if err := services.ValidateAndSetEmbedding(ctx, healthy); err != nil {
		t.Fatalf("expected healthy service accepted: %v", err)
	}
	if services.EmbeddingService() == nil {
		t.Error("expected embedding service set")
	}

	// Unhealthy service is rejected and closed
	unhealthy := &mockEmbeddingService{healthCheckErr: errors.New("unreachable")}
	if err := services.ValidateAndSetEmbedding(ctx, unhealthy); err == nil {
		t.Fatal("expected validation error")
	}
	if !unhealthy.closed {
		t.Error("expected rejected service to be closed")
	}
	if services.EmbeddingService() == nil {
		t.Error("expected previous service retained")
	}
}

func TestServices_SaveIndexes(t *testing.T) {
	articles := &mockIndex{}
	videos := &mockIndex{}
	services := NewServices(articles, videos)

	if err := services.SaveIndexes(); err != nil {
		t.Fatalf("SaveIndexes failed: %v", err)
	}
	if !articles.saved || !videos.saved {
		t.Error("expected both indexes saved")
	}

	articles.saveErr = errors.New("disk full")
	if err := services.SaveIndexes(); err == nil {
		t.Error("expected save error surfaced")
	}
}

func TestServices_Close(t *testing.T) {
	articles := &mockIndex{}
	videos := &mockIndex{}
	services := NewServices(articles, videos)

	mock := &mockEmbeddingService{}
	services.SetEmbeddingService(mock)

	if err := services.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !mock.closed {
		t.Error("expected embedding service closed")
	}
	if services.EmbeddingService() != nil {
		t.Error("expected embedding service cleared")
	}
	if !articles.saved || !videos.saved {
		t.Error("expected indexes saved on close")
	}
}
