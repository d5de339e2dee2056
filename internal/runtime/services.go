package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Services holds references to runtime-configurable services.
// The embedding service can be swapped while the process runs.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Dynamic service (can be nil, updated at runtime)
	embeddingService driven.EmbeddingService

	// Persistent vector indexes, saved on shutdown
	articleIndex driven.VectorIndex
	videoIndex   driven.VectorIndex
}

// NewServices creates a new Services registry
func NewServices(articleIndex, videoIndex driven.VectorIndex) *Services {
	return &Services{
		articleIndex: articleIndex,
		videoIndex:   videoIndex,
	}
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// ArticleIndex returns the reference article index
func (s *Services) ArticleIndex() driven.VectorIndex {
	return s.articleIndex
}

// VideoIndex returns the transcript index
func (s *Services) VideoIndex() driven.VectorIndex {
	return s.videoIndex
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close old service
	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
}

// ValidateAndSetEmbedding validates connectivity before setting the
// embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	// Validate connectivity
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// SaveIndexes persists both vector indexes
func (s *Services) SaveIndexes() error {
	if s.articleIndex != nil {
		if err := s.articleIndex.Save(); err != nil {
			return err
		}
	}
	if s.videoIndex != nil {
		if err := s.videoIndex.Save(); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down all services and saves the indexes
func (s *Services) Close() error {
	s.mu.Lock()
	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	s.mu.Unlock()

	return s.SaveIndexes()
}
