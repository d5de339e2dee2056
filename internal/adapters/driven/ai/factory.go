package ai

import (
	"fmt"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// EmbeddingProvider identifies the embedding backend
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderOllama EmbeddingProvider = "ollama"
)

// EmbeddingConfig configures the embedding backend
type EmbeddingConfig struct {
	Provider EmbeddingProvider
	APIKey   string
	Model    string
	BaseURL  string
}

// NewEmbeddingService creates an embedding service from configuration
func NewEmbeddingService(cfg EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedding(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderOllama:
		return NewOllamaEmbedding(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}
