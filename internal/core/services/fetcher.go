// Package services contains the use cases: submission, the per-source
// fetchers, match aggregation and the processing orchestrator.
package services

import (
	"context"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// Submission is the prepared form of a check handed to the fetchers:
// the article already normalized, chunked and embedded once.
type Submission struct {
	CheckID         string
	Title           string
	NormalizedText  string
	Chunks          []domain.Chunk
	Embeddings      [][]float32
	Threshold       float64
	StoreEmbeddings bool
}

// SourceFetcher finds chunk-level matches against one corpus
type SourceFetcher interface {
	// Name identifies the fetcher in logs and stats
	Name() string

	// Fetch returns raw matches at or above the submission threshold.
	// Fetchers degrade internally where they can; a returned error
	// means the whole source was unavailable.
	Fetch(ctx context.Context, sub Submission) ([]domain.RawMatch, error)
}
