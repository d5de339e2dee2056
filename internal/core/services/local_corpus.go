package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ SourceFetcher = (*LocalCorpusFetcher)(nil)

// LocalCorpusFetcher matches submission chunks against the already
// indexed reference article corpus.
type LocalCorpusFetcher struct {
	index  driven.VectorIndex
	topK   int
	logger *slog.Logger
}

// NewLocalCorpusFetcher creates a fetcher over the article index
func NewLocalCorpusFetcher(index driven.VectorIndex, topK int, logger *slog.Logger) *LocalCorpusFetcher {
	if topK <= 0 {
		topK = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalCorpusFetcher{
		index:  index,
		topK:   topK,
		logger: logger.With("component", "local_corpus_fetcher"),
	}
}

// Name identifies the fetcher
func (f *LocalCorpusFetcher) Name() string {
	return "local_corpus"
}

// Fetch queries the article index once per submission chunk
func (f *LocalCorpusFetcher) Fetch(ctx context.Context, sub Submission) ([]domain.RawMatch, error) {
	var matches []domain.RawMatch

	for i, embedding := range sub.Embeddings {
		if ctx.Err() != nil {
			return matches, ctx.Err()
		}

		hits, err := f.index.Search(embedding, f.topK, func(r domain.VectorRecord) bool {
			return r.SourceType == domain.SourceTypeArticle
		})
		if err != nil {
			return nil, fmt.Errorf("article index search: %w", err)
		}

		for _, hit := range hits {
			if hit.Score < sub.Threshold {
				continue
			}
			matches = append(matches, domain.RawMatch{
				SourceID:      hit.Record.SourceID,
				SourceType:    domain.SourceTypeArticle,
				Title:         hit.Record.Title,
				URL:           hit.Record.URL,
				Score:         hit.Score,
				SubmittedText: sub.Chunks[i].Text,
				MatchedText:   hit.Record.Text,
				MergedCount:   1,
			})
		}
	}

	f.logger.Debug("local corpus scan complete",
		"check_id", sub.CheckID, "chunks", len(sub.Chunks), "matches", len(matches))
	return matches, nil
}
