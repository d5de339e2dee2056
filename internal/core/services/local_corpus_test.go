package services

import (
	"context"
	"testing"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

func TestLocalCorpusFetch(t *testing.T) {
	index := &fakeIndex{hits: []driven.SearchHit{
		{VectorID: 1, Score: 0.91, Record: domain.VectorRecord{
			SourceID: "art-1", SourceType: domain.SourceTypeArticle,
			Title: "Earlier coverage", URL: "https://example.com/earlier", Text: "indexed passage",
		}},
		{VectorID: 2, Score: 0.60, Record: domain.VectorRecord{
			SourceID: "art-2", SourceType: domain.SourceTypeArticle, Text: "weak passage",
		}},
		{VectorID: 3, Score: 0.95, Record: domain.VectorRecord{
			SourceID: "vid-1", SourceType: domain.SourceTypeYouTube, Text: "transcript passage",
		}},
	}}

	fetcher := NewLocalCorpusFetcher(index, 10, nil)
	if fetcher.Name() != "local_corpus" {
		t.Errorf("unexpected name %q", fetcher.Name())
	}

	sub := Submission{
		CheckID:    "check-1",
		Chunks:     []domain.Chunk{{Index: 0, Text: "submitted chunk"}},
		Embeddings: [][]float32{{1, 0, 0, 0}},
		Threshold:  0.75,
	}

	matches, err := fetcher.Fetch(context.Background(), sub)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// Only the strong article hit survives: the weak one is below the
	// threshold and the transcript record fails the source predicate.
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.SourceID != "art-1" {
		t.Errorf("expected art-1, got %s", m.SourceID)
	}
	if m.SourceType != domain.SourceTypeArticle {
		t.Errorf("expected article source type, got %s", m.SourceType)
	}
	if m.SubmittedText != "submitted chunk" {
		t.Errorf("expected submitted chunk text, got %q", m.SubmittedText)
	}
	if m.MatchedText != "indexed passage" {
		t.Errorf("expected indexed passage, got %q", m.MatchedText)
	}
	if m.MergedCount != 1 {
		t.Errorf("expected merged count 1, got %d", m.MergedCount)
	}
}

func TestLocalCorpusFetchEmpty(t *testing.T) {
	fetcher := NewLocalCorpusFetcher(&fakeIndex{}, 10, nil)

	matches, err := fetcher.Fetch(context.Background(), Submission{
		Chunks:     []domain.Chunk{{Text: "chunk"}},
		Embeddings: [][]float32{{1, 0, 0, 0}},
		Threshold:  0.75,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches from empty index, got %d", len(matches))
	}
}
