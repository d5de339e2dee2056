package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/overlap-core/internal/chunk"
	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// OrchestratorConfig tunes check processing
type OrchestratorConfig struct {
	// Policy carries all scoring and aggregation constants
	Policy domain.ScoringPolicy

	// CostPerEmbedding estimates spend per embedded chunk
	CostPerEmbedding float64

	// CheckTTL sets expires_at on completed checks; zero disables expiry
	CheckTTL time.Duration
}

// Orchestrator runs the full similarity pipeline for one check:
// chunk, embed, fan out to the source fetchers, aggregate, score and
// persist the report.
type Orchestrator struct {
	checks     driven.CheckStore
	usage      driven.UsageStore
	embedder   driven.EmbeddingService
	chunker    *chunk.Chunker
	fetchers   []SourceFetcher
	aggregator *Aggregator
	cfg        OrchestratorConfig
	logger     *slog.Logger
}

// NewOrchestrator creates a check orchestrator
func NewOrchestrator(
	checks driven.CheckStore,
	usage driven.UsageStore,
	embedder driven.EmbeddingService,
	chunker *chunk.Chunker,
	fetchers []SourceFetcher,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		checks:     checks,
		usage:      usage,
		embedder:   embedder,
		chunker:    chunker,
		fetchers:   fetchers,
		aggregator: NewAggregator(cfg.Policy),
		cfg:        cfg,
		logger:     logger.With("component", "orchestrator"),
	}
}

// ProcessCheck runs the pipeline for a pending check. Pipeline errors
// after the processing transition mark the check failed rather than
// propagate, so the task is not redelivered for a check that already
// reached a terminal state. Re-delivery of a terminal check returns
// domain.ErrCheckTerminal.
func (o *Orchestrator) ProcessCheck(ctx context.Context, checkID, articleText string) error {
	check, err := o.checks.Get(ctx, checkID)
	if err != nil {
		return fmt.Errorf("loading check: %w", err)
	}
	if check.IsTerminal() {
		return fmt.Errorf("%w: check %s is %s", domain.ErrCheckTerminal, checkID, check.Status)
	}

	check.MarkProcessing()
	if err := o.checks.Update(ctx, check); err != nil {
		return fmt.Errorf("marking check processing: %w", err)
	}

	started := time.Now()
	o.logger.Info("processing check", "check_id", checkID, "sensitivity", check.Sensitivity)

	if err := o.runPipeline(ctx, check, articleText, started); err != nil {
		o.failCheck(ctx, checkID, err)
	}
	return nil
}

func (o *Orchestrator) runPipeline(ctx context.Context, check *domain.Check, articleText string, started time.Time) error {
	chunks := o.chunker.Chunk(articleText)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: article produced no chunks", domain.ErrInvalidInput)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := o.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding submission: %w", err)
	}

	sub := Submission{
		CheckID:         check.ID,
		Title:           check.Title,
		NormalizedText:  chunk.Normalize(articleText),
		Chunks:          chunks,
		Embeddings:      embeddings,
		Threshold:       o.cfg.Policy.ThresholdForSensitivity(check.Sensitivity),
		StoreEmbeddings: check.StoreEmbeddings,
	}

	raw := o.fanOut(ctx, check, sub)

	sources := make(map[string]bool)
	for _, m := range raw {
		sources[m.SourceID] = true
	}

	aggregated := o.aggregator.Aggregate(check.ID, raw)
	score, risk := o.aggregator.Score(aggregated, MatchedChunkCount(raw), len(chunks))

	persisted := aggregated
	if limit := o.cfg.Policy.MaxPersistedMatches; limit > 0 && len(persisted) > limit {
		persisted = persisted[:limit]
	}

	check.MarkCompleted(score, risk, len(persisted))
	check.ChunkCount = len(chunks)
	check.SourcesChecked = len(sources)
	check.EstimatedCost = float64(len(chunks)) * o.cfg.CostPerEmbedding
	if o.cfg.CheckTTL > 0 {
		expires := time.Now().Add(o.cfg.CheckTTL)
		check.ExpiresAt = &expires
	}

	if err := o.checks.CompleteWithMatches(ctx, check, persisted); err != nil {
		return fmt.Errorf("persisting report: %w", err)
	}

	elapsed := time.Since(started)
	o.recordUsage(ctx, check, len(chunks), len(sources), elapsed)

	o.logger.Info("check completed",
		"check_id", check.ID,
		"score", score,
		"risk", risk,
		"matches", len(persisted),
		"sources_checked", len(sources),
		"elapsed", elapsed)
	return nil
}

// fanOut runs the enabled fetchers concurrently. A failed fetcher is
// logged and contributes no matches; the check still completes.
func (o *Orchestrator) fanOut(ctx context.Context, check *domain.Check, sub Submission) []domain.RawMatch {
	var mu sync.Mutex
	var raw []domain.RawMatch
	var wg sync.WaitGroup

	for _, fetcher := range o.fetchers {
		if fetcher.Name() == "local_corpus" && !check.CheckArticles {
			continue
		}
		if fetcher.Name() == "web_search" && !check.CheckWeb {
			continue
		}
		if fetcher.Name() == "youtube" && !check.CheckYouTube {
			continue
		}

		wg.Add(1)
		go func(f SourceFetcher) {
			defer wg.Done()
			matches, err := f.Fetch(ctx, sub)
			if err != nil {
				o.logger.Warn("source fetcher degraded",
					"check_id", check.ID, "fetcher", f.Name(), "error", err)
			}
			if len(matches) == 0 {
				return
			}
			mu.Lock()
			raw = append(raw, matches...)
			mu.Unlock()
		}(fetcher)
	}
	wg.Wait()
	return raw
}

func (o *Orchestrator) failCheck(ctx context.Context, checkID string, cause error) {
	o.logger.Error("check failed", "check_id", checkID, "error", cause)
	if err := o.checks.MarkFailed(ctx, checkID, cause.Error()); err != nil {
		o.logger.Error("failed to mark check failed", "check_id", checkID, "error", err)
	}
}

func (o *Orchestrator) recordUsage(ctx context.Context, check *domain.Check, embeddings, sources int, elapsed time.Duration) {
	log := &domain.UsageLog{
		ID:                  domain.GenerateID(),
		OrganizationID:      check.OrganizationID,
		CheckID:             check.ID,
		EmbeddingsGenerated: embeddings,
		VectorQueries:       embeddings,
		SourcesFetched:      sources,
		EstimatedCost:       check.EstimatedCost,
		ProcessingSeconds:   elapsed.Seconds(),
		CreatedAt:           time.Now(),
	}
	if err := o.usage.Record(ctx, log); err != nil {
		o.logger.Warn("usage log write failed", "check_id", check.ID, "error", err)
	}
}
