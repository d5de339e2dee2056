package postgres

import (
	"context"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UsageStore = (*UsageStore)(nil)

// UsageStore implements driven.UsageStore using PostgreSQL
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new UsageStore
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Record inserts one usage log entry
func (s *UsageStore) Record(ctx context.Context, log *domain.UsageLog) error {
	query := `
		INSERT INTO usage_logs (id, organization_id, check_id, embeddings_generated,
			vector_queries, sources_fetched, estimated_cost, processing_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		log.ID,
		log.OrganizationID,
		log.CheckID,
		log.EmbeddingsGenerated,
		log.VectorQueries,
		log.SourcesFetched,
		log.EstimatedCost,
		log.ProcessingSeconds,
		log.CreatedAt,
	)
	return err
}
