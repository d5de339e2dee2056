package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// CheckStore persists checks and their aggregated matches
type CheckStore interface {
	// Create inserts a new check
	Create(ctx context.Context, check *domain.Check) error

	// Get retrieves a check by ID without matches
	Get(ctx context.Context, id string) (*domain.Check, error)

	// GetWithMatches retrieves a check with its matches attached
	GetWithMatches(ctx context.Context, id string) (*domain.Check, error)

	// Update persists mutable check fields (status, scores, timestamps)
	Update(ctx context.Context, check *domain.Check) error

	// CompleteWithMatches atomically stores the matches and marks the
	// check completed in one transaction.
	CompleteWithMatches(ctx context.Context, check *domain.Check, matches []domain.AggregatedMatch) error

	// MarkFailed marks the check failed and removes any partially
	// written matches.
	MarkFailed(ctx context.Context, checkID, errorMessage string) error

	// DeleteExpired removes checks whose expires_at passed, returning
	// the number deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
