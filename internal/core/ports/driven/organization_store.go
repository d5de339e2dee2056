package driven

import (
	"context"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// OrganizationStore persists organizations and their quota counters
type OrganizationStore interface {
	// Get retrieves an organization by ID
	Get(ctx context.Context, id string) (*domain.Organization, error)

	// Save creates or updates an organization
	Save(ctx context.Context, org *domain.Organization) error

	// ConsumeQuota atomically increments the month's check counter if
	// the organization is active and under its limit. Returns
	// domain.ErrQuotaExceeded when the limit is reached and
	// domain.ErrOrganizationInactive for deactivated organizations.
	ConsumeQuota(ctx context.Context, orgID string) error

	// RefundQuota returns one previously consumed check to the monthly
	// quota, used when a submission fails after the quota was claimed
	RefundQuota(ctx context.Context, orgID string) error

	// ResetMonthlyCounters zeroes all monthly check counters
	ResetMonthlyCounters(ctx context.Context) error
}

// UsageStore records per-check resource consumption
type UsageStore interface {
	// Record inserts one usage log entry
	Record(ctx context.Context, log *domain.UsageLog) error
}
