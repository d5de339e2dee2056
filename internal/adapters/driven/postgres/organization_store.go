package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OrganizationStore = (*OrganizationStore)(nil)

// OrganizationStore implements driven.OrganizationStore using PostgreSQL
type OrganizationStore struct {
	db *DB
}

// NewOrganizationStore creates a new OrganizationStore
func NewOrganizationStore(db *DB) *OrganizationStore {
	return &OrganizationStore{db: db}
}

// Get retrieves an organization by ID
func (s *OrganizationStore) Get(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, monthly_check_limit, current_month_checks, is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org domain.Organization
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.MonthlyCheckLimit,
		&org.CurrentMonthChecks,
		&org.IsActive,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Save creates or updates an organization
func (s *OrganizationStore) Save(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, monthly_check_limit, current_month_checks, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			monthly_check_limit = EXCLUDED.monthly_check_limit,
			current_month_checks = EXCLUDED.current_month_checks,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.MonthlyCheckLimit,
		org.CurrentMonthChecks,
		org.IsActive,
		org.CreatedAt,
		org.UpdatedAt,
	)
	return err
}

// ConsumeQuota atomically claims one check from the monthly quota.
// The guarded UPDATE is the only quota gate, so concurrent submissions
// cannot overshoot the limit.
func (s *OrganizationStore) ConsumeQuota(ctx context.Context, orgID string) error {
	query := `
		UPDATE organizations
		SET current_month_checks = current_month_checks + 1, updated_at = NOW()
		WHERE id = $1
		  AND is_active
		  AND current_month_checks < monthly_check_limit
	`
	result, err := s.db.ExecContext(ctx, query, orgID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Distinguish why the guarded update matched nothing
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if !org.IsActive {
		return domain.ErrOrganizationInactive
	}
	return domain.ErrQuotaExceeded
}

// RefundQuota returns one claimed check to the monthly quota. The
// counter never goes below zero.
func (s *OrganizationStore) RefundQuota(ctx context.Context, orgID string) error {
	query := `
		UPDATE organizations
		SET current_month_checks = current_month_checks - 1, updated_at = NOW()
		WHERE id = $1
		  AND current_month_checks > 0
	`
	_, err := s.db.ExecContext(ctx, query, orgID)
	return err
}

// ResetMonthlyCounters zeroes all monthly check counters
func (s *OrganizationStore) ResetMonthlyCounters(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET current_month_checks = 0, updated_at = NOW()`)
	return err
}
