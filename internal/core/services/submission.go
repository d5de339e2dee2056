package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/overlap-core/internal/chunk"
	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.CheckService = (*SubmissionService)(nil)

// SubmissionConfig tunes submission validation
type SubmissionConfig struct {
	// MinWords rejects trivially short submissions
	MinWords int

	// MaxWords rejects submissions too large to process
	MaxWords int
}

// DefaultSubmissionConfig returns the standard validation bounds
func DefaultSubmissionConfig() SubmissionConfig {
	return SubmissionConfig{
		MinWords: 10,
		MaxWords: 10000,
	}
}

// SubmissionService validates incoming checks, consumes quota and
// enqueues them for asynchronous processing.
type SubmissionService struct {
	checks driven.CheckStore
	orgs   driven.OrganizationStore
	queue  driven.TaskQueue
	cfg    SubmissionConfig
	logger *slog.Logger
}

// NewSubmissionService creates a submission service
func NewSubmissionService(
	checks driven.CheckStore,
	orgs driven.OrganizationStore,
	queue driven.TaskQueue,
	cfg SubmissionConfig,
	logger *slog.Logger,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		checks: checks,
		orgs:   orgs,
		queue:  queue,
		cfg:    cfg,
		logger: logger.With("component", "submission"),
	}
}

// Submit validates the request, claims quota and enqueues a pending
// check. Quota is consumed before the check exists; if the create or
// enqueue fails afterwards the claimed unit is refunded.
func (s *SubmissionService) Submit(ctx context.Context, req driving.SubmitRequest) (*domain.Check, error) {
	if req.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organization_id is required", domain.ErrInvalidInput)
	}

	wordCount := chunk.WordCount(req.Text)
	if wordCount < s.cfg.MinWords {
		return nil, fmt.Errorf("%w: text has %d words, minimum is %d",
			domain.ErrInvalidInput, wordCount, s.cfg.MinWords)
	}
	if s.cfg.MaxWords > 0 && wordCount > s.cfg.MaxWords {
		return nil, fmt.Errorf("%w: text has %d words, maximum is %d",
			domain.ErrInvalidInput, wordCount, s.cfg.MaxWords)
	}

	switch req.Sensitivity {
	case "", domain.SensitivityLow, domain.SensitivityMedium, domain.SensitivityHigh:
	default:
		return nil, fmt.Errorf("%w: unknown sensitivity %q", domain.ErrInvalidInput, req.Sensitivity)
	}

	if err := s.orgs.ConsumeQuota(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	check := domain.NewCheck(req.OrganizationID, strings.TrimSpace(req.Title), wordCount, req.Sensitivity)
	if req.CheckArticles != nil {
		check.CheckArticles = *req.CheckArticles
	}
	if req.CheckWeb != nil {
		check.CheckWeb = *req.CheckWeb
	}
	if req.CheckYouTube != nil {
		check.CheckYouTube = *req.CheckYouTube
	}
	check.StoreEmbeddings = req.StoreEmbeddings

	if err := s.checks.Create(ctx, check); err != nil {
		s.refundQuota(ctx, req.OrganizationID)
		return nil, fmt.Errorf("creating check: %w", err)
	}

	task := domain.NewProcessCheckTask(check.OrganizationID, check.ID, req.Text)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Error("failed to enqueue check task", "check_id", check.ID, "error", err)
		s.refundQuota(ctx, req.OrganizationID)
		return nil, fmt.Errorf("enqueueing check: %w", err)
	}

	s.logger.Info("check submitted",
		"check_id", check.ID,
		"organization_id", check.OrganizationID,
		"word_count", wordCount,
		"sensitivity", check.Sensitivity)
	return check, nil
}

// refundQuota returns the claimed quota unit when a submission fails
// after ConsumeQuota succeeded
func (s *SubmissionService) refundQuota(ctx context.Context, orgID string) {
	if err := s.orgs.RefundQuota(ctx, orgID); err != nil {
		s.logger.Error("failed to refund quota", "organization_id", orgID, "error", err)
	}
}

// GetCheck returns the check with matches once completed
func (s *SubmissionService) GetCheck(ctx context.Context, id string) (*domain.Check, error) {
	check, err := s.checks.GetWithMatches(ctx, id)
	if err != nil {
		return nil, err
	}
	return check, nil
}
