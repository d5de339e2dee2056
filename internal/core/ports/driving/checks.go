package driving

import (
	"context"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// SubmitRequest carries one article submission
type SubmitRequest struct {
	OrganizationID  string             `json:"organization_id"`
	Title           string             `json:"title,omitempty"`
	Text            string             `json:"text"`
	Sensitivity     domain.Sensitivity `json:"sensitivity,omitempty"`
	CheckArticles   *bool              `json:"check_articles,omitempty"`
	CheckWeb        *bool              `json:"check_web,omitempty"`
	CheckYouTube    *bool              `json:"check_youtube,omitempty"`
	StoreEmbeddings bool               `json:"store_embeddings,omitempty"`
}

// CheckService is the driving port for submitting and inspecting checks
type CheckService interface {
	// Submit validates the request, consumes quota and enqueues a
	// pending check for asynchronous processing.
	Submit(ctx context.Context, req SubmitRequest) (*domain.Check, error)

	// GetCheck returns the check, including matches once completed
	GetCheck(ctx context.Context, id string) (*domain.Check, error)
}
