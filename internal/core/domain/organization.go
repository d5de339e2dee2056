package domain

import "time"

// Organization owns checks and carries the monthly quota
type Organization struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	MonthlyCheckLimit  int       `json:"monthly_check_limit"`
	CurrentMonthChecks int       `json:"current_month_checks"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewOrganization creates an active organization with the given quota
func NewOrganization(name string, monthlyLimit int) *Organization {
	now := time.Now()
	return &Organization{
		ID:                GenerateID(),
		Name:              name,
		MonthlyCheckLimit: monthlyLimit,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// HasQuota reports whether another check fits inside the monthly limit
func (o *Organization) HasQuota() bool {
	return o.CurrentMonthChecks < o.MonthlyCheckLimit
}

// UsageLog records the resources one check consumed
type UsageLog struct {
	ID                  string    `json:"id"`
	OrganizationID      string    `json:"organization_id"`
	CheckID             string    `json:"check_id"`
	EmbeddingsGenerated int       `json:"embeddings_generated"`
	VectorQueries       int       `json:"vector_queries"`
	SourcesFetched      int       `json:"sources_fetched"`
	EstimatedCost       float64   `json:"estimated_cost"`
	ProcessingSeconds   float64   `json:"processing_seconds"`
	CreatedAt           time.Time `json:"created_at"`
}
