package domain

import (
	"time"
)

// CheckStatus represents the lifecycle state of a similarity check
type CheckStatus string

const (
	CheckStatusPending    CheckStatus = "pending"
	CheckStatusProcessing CheckStatus = "processing"
	CheckStatusCompleted  CheckStatus = "completed"
	CheckStatusFailed     CheckStatus = "failed"
)

// Sensitivity controls how aggressively matches are reported.
// Low sensitivity means only very strong matches pass; high
// sensitivity lets weaker matches through.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// RiskLevel is the overall verdict attached to a completed check
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// SourceType identifies where a candidate source came from
type SourceType string

const (
	SourceTypeArticle SourceType = "article"
	SourceTypeWeb     SourceType = "web"
	SourceTypeYouTube SourceType = "youtube"
)

// Check represents one similarity check request and its report
type Check struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Title          string      `json:"title,omitempty"`
	WordCount      int         `json:"word_count"`
	Status         CheckStatus `json:"status"`
	Sensitivity    Sensitivity `json:"sensitivity"`

	// Request flags
	CheckArticles   bool `json:"check_articles"`
	CheckWeb        bool `json:"check_web"`
	CheckYouTube    bool `json:"check_youtube"`
	StoreEmbeddings bool `json:"store_embeddings"`

	// Report fields, populated on completion
	OverallScore   float64   `json:"overall_score"`
	RiskLevel      RiskLevel `json:"risk_level,omitempty"`
	ChunkCount     int       `json:"chunk_count"`
	SourcesChecked int       `json:"sources_checked"`
	MatchCount     int       `json:"match_count"`
	EstimatedCost  float64   `json:"estimated_cost"`
	ErrorMessage   string    `json:"error_message,omitempty"`

	Matches []AggregatedMatch `json:"matches,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// NewCheck creates a pending check for an organization
func NewCheck(orgID, title string, wordCount int, sensitivity Sensitivity) *Check {
	if sensitivity == "" {
		sensitivity = SensitivityMedium
	}
	return &Check{
		ID:             GenerateID(),
		OrganizationID: orgID,
		Title:          title,
		WordCount:      wordCount,
		Status:         CheckStatusPending,
		Sensitivity:    sensitivity,
		CheckArticles:  true,
		CheckWeb:       true,
		CheckYouTube:   true,
		CreatedAt:      time.Now(),
	}
}

// IsTerminal reports whether the check reached a final state
func (c *Check) IsTerminal() bool {
	return c.Status == CheckStatusCompleted || c.Status == CheckStatusFailed
}

// MarkProcessing transitions the check to processing
func (c *Check) MarkProcessing() {
	now := time.Now()
	c.Status = CheckStatusProcessing
	c.StartedAt = &now
}

// MarkCompleted records the final report fields
func (c *Check) MarkCompleted(score float64, risk RiskLevel, matchCount int) {
	now := time.Now()
	c.Status = CheckStatusCompleted
	c.OverallScore = score
	c.RiskLevel = risk
	c.MatchCount = matchCount
	c.CompletedAt = &now
}

// MarkFailed records a processing failure
func (c *Check) MarkFailed(errMsg string) {
	now := time.Now()
	c.Status = CheckStatusFailed
	c.ErrorMessage = errMsg
	c.CompletedAt = &now
}
