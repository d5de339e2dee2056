package domain

// Thresholds holds the minimum similarity required to keep a raw match,
// one value per effective strictness tier.
type Thresholds struct {
	Low    float64
	Medium float64
	High   float64
}

// ScoringPolicy collects the tunable constants of match aggregation and
// overall scoring. All weights and cutoffs are configuration, not code.
type ScoringPolicy struct {
	Thresholds Thresholds

	// Per-source similarity blend
	MaxWeight float64
	AvgWeight float64

	// Overall score components
	ScoreMaxWeight      float64
	ScoreAvgWeight      float64
	ScoreCoverageWeight float64
	ScoreCountWeight    float64
	ScoreCountCap       float64

	// Risk cutoffs on the 0-100 overall score
	RiskHighCutoff   float64
	RiskMediumCutoff float64

	// Merge window for adjacent transcript matches, seconds
	MergeGapSeconds float64

	SnippetMaxLength    int
	TopMatchesPerSource int
	MaxPersistedMatches int
}

// DefaultScoringPolicy returns the standard production policy
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Thresholds: Thresholds{
			Low:    0.65,
			Medium: 0.75,
			High:   0.85,
		},
		MaxWeight:           0.6,
		AvgWeight:           0.4,
		ScoreMaxWeight:      40,
		ScoreAvgWeight:      30,
		ScoreCoverageWeight: 20,
		ScoreCountWeight:    10,
		ScoreCountCap:       5,
		RiskHighCutoff:      85,
		RiskMediumCutoff:    75,
		MergeGapSeconds:     10,
		SnippetMaxLength:    300,
		TopMatchesPerSource: 5,
		MaxPersistedMatches: 20,
	}
}

// ThresholdForSensitivity maps a check's sensitivity to the similarity
// cutoff applied to raw matches. The mapping is intentionally inverted:
// low sensitivity demands the high threshold so that only the strongest
// matches are reported, and high sensitivity applies the low threshold.
func (p ScoringPolicy) ThresholdForSensitivity(s Sensitivity) float64 {
	switch s {
	case SensitivityLow:
		return p.Thresholds.High
	case SensitivityHigh:
		return p.Thresholds.Low
	default:
		return p.Thresholds.Medium
	}
}

// RiskForScore maps a 0-100 overall score to a risk level
func (p ScoringPolicy) RiskForScore(score float64) RiskLevel {
	switch {
	case score >= p.RiskHighCutoff:
		return RiskLevelHigh
	case score >= p.RiskMediumCutoff:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
