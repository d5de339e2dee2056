package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// Aggregator rolls chunk-level raw matches up into per-source reports
// and computes the overall score. All constants come from the policy.
type Aggregator struct {
	policy domain.ScoringPolicy
}

// NewAggregator creates an aggregator with the given policy
func NewAggregator(policy domain.ScoringPolicy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Aggregate groups raw matches by source, merges adjacent transcript
// matches, and produces per-source aggregates ordered by descending
// similarity.
func (a *Aggregator) Aggregate(checkID string, raw []domain.RawMatch) []domain.AggregatedMatch {
	if len(raw) == 0 {
		return nil
	}

	// Group by source, preserving first-seen order for stable output
	var order []string
	groups := make(map[string][]domain.RawMatch)
	for _, m := range raw {
		if _, ok := groups[m.SourceID]; !ok {
			order = append(order, m.SourceID)
		}
		groups[m.SourceID] = append(groups[m.SourceID], m)
	}

	aggregates := make([]domain.AggregatedMatch, 0, len(order))
	for _, sourceID := range order {
		group := groups[sourceID]
		if group[0].SourceType == domain.SourceTypeYouTube {
			group = a.mergeAdjacent(group)
		}

		var maxScore, sum float64
		chunkCount := 0
		best := group[0]
		for _, m := range group {
			if m.Score > maxScore {
				maxScore = m.Score
			}
			if m.Score > best.Score {
				best = m
			}
			sum += m.Score
			if m.MergedCount > 0 {
				chunkCount += m.MergedCount
			} else {
				chunkCount++
			}
		}
		avgScore := sum / float64(len(group))
		similarity := a.policy.MaxWeight*maxScore + a.policy.AvgWeight*avgScore

		aggregates = append(aggregates, domain.AggregatedMatch{
			ID:            domain.GenerateID(),
			CheckID:       checkID,
			SourceID:      sourceID,
			SourceType:    best.SourceType,
			Title:         best.Title,
			URL:           best.URL,
			Similarity:    similarity,
			MaxScore:      maxScore,
			AvgScore:      avgScore,
			ChunkCount:    chunkCount,
			RiskLevel:     a.riskForSimilarity(similarity),
			Snippet:       Snippet(best.MatchedText, a.policy.SnippetMaxLength),
			Explanation:   a.explain(best.SourceType, chunkCount, maxScore),
			Timestamp:     best.Timestamp,
			MatchedChunks: a.topChunks(group),
		})
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].Similarity > aggregates[j].Similarity
	})
	return aggregates
}

// Score computes the 0-100 overall score and risk level.
// matchedChunks is how many distinct submission chunks matched any
// source; totalChunks is the submission chunk count.
func (a *Aggregator) Score(matches []domain.AggregatedMatch, matchedChunks, totalChunks int) (float64, domain.RiskLevel) {
	if len(matches) == 0 {
		return 0, domain.RiskLevelLow
	}

	var maxSim, sum float64
	for _, m := range matches {
		if m.Similarity > maxSim {
			maxSim = m.Similarity
		}
		sum += m.Similarity
	}
	meanSim := sum / float64(len(matches))

	coverage := 0.0
	if totalChunks > 0 {
		coverage = float64(matchedChunks) / float64(totalChunks)
	}

	countFactor := math.Min(float64(len(matches))/a.policy.ScoreCountCap, 1)

	score := a.policy.ScoreMaxWeight*maxSim +
		a.policy.ScoreAvgWeight*meanSim +
		a.policy.ScoreCoverageWeight*coverage +
		a.policy.ScoreCountWeight*countFactor

	return score, a.policy.RiskForScore(score)
}

// MatchedChunkCount counts distinct submission chunks present in the
// raw match set, for the coverage component of the overall score.
func MatchedChunkCount(raw []domain.RawMatch) int {
	seen := make(map[string]bool)
	for _, m := range raw {
		seen[m.SubmittedText] = true
	}
	return len(seen)
}

// mergeAdjacent folds transcript matches whose intervals sit within
// the merge gap into single spans, keeping the best score.
func (a *Aggregator) mergeAdjacent(group []domain.RawMatch) []domain.RawMatch {
	if len(group) < 2 {
		return group
	}

	sorted := make([]domain.RawMatch, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSeconds < sorted[j].StartSeconds
	})

	merged := []domain.RawMatch{sorted[0]}
	for _, m := range sorted[1:] {
		last := &merged[len(merged)-1]
		if m.StartSeconds-last.EndSeconds <= a.policy.MergeGapSeconds {
			if m.Score > last.Score {
				last.Score = m.Score
				last.SubmittedText = m.SubmittedText
				last.MatchedText = m.MatchedText
			}
			if m.EndSeconds > last.EndSeconds {
				last.EndSeconds = m.EndSeconds
			}
			last.MergedCount += max(m.MergedCount, 1)
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// topChunks keeps the highest-scoring chunk pairings for the report
func (a *Aggregator) topChunks(group []domain.RawMatch) []domain.MatchedChunk {
	sorted := make([]domain.RawMatch, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	limit := a.policy.TopMatchesPerSource
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	chunks := make([]domain.MatchedChunk, 0, limit)
	for _, m := range sorted[:limit] {
		chunks = append(chunks, domain.MatchedChunk{
			Score:         m.Score,
			SubmittedText: m.SubmittedText,
			MatchedText:   m.MatchedText,
			Timestamp:     m.Timestamp,
		})
	}
	return chunks
}

func (a *Aggregator) riskForSimilarity(similarity float64) domain.RiskLevel {
	switch {
	case similarity >= a.policy.Thresholds.High:
		return domain.RiskLevelHigh
	case similarity >= a.policy.Thresholds.Medium:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

// explain renders the per-source explanation
func (a *Aggregator) explain(sourceType domain.SourceType, chunkCount int, maxScore float64) string {
	percent := int(math.Round(maxScore * 100))
	if sourceType == domain.SourceTypeYouTube {
		if chunkCount == 1 {
			return fmt.Sprintf("1 passage closely matches spoken content in this video (up to %d%% similarity)", percent)
		}
		return fmt.Sprintf("%d passages closely match spoken content in this video (up to %d%% similarity)", chunkCount, percent)
	}
	if chunkCount == 1 {
		return fmt.Sprintf("1 passage closely matches this source (up to %d%% similarity)", percent)
	}
	return fmt.Sprintf("%d passages closely match this source (up to %d%% similarity)", chunkCount, percent)
}

// Snippet truncates text at a word boundary. The result, ellipsis
// included, never exceeds maxLength.
func Snippet(text string, maxLength int) string {
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}
	const ellipsis = "..."
	if maxLength <= len(ellipsis) {
		return text[:maxLength]
	}
	limit := maxLength - len(ellipsis)
	cut := text[:limit]
	if text[limit] != ' ' {
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
	}
	return strings.TrimRight(cut, " ") + ellipsis
}
