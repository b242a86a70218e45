package analyzer

import (
	"sort"

	"github.com/mveiga/prospector/internal/database"
)

// CandidateThreshold is the minimum run-average intent score for an author
// to count as a potential customer. It is strictly greater-than and distinct
// from the per-message 0.3 inclusion threshold used in the prompt.
const CandidateThreshold = 0.5

// AggregateByAuthor groups intent records by author display name and
// computes per-author score sums and set unions. Aggregates are returned in
// first-appearance order so candidate sorting stays deterministic.
//
// Display name as the grouping key is a known identity gap: two users
// sharing a name merge, and a rename splits one user.
func AggregateByAuthor(records []MessageIntent) []*AuthorAggregate {
	index := make(map[string]*AuthorAggregate)
	var ordered []*AuthorAggregate

	for _, record := range records {
		agg, ok := index[record.Author]
		if !ok {
			agg = &AuthorAggregate{Author: record.Author}
			index[record.Author] = agg
			ordered = append(ordered, agg)
		}

		agg.Records = append(agg.Records, record)
		agg.PainPoints = unionInto(agg.PainPoints, record.PainPoints)
		agg.Interests = unionInto(agg.Interests, record.Interests)
		agg.TotalScore += record.IntentScore
		agg.MessageCount++
	}

	return ordered
}

// SelectCandidates filters aggregates to those whose average score exceeds
// the candidate threshold and sorts them by descending score. Ties keep the
// aggregates' first-appearance order (stable sort).
func SelectCandidates(aggregates []*AuthorAggregate) []CandidateResult {
	var candidates []CandidateResult
	for _, agg := range aggregates {
		avg := agg.AverageScore()
		if avg <= CandidateThreshold {
			continue
		}
		candidates = append(candidates, CandidateResult{
			Username:        agg.Author,
			AuthorID:        agg.AuthorID,
			Score:           avg,
			PainPoints:      append([]string(nil), agg.PainPoints...),
			Interests:       append([]string(nil), agg.Interests...),
			MessageCount:    agg.MessageCount,
			EngagementLevel: ClassifyEngagement(avg, agg.MessageCount),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

// ClassifyEngagement derives an engagement level from a score and message
// count. Rules are evaluated in order; the first match wins.
func ClassifyEngagement(score float64, messageCount int) string {
	switch {
	case score > 0.8 && messageCount > 5:
		return database.EngagementHigh
	case score > 0.6 || messageCount > 3:
		return database.EngagementMedium
	default:
		return database.EngagementLow
	}
}

// unionInto appends the values not already present in dst, preserving
// first-seen order.
func unionInto(dst []string, values []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
