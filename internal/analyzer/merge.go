package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mveiga/prospector/internal/database"
)

// MergeEngine folds per-run author aggregates into durable customer profiles.
type MergeEngine struct {
	store  database.Store
	logger *slog.Logger
}

// NewMergeEngine creates a merge engine backed by the given store.
func NewMergeEngine(store database.Store, logger *slog.Logger) *MergeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeEngine{
		store:  store,
		logger: logger.With("component", "merge_engine"),
	}
}

// MergeProfile computes the profile resulting from merging an author
// aggregate into an existing customer record, or a fresh record when
// existing is nil. The stored score becomes the symmetric average of the
// old score and the run average, so a repeated identical run stabilizes the
// score while the message count keeps accumulating. Pain points and
// interests are set unions; first_seen is preserved.
func MergeProfile(existing *database.Customer, agg *AuthorAggregate, now time.Time) *database.Customer {
	runAvg := agg.AverageScore()

	if existing == nil {
		return &database.Customer{
			AuthorKey:       agg.Author,
			AuthorID:        agg.AuthorID,
			Username:        agg.Author,
			Score:           runAvg,
			PainPoints:      append(database.StringList(nil), agg.PainPoints...),
			Interests:       append(database.StringList(nil), agg.Interests...),
			EngagementLevel: ClassifyEngagement(runAvg, agg.MessageCount),
			FirstSeen:       now,
			LastSeen:        now,
			MessageCount:    int64(agg.MessageCount),
		}
	}

	merged := *existing
	merged.Score = (existing.Score + runAvg) / 2
	merged.PainPoints = unionInto(append([]string(nil), existing.PainPoints...), agg.PainPoints)
	merged.Interests = unionInto(append([]string(nil), existing.Interests...), agg.Interests)
	merged.MessageCount = existing.MessageCount + int64(agg.MessageCount)
	merged.LastSeen = now
	merged.EngagementLevel = ClassifyEngagement(merged.Score, int(merged.MessageCount))
	return &merged
}

// UpsertCustomer merges one aggregate into its customer profile and
// persists the result.
func (e *MergeEngine) UpsertCustomer(ctx context.Context, agg *AuthorAggregate, now time.Time) (*database.Customer, error) {
	existing, err := e.store.GetCustomer(ctx, agg.Author)
	if err != nil {
		return nil, err
	}

	merged := MergeProfile(existing, agg, now)
	if err := e.store.SaveCustomer(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// MergeAll upserts every aggregate whose average score crosses the
// candidate threshold. A failed persist is logged and skipped; other
// authors' merges proceed regardless.
func (e *MergeEngine) MergeAll(ctx context.Context, aggregates []*AuthorAggregate, now time.Time) int {
	saved := 0
	for _, agg := range aggregates {
		if agg.AverageScore() <= CandidateThreshold {
			continue
		}
		if _, err := e.UpsertCustomer(ctx, agg, now); err != nil {
			e.logger.ErrorContext(ctx, "Failed to upsert customer profile",
				"author", agg.Author, "error", err)
			continue
		}
		saved++
	}
	return saved
}
