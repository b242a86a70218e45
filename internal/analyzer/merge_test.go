package analyzer_test

import (
	"math"
	"testing"
	"time"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

func aggregateOf(author string, scores ...float64) *analyzer.AuthorAggregate {
	var records []analyzer.MessageIntent
	for _, score := range scores {
		records = append(records, record(author, score))
	}
	aggs := analyzer.AggregateByAuthor(records)
	if len(aggs) != 1 {
		panic("aggregateOf expects a single author")
	}
	return aggs[0]
}

func TestMergeProfileFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := aggregateOf("alice", 0.9, 0.9)
	agg.PainPoints = []string{"manual exports"}

	profile := analyzer.MergeProfile(nil, agg, now)

	if profile.AuthorKey != "alice" || profile.Username != "alice" {
		t.Errorf("fresh profile keys: got %q/%q, want alice/alice", profile.AuthorKey, profile.Username)
	}
	if got, want := profile.Score, 0.9; math.Abs(got-want) > 1e-9 {
		t.Errorf("fresh profile score: got %v, want %v", got, want)
	}
	if profile.MessageCount != 2 {
		t.Errorf("fresh profile message count: got %d, want 2", profile.MessageCount)
	}
	if !profile.FirstSeen.Equal(now) || !profile.LastSeen.Equal(now) {
		t.Errorf("fresh profile timestamps: first %v last %v, want both %v", profile.FirstSeen, profile.LastSeen, now)
	}
	if len(profile.PainPoints) != 1 || profile.PainPoints[0] != "manual exports" {
		t.Errorf("fresh profile pain points: got %v", profile.PainPoints)
	}
}

func TestMergeProfileExisting(t *testing.T) {
	t.Parallel()

	firstSeen := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	existing := &database.Customer{
		AuthorKey:    "alice",
		Username:     "alice",
		Score:        0.9,
		PainPoints:   database.StringList{"manual exports"},
		Interests:    database.StringList{"automation"},
		FirstSeen:    firstSeen,
		LastSeen:     firstSeen,
		MessageCount: 2,
	}
	agg := aggregateOf("alice", 0.7)
	agg.PainPoints = []string{"manual exports", "pricing"}
	agg.Interests = []string{"automation"}

	merged := analyzer.MergeProfile(existing, agg, now)

	if got, want := merged.Score, 0.8; math.Abs(got-want) > 1e-9 {
		t.Errorf("merged score: got %v, want %v", got, want)
	}
	if merged.MessageCount != 3 {
		t.Errorf("merged message count: got %d, want 3", merged.MessageCount)
	}
	if !merged.FirstSeen.Equal(firstSeen) {
		t.Errorf("first_seen must be preserved: got %v, want %v", merged.FirstSeen, firstSeen)
	}
	if !merged.LastSeen.Equal(now) {
		t.Errorf("last_seen must advance: got %v, want %v", merged.LastSeen, now)
	}
	if len(merged.PainPoints) != 2 {
		t.Errorf("pain points should union without duplicates: got %v", merged.PainPoints)
	}
	if len(merged.Interests) != 1 {
		t.Errorf("interests should union without duplicates: got %v", merged.Interests)
	}
}

func TestMergeProfileRepeatedRunStabilizesScore(t *testing.T) {
	t.Parallel()

	// Re-running an identical analysis halves the distance to the run
	// average each time, while the message count keeps accumulating.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := aggregateOf("alice", 0.9, 0.9)

	first := analyzer.MergeProfile(nil, agg, now)
	second := analyzer.MergeProfile(first, agg, now.Add(time.Hour))

	if got, want := second.Score, 0.9; math.Abs(got-want) > 1e-9 {
		t.Errorf("identical re-run score: got %v, want %v", got, want)
	}
	if second.MessageCount != 4 {
		t.Errorf("identical re-run message count: got %d, want 4", second.MessageCount)
	}
}

func TestMergeProfileDoesNotMutateExisting(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	existing := &database.Customer{
		AuthorKey:    "alice",
		Score:        0.6,
		PainPoints:   database.StringList{"a"},
		MessageCount: 1,
	}
	agg := aggregateOf("alice", 0.8)
	agg.PainPoints = []string{"b"}

	_ = analyzer.MergeProfile(existing, agg, now)

	if existing.Score != 0.6 || existing.MessageCount != 1 || len(existing.PainPoints) != 1 {
		t.Errorf("existing profile mutated: %+v", existing)
	}
}
