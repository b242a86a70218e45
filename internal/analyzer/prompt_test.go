package analyzer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

func TestBuildAnalysisPromptDeterministic(t *testing.T) {
	t.Parallel()

	batch := []database.Message{
		{ID: 1, AuthorName: "alice", Content: "any CRM recommendations?", CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{ID: 2, AuthorName: "bob", Content: "ours keeps crashing", CreatedAt: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)},
	}
	keywords := []string{"looking for", "recommend"}

	first, err := analyzer.BuildAnalysisPrompt(batch, keywords)
	if err != nil {
		t.Fatalf("BuildAnalysisPrompt: %v", err)
	}
	second, err := analyzer.BuildAnalysisPrompt(batch, keywords)
	if err != nil {
		t.Fatalf("BuildAnalysisPrompt: %v", err)
	}

	if first != second {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildAnalysisPromptContents(t *testing.T) {
	t.Parallel()

	batch := []database.Message{
		{ID: 42, AuthorName: "alice", Content: "need a better tool for this", CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	keywords := []string{"looking for", "frustrated with"}

	prompt, err := analyzer.BuildAnalysisPrompt(batch, keywords)
	if err != nil {
		t.Fatalf("BuildAnalysisPrompt: %v", err)
	}

	for _, want := range []string{
		`"id": 42`,
		`"author": "alice"`,
		"need a better tool for this",
		"2025-06-01T12:00:00Z",
		"looking for, frustrated with",
		"intent_score > 0.3",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
