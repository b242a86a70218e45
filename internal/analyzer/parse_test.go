package analyzer_test

import (
	"testing"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

func TestParseAnalysisResponse(t *testing.T) {
	t.Parallel()

	batch := []database.Message{
		{ID: 1, AuthorName: "alice"},
		{ID: 2, AuthorName: "bob"},
	}

	tests := []struct {
		name    string
		raw     string
		wantIDs []int64
		wantErr bool
	}{
		{
			name:    "bare array",
			raw:     `[{"message_id": 1, "author": "alice", "intent_score": 0.9}]`,
			wantIDs: []int64{1},
		},
		{
			name:    "analyses wrapper object",
			raw:     `{"analyses": [{"message_id": 1, "author": "alice", "intent_score": 0.9}]}`,
			wantIDs: []int64{1},
		},
		{
			name: "entry for unknown message ID is dropped",
			raw: `[{"message_id": 1, "author": "alice", "intent_score": 0.9},
			       {"message_id": 99, "author": "ghost", "intent_score": 0.8}]`,
			wantIDs: []int64{1},
		},
		{
			name:    "empty array means no intent found",
			raw:     `[]`,
			wantIDs: nil,
		},
		{
			name:    "whitespace around payload is tolerated",
			raw:     "\n  [{\"message_id\": 2, \"author\": \"bob\", \"intent_score\": 0.7}]  \n",
			wantIDs: []int64{2},
		},
		{
			name:    "malformed JSON is an error",
			raw:     `this is not json`,
			wantErr: true,
		},
		{
			name:    "empty response is an error",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, err := analyzer.ParseAnalysisResponse(tt.raw, batch)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnalysisResponse: %v", err)
			}

			if len(records) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(records), len(tt.wantIDs))
			}
			for i, record := range records {
				if record.MessageID != tt.wantIDs[i] {
					t.Errorf("record %d: got message ID %d, want %d", i, record.MessageID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestParseAnalysisResponseWrapperEquivalence(t *testing.T) {
	t.Parallel()

	batch := []database.Message{{ID: 1, AuthorName: "alice"}}
	entry := `{"message_id": 1, "author": "alice", "intent_score": 0.85, "pain_points": ["slow tools"]}`

	bare, err := analyzer.ParseAnalysisResponse("["+entry+"]", batch)
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	wrapped, err := analyzer.ParseAnalysisResponse(`{"analyses": [`+entry+`]}`, batch)
	if err != nil {
		t.Fatalf("wrapper: %v", err)
	}

	if len(bare) != 1 || len(wrapped) != 1 {
		t.Fatalf("got %d bare and %d wrapped records, want 1 each", len(bare), len(wrapped))
	}
	if bare[0].MessageID != wrapped[0].MessageID ||
		bare[0].IntentScore != wrapped[0].IntentScore ||
		len(bare[0].PainPoints) != len(wrapped[0].PainPoints) {
		t.Errorf("bare and wrapped forms decoded differently: %+v vs %+v", bare[0], wrapped[0])
	}
}

func TestParseAnalysisResponseDefaultsNilSlices(t *testing.T) {
	t.Parallel()

	batch := []database.Message{{ID: 1, AuthorName: "alice"}}
	records, err := analyzer.ParseAnalysisResponse(`[{"message_id": 1, "author": "alice", "intent_score": 0.6}]`, batch)
	if err != nil {
		t.Fatalf("ParseAnalysisResponse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	record := records[0]
	if record.PainPoints == nil || record.Interests == nil || record.Keywords == nil {
		t.Errorf("optional list fields should default to empty slices, got %+v", record)
	}
}
