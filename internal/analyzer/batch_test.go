package analyzer_test

import (
	"strings"
	"testing"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

// wordCounter counts whitespace-separated words, giving tests a predictable
// stand-in for the real tokenizer.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func messagesOf(contents ...string) []database.Message {
	msgs := make([]database.Message, 0, len(contents))
	for i, content := range contents {
		msgs = append(msgs, database.Message{
			ID:         int64(i + 1),
			AuthorName: "user",
			Content:    content,
		})
	}
	return msgs
}

func TestBatchMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		contents  []string
		maxTokens int
		want      [][]int64 // expected message IDs per batch
	}{
		{
			name:      "empty input yields no batches",
			contents:  nil,
			maxTokens: 10,
			want:      nil,
		},
		{
			name:      "all messages fit in one batch",
			contents:  []string{"a b", "c d", "e"},
			maxTokens: 10,
			want:      [][]int64{{1, 2, 3}},
		},
		{
			name:      "batch closes when budget would be exceeded",
			contents:  []string{"a b c", "d e f", "g h"},
			maxTokens: 5,
			want:      [][]int64{{1}, {2, 3}},
		},
		{
			name:      "oversized message stands alone",
			contents:  []string{"a", "one two three four five six seven", "b"},
			maxTokens: 4,
			want:      [][]int64{{1}, {2}, {3}},
		},
		{
			name:      "exact fit stays in current batch",
			contents:  []string{"a b", "c d"},
			maxTokens: 4,
			want:      [][]int64{{1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msgs := messagesOf(tt.contents...)
			batches := analyzer.BatchMessages(msgs, tt.maxTokens, wordCounter{})

			if len(batches) != len(tt.want) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tt.want))
			}

			seen := 0
			for i, batch := range batches {
				if len(batch) != len(tt.want[i]) {
					t.Fatalf("batch %d: got %d messages, want %d", i, len(batch), len(tt.want[i]))
				}
				for j, msg := range batch {
					if msg.ID != tt.want[i][j] {
						t.Errorf("batch %d message %d: got ID %d, want %d", i, j, msg.ID, tt.want[i][j])
					}
					seen++
				}
			}
			if seen != len(msgs) {
				t.Errorf("batches contain %d messages total, want %d", seen, len(msgs))
			}
		})
	}
}

func TestBatchMessagesPreservesOrder(t *testing.T) {
	t.Parallel()

	msgs := messagesOf("a b c", "d", "e f", "g h i j", "k")
	batches := analyzer.BatchMessages(msgs, 4, wordCounter{})

	var flattened []int64
	for _, batch := range batches {
		for _, msg := range batch {
			flattened = append(flattened, msg.ID)
		}
	}

	for i, id := range flattened {
		if id != int64(i+1) {
			t.Fatalf("order broken at position %d: got ID %d", i, id)
		}
	}
}
