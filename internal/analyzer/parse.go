package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mveiga/prospector/internal/database"
)

// ParseAnalysisResponse validates and normalizes the model's structured
// reply for one batch. The reply may be a bare JSON array or an object
// wrapping the array under "analyses". Entries referencing a message ID not
// present in the batch are dropped; missing optional fields are coerced to
// safe defaults. Malformed output returns an error and no records — the
// caller logs it and continues with the next batch.
func ParseAnalysisResponse(raw string, batch []database.Message) ([]MessageIntent, error) {
	entries, err := decodeIntentEntries(raw)
	if err != nil {
		return nil, err
	}

	batchIDs := make(map[int64]struct{}, len(batch))
	for _, msg := range batch {
		batchIDs[msg.ID] = struct{}{}
	}

	records := make([]MessageIntent, 0, len(entries))
	for _, entry := range entries {
		if _, ok := batchIDs[entry.MessageID]; !ok {
			continue
		}
		if entry.PainPoints == nil {
			entry.PainPoints = []string{}
		}
		if entry.Interests == nil {
			entry.Interests = []string{}
		}
		if entry.Keywords == nil {
			entry.Keywords = []string{}
		}
		records = append(records, entry)
	}

	return records, nil
}

func decodeIntentEntries(raw string) ([]MessageIntent, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var entries []MessageIntent
	if err := json.Unmarshal([]byte(trimmed), &entries); err == nil {
		return entries, nil
	}

	var wrapper struct {
		Analyses []MessageIntent `json:"analyses"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("model response is neither a JSON array nor an analyses object: %w", err)
	}
	return wrapper.Analyses, nil
}
