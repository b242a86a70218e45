package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mveiga/prospector/internal/database"
)

// promptMessage is the per-message shape embedded in the analysis prompt.
type promptMessage struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// BuildAnalysisPrompt renders the instruction sent to the model for one
// batch. The rendering is deterministic: the same batch and keyword hints
// always produce the same text. The intent-score omission threshold lives
// here as a prompt-level instruction only; the parser does not re-enforce it.
func BuildAnalysisPrompt(batch []database.Message, keywords []string) (string, error) {
	messageData := make([]promptMessage, 0, len(batch))
	for _, msg := range batch {
		messageData = append(messageData, promptMessage{
			ID:        msg.ID,
			Author:    msg.AuthorName,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	messagesJSON, err := json.MarshalIndent(messageData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch for prompt: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`Analyze the following Discord messages to identify potential customers for a startup.
For each message that shows customer intent, extract:
1. Intent score (0-1): How likely is this person to be a potential customer?
2. Intent type: What kind of intent are they showing? (seeking_solution, expressing_frustration, asking_recommendation, researching_options, etc.)
3. Pain points: What problems are they facing?
4. Interests: What are they looking for?
5. Keywords: Important keywords from their message

Focus on messages that contain:
- `)
	sb.WriteString(strings.Join(keywords, ", "))
	sb.WriteString("\n\nMessages to analyze:\n")
	sb.Write(messagesJSON)
	sb.WriteString(`

Return a JSON array with analysis for ONLY messages showing customer intent:
[
  {
    "message_id": 123,
    "author": "username",
    "intent_score": 0.85,
    "intent_type": "seeking_solution",
    "pain_points": ["specific problem"],
    "interests": ["what they want"],
    "keywords": ["important", "words"],
    "explanation": "Why this is a potential customer"
  }
]

Only include messages with intent_score > 0.3`)

	return sb.String(), nil
}
