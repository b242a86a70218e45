// Package analyzer implements the customer-intent analysis pipeline:
// token-budget batching, prompt construction, response parsing, per-author
// aggregation, customer profile merging, and report generation.
package analyzer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mveiga/prospector/internal/database"
)

// TokenCounter counts model-vocabulary tokens in a piece of text.
type TokenCounter interface {
	CountTokens(text string) int
}

type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter returns a TokenCounter backed by the cl100k_base encoding,
// the vocabulary used by current chat models.
func NewTokenCounter() (TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	return &tiktokenCounter{encoding: encoding}, nil
}

func (c *tiktokenCounter) CountTokens(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// BatchMessages splits an ordered message sequence into batches whose total
// content token count stays within maxTokens. The scan is greedy and
// order-preserving: a batch is closed when the next message would push it
// over budget, and a single message larger than the whole budget ends up
// alone in its own batch. Messages are never split, dropped, or reordered.
func BatchMessages(messages []database.Message, maxTokens int, counter TokenCounter) [][]database.Message {
	var batches [][]database.Message
	var currentBatch []database.Message
	currentTokens := 0

	for _, msg := range messages {
		msgTokens := counter.CountTokens(msg.Content)

		if currentTokens+msgTokens > maxTokens && len(currentBatch) > 0 {
			batches = append(batches, currentBatch)
			currentBatch = nil
			currentTokens = 0
		}

		currentBatch = append(currentBatch, msg)
		currentTokens += msgTokens
	}

	if len(currentBatch) > 0 {
		batches = append(batches, currentBatch)
	}

	return batches
}
