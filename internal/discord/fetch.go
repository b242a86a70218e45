package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mveiga/prospector/internal/database"
)

const historyPageSize = 100

// HistoryFetcher pulls channel message history in pages, pausing between
// requests to stay inside Discord's rate limits.
type HistoryFetcher struct {
	session    *discordgo.Session
	fetchDelay time.Duration
	logger     *slog.Logger
}

// NewHistoryFetcher creates a fetcher over an open session.
func NewHistoryFetcher(session *discordgo.Session, fetchDelay time.Duration, logger *slog.Logger) *HistoryFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryFetcher{
		session:    session,
		fetchDelay: fetchDelay,
		logger:     logger.With("component", "history_fetcher"),
	}
}

// FetchChannelMessages walks a channel's history backwards from the most
// recent message, stopping at the limit or the after cutoff, and returns
// the messages in chronological order. Bot-authored messages are skipped.
func (f *HistoryFetcher) FetchChannelMessages(ctx context.Context, channelID string, limit int, after time.Time) ([]*discordgo.Message, error) {
	var collected []*discordgo.Message
	beforeID := ""

	for len(collected) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageSize := historyPageSize
		if remaining := limit - len(collected); remaining < pageSize {
			pageSize = remaining
		}

		page, err := f.session.ChannelMessages(channelID, pageSize, beforeID, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel history page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		reachedCutoff := false
		for _, msg := range page {
			if !after.IsZero() && msg.Timestamp.Before(after) {
				reachedCutoff = true
				break
			}
			if msg.Author == nil || msg.Author.Bot {
				continue
			}
			collected = append(collected, msg)
		}

		beforeID = page[len(page)-1].ID
		if reachedCutoff || len(page) < pageSize {
			break
		}

		if f.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.fetchDelay):
			}
		}
	}

	// Pages arrive newest-first; callers want chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}

	f.logger.InfoContext(ctx, "Fetched channel history", "channel_id", channelID, "messages", len(collected))
	return collected, nil
}

// SaveMessages persists fetched messages under their channel, returning how
// many were new. Messages already stored are skipped by Discord ID.
func SaveMessages(ctx context.Context, store database.Store, channel *database.Channel, msgs []*discordgo.Message, logger *slog.Logger) (int, error) {
	inserted := 0
	for _, msg := range msgs {
		authorName := ""
		authorID := ""
		if msg.Author != nil {
			authorName = msg.Author.Username
			authorID = msg.Author.ID
		}

		res, err := store.SaveMessage(ctx, &database.Message{
			DiscordID:  msg.ID,
			ChannelID:  channel.ID,
			AuthorID:   authorID,
			AuthorName: authorName,
			Content:    msg.Content,
			CreatedAt:  msg.Timestamp.UTC(),
		})
		if err != nil {
			logger.ErrorContext(ctx, "Failed to save message", "discord_id", msg.ID, "error", err)
			continue
		}
		if res.Inserted {
			inserted++
		}
	}
	return inserted, nil
}
