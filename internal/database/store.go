package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// SaveResult reports the outcome of an idempotent insert. Exactly one of
// Inserted or AlreadyExists is true on success; callers decide whether an
// existing row is worth acting on.
type SaveResult struct {
	Inserted      bool
	AlreadyExists bool
}

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetOrCreateChannel fetches the channel with the given Discord ID,
	// creating it first when unknown. Name is refreshed on every call.
	GetOrCreateChannel(ctx context.Context, discordID, guildID, name string) (*Channel, error)

	// GetChannels retrieves all known channels for a guild. An empty guild
	// ID returns every channel.
	GetChannels(ctx context.Context, guildID string) ([]Channel, error)

	// SetChannelAnalyzed records when a channel's analysis run completed.
	SetChannelAnalyzed(ctx context.Context, channelID int64, at time.Time) error

	// SaveMessage inserts a message unless one with the same Discord ID
	// already exists.
	SaveMessage(ctx context.Context, message *Message) (SaveResult, error)

	// GetMessagesInChannel retrieves all messages stored for a channel,
	// oldest first.
	GetMessagesInChannel(ctx context.Context, channelID int64) ([]Message, error)

	// GetAnalyzedMessageIDs returns the set of message IDs in a channel that
	// already have a stored analysis.
	GetAnalyzedMessageIDs(ctx context.Context, channelID int64) (map[int64]struct{}, error)

	// SaveMessageAnalysis inserts an analysis unless the message already has one.
	SaveMessageAnalysis(ctx context.Context, analysis *MessageAnalysis) (SaveResult, error)

	// GetCustomer retrieves a customer profile by author key. Returns nil, nil if not found.
	GetCustomer(ctx context.Context, authorKey string) (*Customer, error)

	// GetAllCustomers retrieves all customer profiles.
	GetAllCustomers(ctx context.Context) ([]Customer, error)

	// SaveCustomer inserts or updates a customer profile keyed by author key.
	SaveCustomer(ctx context.Context, customer *Customer) error

	// SaveChannelAnalysis appends an analysis snapshot. Snapshots are never
	// updated or deleted.
	SaveChannelAnalysis(ctx context.Context, analysis *ChannelAnalysis) error

	// GetLatestChannelAnalysis retrieves the most recent snapshot for a
	// channel. Returns nil, nil if the channel was never analyzed.
	GetLatestChannelAnalysis(ctx context.Context, channelID int64) (*ChannelAnalysis, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetOrCreateChannel(ctx context.Context, discordID, guildID, name string) (*Channel, error) {
	if discordID == "" {
		return nil, fmt.Errorf("channel must have a non-empty discord_id")
	}

	var channel Channel
	err := s.db.GetContext(ctx, &channel, `SELECT * FROM channels WHERE discord_id = ?`, discordID)
	if err == nil {
		if channel.Name != name && name != "" {
			channel.Name = name
			channel.UpdatedAt = time.Now().UTC()
			if _, err := s.db.NamedExecContext(ctx,
				`UPDATE channels SET name = :name, updated_at = :updated_at WHERE id = :id`, &channel); err != nil {
				s.logger.WarnContext(ctx, "Failed to refresh channel name", "discord_id", discordID, "error", err)
			}
		}
		return &channel, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up channel %s: %w", discordID, err)
	}

	now := time.Now().UTC()
	channel = Channel{
		DiscordID: discordID,
		GuildID:   guildID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO channels (discord_id, guild_id, name, created_at, updated_at)
        VALUES (:discord_id, :guild_id, :name, :created_at, :updated_at)`, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel %s: %w", discordID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		channel.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating channel",
			"discord_id", discordID, "error", err)
	}
	return &channel, nil
}

func (s *sqlxStore) GetChannels(ctx context.Context, guildID string) ([]Channel, error) {
	var channels []Channel
	var err error
	if guildID == "" {
		err = s.db.SelectContext(ctx, &channels, `SELECT * FROM channels ORDER BY id`)
	} else {
		err = s.db.SelectContext(ctx, &channels,
			`SELECT * FROM channels WHERE guild_id = ? ORDER BY id`, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for guild %q: %w", guildID, err)
	}
	return channels, nil
}

func (s *sqlxStore) SetChannelAnalyzed(ctx context.Context, channelID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET last_analyzed = ?, updated_at = ? WHERE id = ?`, at, time.Now().UTC(), channelID)
	if err != nil {
		return fmt.Errorf("failed to mark channel %d analyzed: %w", channelID, err)
	}
	return nil
}

// SaveMessage inserts a new message unless one with the same Discord ID
// exists. The existing row is left untouched; a duplicate is not an error.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) (SaveResult, error) {
	if message == nil {
		return SaveResult{}, fmt.Errorf("cannot save nil message")
	}
	if message.DiscordID == "" {
		return SaveResult{}, fmt.Errorf("message must have a non-empty discord_id")
	}
	if message.ChannelID == 0 {
		return SaveResult{}, fmt.Errorf("message must have a non-zero channel_id")
	}

	var existingID int64
	err := s.db.GetContext(ctx, &existingID, `SELECT id FROM messages WHERE discord_id = ?`, message.DiscordID)
	if err == nil {
		message.ID = existingID
		return SaveResult{AlreadyExists: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return SaveResult{}, fmt.Errorf("failed to check for existing message %s: %w", message.DiscordID, err)
	}

	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO messages (discord_id, channel_id, author_id, author_name, content, created_at)
        VALUES (:discord_id, :channel_id, :author_id, :author_name, :content, :created_at)`, message)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to save message %s: %w", message.DiscordID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"discord_id", message.DiscordID, "error", err)
	}
	return SaveResult{Inserted: true}, nil
}

func (s *sqlxStore) GetMessagesInChannel(ctx context.Context, channelID int64) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		`SELECT * FROM messages WHERE channel_id = ? ORDER BY created_at, id`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for channel %d: %w", channelID, err)
	}
	return messages, nil
}

func (s *sqlxStore) GetAnalyzedMessageIDs(ctx context.Context, channelID int64) (map[int64]struct{}, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
        SELECT ma.message_id FROM message_analyses ma
        JOIN messages m ON m.id = ma.message_id
        WHERE m.channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyzed message IDs for channel %d: %w", channelID, err)
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// SaveMessageAnalysis inserts an analysis unless the message already has one.
// A message is analyzed at most once; re-runs skip it.
func (s *sqlxStore) SaveMessageAnalysis(ctx context.Context, analysis *MessageAnalysis) (SaveResult, error) {
	if analysis == nil {
		return SaveResult{}, fmt.Errorf("cannot save nil analysis")
	}
	if analysis.MessageID == 0 {
		return SaveResult{}, fmt.Errorf("analysis must have a non-zero message_id")
	}

	var existingID int64
	err := s.db.GetContext(ctx, &existingID,
		`SELECT id FROM message_analyses WHERE message_id = ?`, analysis.MessageID)
	if err == nil {
		analysis.ID = existingID
		return SaveResult{AlreadyExists: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return SaveResult{}, fmt.Errorf("failed to check for existing analysis of message %d: %w", analysis.MessageID, err)
	}

	analysis.CreatedAt = time.Now().UTC()
	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO message_analyses (message_id, intent_score, intent_type, pain_points, interests, keywords, insights, created_at)
        VALUES (:message_id, :intent_score, :intent_type, :pain_points, :interests, :keywords, :insights, :created_at)`, analysis)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to save analysis for message %d: %w", analysis.MessageID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		analysis.ID = id
	}
	return SaveResult{Inserted: true}, nil
}

func (s *sqlxStore) GetCustomer(ctx context.Context, authorKey string) (*Customer, error) {
	var customer Customer
	err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE author_key = ?`, authorKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer %q: %w", authorKey, err)
	}
	return &customer, nil
}

func (s *sqlxStore) GetAllCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := s.db.SelectContext(ctx, &customers, `SELECT * FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, nil
}

func (s *sqlxStore) SaveCustomer(ctx context.Context, customer *Customer) error {
	if customer == nil {
		return fmt.Errorf("cannot save nil customer")
	}
	if customer.AuthorKey == "" {
		return fmt.Errorf("customer must have a non-empty author_key")
	}

	now := time.Now().UTC()
	customer.UpdatedAt = now
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}

	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO customers (author_key, author_id, username, score, pain_points, interests,
                               engagement_level, first_seen, last_seen, message_count, created_at, updated_at)
        VALUES (:author_key, :author_id, :username, :score, :pain_points, :interests,
                :engagement_level, :first_seen, :last_seen, :message_count, :created_at, :updated_at)
        ON CONFLICT(author_key) DO UPDATE SET
            username = excluded.username,
            score = excluded.score,
            pain_points = excluded.pain_points,
            interests = excluded.interests,
            engagement_level = excluded.engagement_level,
            last_seen = excluded.last_seen,
            message_count = excluded.message_count,
            updated_at = excluded.updated_at`, customer)
	if err != nil {
		return fmt.Errorf("failed to save customer %q: %w", customer.AuthorKey, err)
	}
	if customer.ID == 0 {
		if id, err := result.LastInsertId(); err == nil {
			customer.ID = id
		}
	}
	return nil
}

func (s *sqlxStore) SaveChannelAnalysis(ctx context.Context, analysis *ChannelAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("cannot save nil channel analysis")
	}
	if analysis.ChannelID == 0 {
		return fmt.Errorf("channel analysis must have a non-zero channel_id")
	}

	analysis.CreatedAt = time.Now().UTC()
	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO channel_analyses (channel_id, analysis_type, summary, insights, created_at)
        VALUES (:channel_id, :analysis_type, :summary, :insights, :created_at)`, analysis)
	if err != nil {
		return fmt.Errorf("failed to save channel analysis for channel %d: %w", analysis.ChannelID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		analysis.ID = id
	}
	return nil
}

func (s *sqlxStore) GetLatestChannelAnalysis(ctx context.Context, channelID int64) (*ChannelAnalysis, error) {
	var analysis ChannelAnalysis
	err := s.db.GetContext(ctx, &analysis, `
        SELECT * FROM channel_analyses WHERE channel_id = ?
        ORDER BY created_at DESC, id DESC LIMIT 1`, channelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis for channel %d: %w", channelID, err)
	}
	return &analysis, nil
}

// RunSQLMaintenance performs VACUUM, ANALYZE, and an integrity check.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	var integrity string
	if err := s.db.GetContext(ctx, &integrity, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check reported: %s", integrity)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed")
	return nil
}
