package database

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Engagement levels assigned to customers, ordered from least to most engaged.
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

// StringList stores a list of strings as a JSON array in a TEXT column.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as an empty array.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Channel represents a Discord text channel known to the analyzer.
// Relationships to messages and analyses are by channel ID lookup, never
// held as live object references.
type Channel struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	DiscordID string `db:"discord_id"`
	GuildID   string `db:"guild_id"`
	Name      string `db:"name"`

	LastAnalyzed sql.NullTime `db:"last_analyzed"`
}

// Message represents a message fetched from a Discord channel. Messages are
// immutable once stored; DiscordID makes the insert idempotent.
type Message struct {
	ID        int64  `db:"id"`
	DiscordID string `db:"discord_id"`
	ChannelID int64  `db:"channel_id"`

	AuthorID   string    `db:"author_id"`
	AuthorName string    `db:"author_name"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
}

// MessageAnalysis stores the model's per-message intent assessment.
// At most one row exists per message.
type MessageAnalysis struct {
	ID        int64     `db:"id"`
	MessageID int64     `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`

	IntentScore float64    `db:"intent_score"`
	IntentType  string     `db:"intent_type"`
	PainPoints  StringList `db:"pain_points"`
	Interests   StringList `db:"interests"`
	Keywords    StringList `db:"keywords"`
	Insights    string     `db:"insights"`
}

// Customer represents a potential customer profile accumulated across
// analysis runs. Score is the symmetric average of the stored score and the
// latest run's average, pain points and interests are set unions, and
// message count only grows.
type Customer struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	AuthorKey string `db:"author_key"`
	AuthorID  string `db:"author_id"`
	Username  string `db:"username"`

	Score           float64    `db:"score"`
	PainPoints      StringList `db:"pain_points"`
	Interests       StringList `db:"interests"`
	EngagementLevel string     `db:"engagement_level"`
	FirstSeen       time.Time  `db:"first_seen"`
	LastSeen        time.Time  `db:"last_seen"`
	MessageCount    int64      `db:"message_count"`
}

// ChannelAnalysis is an append-only snapshot of one analysis run's outcome.
// Insights holds a JSON document (counts plus top customers).
type ChannelAnalysis struct {
	ID        int64     `db:"id"`
	ChannelID int64     `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`

	AnalysisType string `db:"analysis_type"`
	Summary      string `db:"summary"`
	Insights     string `db:"insights"`
}
