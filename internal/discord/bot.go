// Package discord provides the Discord-facing glue: gateway session,
// rate-limited history fetching, prefix commands, and embed formatting.
// All analysis logic lives in the analyzer package; this layer only moves
// data in and renders results out.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/config"
	"github.com/mveiga/prospector/internal/database"
)

// Bot manages the Discord session lifecycle and command dispatch.
type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	commands *CommandHandler
	logger   *slog.Logger
}

// NewBot creates and configures the Discord bot.
func NewBot(cfg *config.Config, store database.Store, an *analyzer.Analyzer, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	log := logger.With("component", "discord_bot")
	fetcher := NewHistoryFetcher(session, cfg.Analysis.FetchDelay, log)
	commands := NewCommandHandler(cfg, store, an, fetcher, log)

	bot := &Bot{
		session:  session,
		cfg:      cfg,
		commands: commands,
		logger:   log,
	}
	session.AddHandler(bot.onMessageCreate)

	return bot, nil
}

// Run opens the gateway connection and blocks until the context is
// cancelled, then closes the session.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.logger.Info("Discord session opened", "user", b.session.State.User.Username)

	<-ctx.Done()

	b.logger.Info("Closing Discord session...")
	if err := b.session.Close(); err != nil {
		b.logger.Error("Error closing Discord session", "error", err)
	}
	return ctx.Err()
}

// Session exposes the underlying session for background tasks that need
// channel listings.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own and other bots' messages
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	prefix := b.cfg.Discord.CommandPrefix
	if len(m.Content) < len(prefix) || m.Content[:len(prefix)] != prefix {
		return
	}
	b.commands.Handle(s, m)
}
