package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/config"
	"github.com/mveiga/prospector/internal/database"
)

const commandTimeout = 10 * time.Minute

// CommandHandler processes bot prefix commands.
type CommandHandler struct {
	cfg      *config.Config
	store    database.Store
	analyzer *analyzer.Analyzer
	fetcher  *HistoryFetcher
	logger   *slog.Logger
}

// NewCommandHandler creates the command dispatcher.
func NewCommandHandler(cfg *config.Config, store database.Store, an *analyzer.Analyzer, fetcher *HistoryFetcher, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		cfg:      cfg,
		store:    store,
		analyzer: an,
		fetcher:  fetcher,
		logger:   logger.With("component", "commands"),
	}
}

// Handle dispatches a prefix command.
func (h *CommandHandler) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	parts := strings.Fields(m.Content)
	if len(parts) == 0 {
		return
	}

	prefix := h.cfg.Discord.CommandPrefix
	command := strings.ToLower(strings.TrimPrefix(parts[0], prefix))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "analyze":
		h.cmdAnalyze(ctx, s, m, parts[1:])
	case "analyze_all":
		h.cmdAnalyzeAll(ctx, s, m)
	case "report":
		h.cmdReport(ctx, s, m)
	case "status":
		h.cmdStatus(ctx, s, m)
	case "help":
		h.cmdHelp(s, m)
	}
}

// cmdAnalyze fetches recent history for the current channel, stores it, and
// runs the analysis pipeline. Optional arguments: lookback days and message
// limit.
func (h *CommandHandler) cmdAnalyze(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	days := h.cfg.Analysis.DefaultLookbackDays
	limit := h.cfg.Analysis.MaxMessagesPerChannel

	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			days = v
		}
	}
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[1]); err == nil && v > 0 && v <= h.cfg.Analysis.MaxMessagesPerChannel {
			limit = v
		}
	}

	progress, err := s.ChannelMessageSendEmbed(m.ChannelID, startEmbed(m.ChannelID, days, limit))
	if err != nil {
		h.logger.Error("Failed to send analysis progress embed", "error", err)
	}

	result, candidates, runErr := h.runChannelAnalysis(ctx, s, m.GuildID, m.ChannelID, days, limit)
	if runErr != nil {
		if errors.Is(runErr, analyzer.ErrAnalysisInProgress) {
			h.editOrSend(s, m.ChannelID, progress, busyEmbed(m.ChannelID))
			return
		}
		h.logger.Error("Channel analysis failed", "channel_id", m.ChannelID, "error", runErr)
		h.editOrSend(s, m.ChannelID, progress, errorEmbed("Analysis Error",
			fmt.Sprintf("An error occurred while analyzing the channel: %v", runErr)))
		return
	}

	h.editOrSend(s, m.ChannelID, progress, resultEmbed(m.ChannelID, result))

	if len(candidates) > 0 {
		if _, err := s.ChannelMessageSendEmbed(m.ChannelID, customerDetailsEmbed(candidates)); err != nil {
			h.logger.Error("Failed to send customer details embed", "error", err)
		}
	}
}

// runChannelAnalysis is the fetch-store-analyze sequence shared by the
// analyze commands and the scheduled sweep.
func (h *CommandHandler) runChannelAnalysis(ctx context.Context, s *discordgo.Session, guildID, channelID string, days, limit int) (*analyzer.RunResult, []analyzer.CandidateResult, error) {
	after := time.Now().UTC().AddDate(0, 0, -days)
	msgs, err := h.fetcher.FetchChannelMessages(ctx, channelID, limit, after)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	name := channelID
	if ch, err := s.State.Channel(channelID); err == nil && ch != nil {
		name = ch.Name
	}

	channel, err := h.store.GetOrCreateChannel(ctx, channelID, guildID, name)
	if err != nil {
		return nil, nil, err
	}

	if _, err := SaveMessages(ctx, h.store, channel, msgs, h.logger); err != nil {
		return nil, nil, err
	}

	result, err := h.analyzer.AnalyzeChannel(ctx, channel.ID)
	if err != nil {
		return nil, nil, err
	}
	return result, result.Candidates, nil
}

// cmdAnalyzeAll runs the analysis over every readable text channel in the
// guild, sequentially with a pause between channels.
func (h *CommandHandler) cmdAnalyzeAll(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	channels, err := s.GuildChannels(m.GuildID)
	if err != nil {
		h.logger.Error("Failed to list guild channels", "guild_id", m.GuildID, "error", err)
		_, _ = s.ChannelMessageSendEmbed(m.ChannelID, errorEmbed("Analysis Error", "Could not list server channels."))
		return
	}

	var textChannels []*discordgo.Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			textChannels = append(textChannels, ch)
		}
	}

	progress, err := s.ChannelMessageSendEmbed(m.ChannelID, sweepStartEmbed(len(textChannels)))
	if err != nil {
		h.logger.Error("Failed to send sweep progress embed", "error", err)
	}

	analyzed := 0
	for _, ch := range textChannels {
		if ctx.Err() != nil {
			break
		}

		_, _, err := h.runChannelAnalysis(ctx, s, m.GuildID, ch.ID,
			h.cfg.Analysis.DefaultLookbackDays, h.cfg.Analysis.MaxMessagesPerChannel)
		if err != nil {
			h.logger.Error("Failed to analyze channel during sweep", "channel", ch.Name, "error", err)
			continue
		}
		analyzed++

		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
		}
	}

	h.editOrSend(s, m.ChannelID, progress, sweepDoneEmbed(analyzed, len(textChannels)))
}

func (h *CommandHandler) cmdReport(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	report, err := h.analyzer.GenerateReport(ctx)
	if err != nil {
		h.logger.Error("Failed to generate customer report", "error", err)
		_, _ = s.ChannelMessageSendEmbed(m.ChannelID, errorEmbed("Report Generation Error",
			fmt.Sprintf("Failed to generate report: %v", err)))
		return
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, reportEmbed(report)); err != nil {
		h.logger.Error("Failed to send report embed", "error", err)
	}
}

func (h *CommandHandler) cmdStatus(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	channels, err := h.store.GetChannels(ctx, m.GuildID)
	if err != nil {
		h.logger.Error("Failed to load channel status", "guild_id", m.GuildID, "error", err)
		_, _ = s.ChannelMessageSendEmbed(m.ChannelID, errorEmbed("Status Error", "Could not load analysis status."))
		return
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, statusEmbed(channels)); err != nil {
		h.logger.Error("Failed to send status embed", "error", err)
	}
}

func (h *CommandHandler) cmdHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	prefix := h.cfg.Discord.CommandPrefix
	embed := &discordgo.MessageEmbed{
		Title: "Customer Analyzer Commands",
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: prefix + "analyze [days] [limit]", Value: "Analyze this channel for potential customers."},
			{Name: prefix + "analyze_all", Value: "Analyze every text channel in the server."},
			{Name: prefix + "report", Value: "Generate a report of all potential customers."},
			{Name: prefix + "status", Value: "Show which channels have been analyzed."},
		},
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		h.logger.Error("Failed to send help embed", "error", err)
	}
}

// editOrSend replaces the progress message when one was sent, otherwise
// posts the embed fresh.
func (h *CommandHandler) editOrSend(s *discordgo.Session, channelID string, progress *discordgo.Message, embed *discordgo.MessageEmbed) {
	if progress != nil {
		if _, err := s.ChannelMessageEditEmbed(channelID, progress.ID, embed); err == nil {
			return
		}
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		h.logger.Error("Failed to send embed", "error", err)
	}
}
