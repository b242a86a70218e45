package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/database"
)

const (
	colorBlue   = 0x3498DB
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
	colorGold   = 0xF1C40F
	colorOrange = 0xE67E22
)

func channelMention(channelID string) string {
	return "<#" + channelID + ">"
}

func startEmbed(channelID string, days, limit int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔍 Channel Analysis Started",
		Description: fmt.Sprintf("Analyzing %s for potential customers...", channelMention(channelID)),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Time Range", Value: fmt.Sprintf("Last %d days", days), Inline: true},
			{Name: "Message Limit", Value: fmt.Sprintf("%d messages", limit), Inline: true},
		},
	}
}

func busyEmbed(channelID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏳ Analysis Already Running",
		Description: fmt.Sprintf("An analysis of %s is already in progress. Try again when it finishes.", channelMention(channelID)),
		Color:       colorOrange,
	}
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ " + title,
		Description: description,
		Color:       colorRed,
	}
}

func resultEmbed(channelID string, result *analyzer.RunResult) *discordgo.MessageEmbed {
	if result.Status == analyzer.StatusNoMessages {
		return &discordgo.MessageEmbed{
			Title:       "📊 Channel Analysis Complete",
			Description: fmt.Sprintf("No messages found in %s", channelMention(channelID)),
			Color:       colorOrange,
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Channel Analysis Complete",
		Description: fmt.Sprintf("Analysis of %s", channelMention(channelID)),
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📝 Summary", Value: result.Summary},
			{Name: "📊 Messages Analyzed", Value: fmt.Sprintf("%d", result.TotalMessagesAnalyzed), Inline: true},
			{Name: "🎯 Potential Customers", Value: fmt.Sprintf("%d", len(result.Candidates)), Inline: true},
		},
	}

	if len(result.Candidates) > 0 {
		top := result.Candidates
		if len(top) > 3 {
			top = top[:3]
		}
		lines := make([]string, 0, len(top))
		for i, c := range top {
			lines = append(lines, fmt.Sprintf("**%d. %s** (Score: %.2f)", i+1, c.Username, c.Score))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🌟 Top Prospects",
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

func customerDetailsEmbed(candidates []analyzer.CandidateResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎯 Top Potential Customers",
		Description: "Based on message analysis, here are the most promising leads:",
		Color:       colorGreen,
	}

	for i, c := range candidates {
		if i >= 5 {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("%d. %s (Score: %.2f)", i+1, c.Username, c.Score),
			Value: fmt.Sprintf("**Pain Points:** %s\n**Interests:** %s\n**Messages:** %d",
				joinOrNone(c.PainPoints, 3), joinOrNone(c.Interests, 3), c.MessageCount),
		})
	}

	return embed
}

func sweepStartEmbed(total int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔍 Server-Wide Analysis",
		Description: fmt.Sprintf("Starting analysis of %d text channels...", total),
		Color:       colorBlue,
	}
}

func sweepDoneEmbed(analyzed, total int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Server Analysis Complete",
		Description: fmt.Sprintf("Analyzed %d/%d channels successfully.", analyzed, total),
		Color:       colorGreen,
	}
}

func reportEmbed(report *analyzer.ReportResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📊 Customer Analysis Report",
		Description: fmt.Sprintf("Generated on %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")),
		Color:       colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Potential Customers", Value: fmt.Sprintf("%d", report.TotalCustomers), Inline: true},
			{Name: "High Priority Leads", Value: fmt.Sprintf("%d", report.HighPriorityCount), Inline: true},
			{Name: "Messages Analyzed", Value: fmt.Sprintf("%d", report.TotalMessages), Inline: true},
		},
	}

	if len(report.TopPainPoints) > 0 {
		top := report.TopPainPoints
		if len(top) > 5 {
			top = top[:5]
		}
		lines := make([]string, 0, len(top))
		for _, pp := range top {
			lines = append(lines, fmt.Sprintf("• %s (%d mentions)", pp.PainPoint, pp.Count))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Top Pain Points",
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

func statusEmbed(channels []database.Channel) *discordgo.MessageEmbed {
	analyzed := 0
	var mostRecent time.Time
	for _, ch := range channels {
		if ch.LastAnalyzed.Valid {
			analyzed++
			if ch.LastAnalyzed.Time.After(mostRecent) {
				mostRecent = ch.LastAnalyzed.Time
			}
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📊 Analysis Status",
		Description: "Channel analysis information:",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channels Analyzed", Value: fmt.Sprintf("%d/%d", analyzed, len(channels)), Inline: true},
		},
	}
	if !mostRecent.IsZero() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Most Recent Analysis",
			Value:  mostRecent.Format("2006-01-02 15:04 UTC"),
			Inline: true,
		})
	}
	return embed
}

func joinOrNone(values []string, n int) string {
	if len(values) == 0 {
		return "none identified"
	}
	if len(values) > n {
		values = values[:n]
	}
	return strings.Join(values, ", ")
}
