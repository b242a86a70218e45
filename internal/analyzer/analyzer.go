package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mveiga/prospector/internal/config"
	"github.com/mveiga/prospector/internal/database"
)

// ErrAnalysisInProgress is returned when a channel analysis is requested
// while another run for the same channel has not finished. The guard is
// in-process; the design assumes a single analyzer process per database.
var ErrAnalysisInProgress = errors.New("analysis already in progress for this channel")

// ModelClient is the language-model invocation seam. Implementations own
// transport, auth, and transient retries; the pipeline treats any error as
// a skippable batch failure.
type ModelClient interface {
	AnalyzeBatch(ctx context.Context, prompt string) (string, error)
}

// Analyzer runs the channel analysis pipeline end to end: batch, prompt,
// invoke, parse, persist, aggregate, merge, snapshot. Batches within one run
// are processed strictly sequentially with a rate-limit pause between model
// calls; separate channels may run concurrently.
type Analyzer struct {
	store   database.Store
	model   ModelClient
	counter TokenCounter
	cfg     config.AnalysisConfig
	merge   *MergeEngine
	logger  *slog.Logger

	mu         sync.Mutex
	inProgress map[int64]struct{}
}

// New creates an Analyzer with the given collaborators.
func New(store database.Store, model ModelClient, counter TokenCounter, cfg config.AnalysisConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:      store,
		model:      model,
		counter:    counter,
		cfg:        cfg,
		merge:      NewMergeEngine(store, logger),
		logger:     logger.With("component", "analyzer"),
		inProgress: make(map[int64]struct{}),
	}
}

func (a *Analyzer) acquireChannel(channelID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inProgress[channelID]; busy {
		return false
	}
	a.inProgress[channelID] = struct{}{}
	return true
}

func (a *Analyzer) releaseChannel(channelID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inProgress, channelID)
}

// AnalyzeChannel analyzes all stored messages of a channel that have no
// analysis yet, merges the results into customer profiles, and appends a
// snapshot of the run. A failed batch is logged and absent from the run's
// aggregate; the run continues with the remaining batches. If the context
// is cancelled mid-run, per-message records already persisted stay
// persisted and no profiles are merged.
func (a *Analyzer) AnalyzeChannel(ctx context.Context, channelID int64) (*RunResult, error) {
	if !a.acquireChannel(channelID) {
		return nil, ErrAnalysisInProgress
	}
	defer a.releaseChannel(channelID)

	log := a.logger.With("channel_id", channelID)
	startTime := time.Now()

	messages, err := a.store.GetMessagesInChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel messages: %w", err)
	}
	if len(messages) == 0 {
		log.InfoContext(ctx, "No messages stored for channel")
		return &RunResult{Status: StatusNoMessages, Summary: noCustomersSummary}, nil
	}

	analyzed, err := a.store.GetAnalyzedMessageIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyzed message IDs: %w", err)
	}

	pending := make([]database.Message, 0, len(messages))
	for _, msg := range messages {
		if _, done := analyzed[msg.ID]; done {
			continue
		}
		pending = append(pending, msg)
	}
	log.InfoContext(ctx, "Analyzing channel messages",
		"total", len(messages), "already_analyzed", len(analyzed), "pending", len(pending))

	batches := BatchMessages(pending, a.cfg.MaxBatchTokens, a.counter)

	result := &RunResult{Status: StatusSuccess}
	var allRecords []MessageIntent
	authorIDs := make(map[string]string)
	for _, msg := range messages {
		if _, ok := authorIDs[msg.AuthorName]; !ok {
			authorIDs[msg.AuthorName] = msg.AuthorID
		}
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.InfoContext(ctx, "Processing batch", "batch", i+1, "batches", len(batches), "messages", len(batch))

		records, err := a.analyzeBatch(ctx, batch)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.ErrorContext(ctx, "Batch analysis failed, skipping batch", "batch", i+1, "error", err)
			result.BatchesFailed++
		} else {
			allRecords = append(allRecords, records...)
			result.BatchesProcessed++
		}

		if i < len(batches)-1 && a.cfg.RateLimitDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.cfg.RateLimitDelay):
			}
		}
	}

	aggregates := AggregateByAuthor(allRecords)
	for _, agg := range aggregates {
		agg.AuthorID = authorIDs[agg.Author]
	}

	candidates := SelectCandidates(aggregates)
	now := time.Now().UTC()
	a.merge.MergeAll(ctx, aggregates, now)

	result.TotalMessagesAnalyzed = len(allRecords)
	result.Candidates = candidates
	result.Summary = Summarize(candidates)

	if err := a.recordChannelAnalysis(ctx, channelID, result); err != nil {
		log.ErrorContext(ctx, "Failed to record channel analysis snapshot", "error", err)
	}
	if err := a.store.SetChannelAnalyzed(ctx, channelID, now); err != nil {
		log.ErrorContext(ctx, "Failed to update channel last_analyzed", "error", err)
	}

	log.InfoContext(ctx, "Channel analysis completed",
		"records", len(allRecords),
		"candidates", len(candidates),
		"batches_failed", result.BatchesFailed,
		"duration", time.Since(startTime))

	return result, nil
}

// analyzeBatch runs the prompt-invoke-parse-persist step for one batch.
func (a *Analyzer) analyzeBatch(ctx context.Context, batch []database.Message) ([]MessageIntent, error) {
	prompt, err := BuildAnalysisPrompt(batch, a.cfg.Keywords)
	if err != nil {
		return nil, err
	}

	raw, err := a.model.AnalyzeBatch(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	records, err := ParseAnalysisResponse(raw, batch)
	if err != nil {
		return nil, fmt.Errorf("response parse failed: %w", err)
	}

	for _, record := range records {
		res, err := a.store.SaveMessageAnalysis(ctx, &database.MessageAnalysis{
			MessageID:   record.MessageID,
			IntentScore: record.IntentScore,
			IntentType:  record.IntentType,
			PainPoints:  record.PainPoints,
			Interests:   record.Interests,
			Keywords:    record.Keywords,
			Insights:    record.Explanation,
		})
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to save message analysis",
				"message_id", record.MessageID, "error", err)
			continue
		}
		if res.AlreadyExists {
			a.logger.DebugContext(ctx, "Message already has an analysis, keeping existing row",
				"message_id", record.MessageID)
		}
	}

	return records, nil
}

// recordChannelAnalysis appends an immutable snapshot of the run: summary
// text plus the top-5 candidates by score.
func (a *Analyzer) recordChannelAnalysis(ctx context.Context, channelID int64, result *RunResult) error {
	insights := ChannelInsights{
		PotentialCustomersCount: len(result.Candidates),
		MessagesAnalyzed:        result.TotalMessagesAnalyzed,
		TopCustomers:            []TopCustomer{},
	}
	for i, candidate := range result.Candidates {
		if i >= 5 {
			break
		}
		insights.TopCustomers = append(insights.TopCustomers, TopCustomer{
			Username: candidate.Username,
			Score:    candidate.Score,
		})
	}

	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	return a.store.SaveChannelAnalysis(ctx, &database.ChannelAnalysis{
		ChannelID:    channelID,
		AnalysisType: "customer_intent",
		Summary:      result.Summary,
		Insights:     string(insightsJSON),
	})
}

// GenerateReport loads all customer profiles and computes the
// cross-customer report.
func (a *Analyzer) GenerateReport(ctx context.Context) (*ReportResult, error) {
	customers, err := a.store.GetAllCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	return GenerateReport(customers), nil
}

const noCustomersSummary = "No potential customers identified in this analysis."

// Summarize produces the human-readable one-line summary of a run.
func Summarize(candidates []CandidateResult) string {
	if len(candidates) == 0 {
		return noCustomersSummary
	}

	painPointCounts := make(map[string]int)
	var order []string
	highCount := 0
	for _, candidate := range candidates {
		if candidate.EngagementLevel == database.EngagementHigh {
			highCount++
		}
		for _, painPoint := range candidate.PainPoints {
			if _, ok := painPointCounts[painPoint]; !ok {
				order = append(order, painPoint)
			}
			painPointCounts[painPoint]++
		}
	}

	sorted := append([]string(nil), order...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return painPointCounts[sorted[i]] > painPointCounts[sorted[j]]
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	return fmt.Sprintf("Identified %d potential customers. Top pain points: %s. High engagement users: %d",
		len(candidates), strings.Join(sorted, ", "), highCount)
}
