package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mveiga/prospector/internal/analyzer"
)

// newAnalysisSweepTask creates a scheduled task that re-runs intent analysis
// over every known channel. Only messages already stored are considered;
// history fetching stays a command-driven operation.
func newAnalysisSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "analysis_sweep")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled analysis sweep...")
		startTime := time.Now()

		sweepTimeout := 30 * time.Minute
		timeoutCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()

		channels, err := deps.Store.GetChannels(timeoutCtx, "")
		if err != nil {
			log.ErrorContext(ctx, "Failed to list channels", "error", err)
			return fmt.Errorf("failed to list channels: %w", err)
		}

		if len(channels) == 0 {
			log.InfoContext(ctx, "No channels stored, nothing to sweep")
			return nil
		}

		var analyzed, skipped, failed int
		for _, channel := range channels {
			if err := timeoutCtx.Err(); err != nil {
				log.WarnContext(ctx, "Sweep cancelled or timed out",
					"error", err, "analyzed", analyzed, "total", len(channels))
				return err
			}

			result, err := deps.Analyzer.AnalyzeChannel(timeoutCtx, channel.ID)
			switch {
			case errors.Is(err, analyzer.ErrAnalysisInProgress):
				log.InfoContext(ctx, "Channel analysis already running, skipping",
					"channel", channel.Name)
				skipped++
			case err != nil:
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.ErrorContext(ctx, "Channel analysis failed during sweep",
					"channel", channel.Name, "error", err)
				failed++
			default:
				log.InfoContext(ctx, "Channel swept",
					"channel", channel.Name,
					"status", result.Status,
					"candidates", len(result.Candidates))
				analyzed++
			}
		}

		log.InfoContext(ctx, "Scheduled analysis sweep completed",
			"analyzed", analyzed,
			"skipped", skipped,
			"failed", failed,
			"duration", time.Since(startTime))

		if failed > 0 && analyzed == 0 {
			return fmt.Errorf("analysis sweep failed for all %d channels", failed)
		}
		return nil
	}
}
