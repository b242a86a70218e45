// Package tasks implements scheduled background tasks for the analysis bot:
// periodic channel sweeps and database maintenance.
package tasks

import (
	"log/slog"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/config"
	"github.com/mveiga/prospector/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Analyzer *analyzer.Analyzer
	Config   *config.Config
}
