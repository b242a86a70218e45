// Package main contains the entrypoint for the customer-intent analysis bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mveiga/prospector/internal/analyzer"
	"github.com/mveiga/prospector/internal/bot"
	"github.com/mveiga/prospector/internal/bot/tasks"
	"github.com/mveiga/prospector/internal/config"
	"github.com/mveiga/prospector/internal/database"
	"github.com/mveiga/prospector/internal/discord"
	"github.com/mveiga/prospector/internal/llm"
	"github.com/mveiga/prospector/internal/logger"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// model client, analyzer, Discord bot, scheduler), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	modelClient, err := llm.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize model client", "error", err)
		return 1
	}

	counter, err := analyzer.NewTokenCounter()
	if err != nil {
		log.Error("Failed to initialize token counter", "error", err)
		return 1
	}

	an := analyzer.New(store, modelClient, counter, cfg.Analysis, log)

	discordBot, err := discord.NewBot(cfg, store, an, log)
	if err != nil {
		log.Error("Failed to create Discord bot", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Analyzer: an,
		Config:   cfg,
	}

	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	app := bot.NewBot(log, cfg, db, store, discordBot, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
