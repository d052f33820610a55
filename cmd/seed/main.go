// Command seed loads the demo students and cohorts into the configured
// history store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/optischolar/signals/internal/adapters/repository"
	"github.com/optischolar/signals/internal/config"
	"github.com/optischolar/signals/internal/fixtures"
	"github.com/optischolar/signals/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("seed")

	if cfg.HistoryDriver == repository.DriverMemory {
		log.Warn(ctx, "history_driver is memory; nothing to seed")
		return
	}

	store, err := repository.Open(ctx, cfg.HistoryDriver, cfg.HistoryDSN, cfg.HistoryDatabase)
	if err != nil {
		log.Error(ctx, "failed to open history store", logger.Error(err))
		stop()
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if err := repository.Seed(ctx, store); err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		_ = store.Close()
		stop()
		os.Exit(1)
	}

	log.Info(ctx, "history store seeded",
		logger.String("driver", cfg.HistoryDriver),
		logger.Int("students", len(fixtures.Students())),
		logger.Int("cohorts", len(fixtures.Cohorts())),
	)
}
