package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/optischolar/signals/internal/fixtures"
	"github.com/optischolar/signals/internal/loadtest"
	"github.com/optischolar/signals/pkg/logger"
)

// Default configuration constants.
const (
	defaultPredictions = 10000
	defaultBatchSize   = 100
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 5 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		predictions = flag.Int("predictions", defaultPredictions, "Number of synthetic risk predictions")
		students    = flag.String("students", "", "Comma-separated student ids to batch assess (default: demo students)")
		batchSize   = flag.Int("batch", defaultBatchSize, "Students per batch request")
		topN        = flag.Int("top", defaultTopN, "Number of watchlist entries to fetch")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle      = flag.Duration("settle", defaultSettle, "Wait for batch assessments before checking the watchlist")
		seed        = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Feature generator seed")
		output      = flag.String("output", "", "Write generated features to this JSON file")
		logFormat   = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithWriter(os.Stdout, *logFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	ids := []string{fixtures.AtRiskStudent, fixtures.SteadyStudent, fixtures.NewStudent}
	if *students != "" {
		ids = strings.Split(*students, ",")
	}

	cfg := &loadtest.Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Predictions: *predictions,
		StudentIDs:  ids,
		BatchSize:   *batchSize,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		Settle:      *settle,
		Seed:        *seed,
		OutputFile:  *output,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		stop()
		cancel()
		os.Exit(1)
	}
}
