package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/domain/risk"
	"github.com/optischolar/signals/pkg/logger"
)

const (
	directoryPermission = 0o750
	probabilityEpsilon  = 1e-9
)

// Run executes the complete load test.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now(), Levels: map[string]int{}}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load test",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("predictions", cfg.Predictions),
		logger.Int("students", len(cfg.StudentIDs)),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	features := NewGenerator(cfg.Seed).Features(cfg.Predictions)
	if cfg.OutputFile != "" {
		if err := saveFeatures(cfg.OutputFile, features); err != nil {
			log.Warn(ctx, "failed to save features", logger.Error(err))
		}
	}

	if err := predict(ctx, client, cfg.Workers, features, stats); err != nil {
		return stats, fmt.Errorf("risk predictions failed: %w", err)
	}
	if err := submitBatches(ctx, client, cfg, stats); err != nil {
		return stats, fmt.Errorf("batch submission failed: %w", err)
	}

	if stats.JobsQueued > 0 && cfg.Settle > 0 {
		log.Info(ctx, "waiting for batch assessments", logger.Duration("settle", cfg.Settle))
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-time.After(cfg.Settle):
		}
	}

	top, err := fetchWatchlist(ctx, client, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("watchlist retrieval failed: %w", err)
	}
	stats.WatchlistEntries = len(top)
	ranks, err := fetchRanks(ctx, client, cfg.Workers, cfg.StudentIDs)
	if err != nil {
		return stats, fmt.Errorf("rank retrieval failed: %w", err)
	}
	stats.RanksRetrieved = len(ranks)

	stats.Duration = time.Since(stats.StartTime)
	logStats(ctx, log, stats)

	if err := Verify(top, ranks); err != nil {
		return stats, err
	}
	if stats.PredictionMismatch > 0 {
		return stats, fmt.Errorf("%w: %d predictions disagree with the local classifier",
			ErrVerification, stats.PredictionMismatch)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, c *Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	_, err = c.do(req, nil, http.StatusOK)
	return err
}

type riskReply struct {
	StudentID string `json:"student_id"`
	model.RiskVerdict
}

// predict scores every feature vector remotely and checks each verdict
// against the local classifier.
func predict(ctx context.Context, c *Client, workers int, features []model.FeatureVector, stats *Stats) error {
	classifier := risk.NewClassifier()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range features {
		g.Go(func() error {
			var reply riskReply
			body := map[string]any{"student_id": fmt.Sprintf("LOAD-%06d", i), "features": f}
			_, err := c.post(gctx, "/v1/risk", body, &reply, http.StatusOK)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			stats.Predictions++
			if err != nil {
				stats.PredictionsFailed++
				return nil
			}
			stats.Levels[string(reply.RiskLevel)]++
			want := classifier.Predict(f)
			if want.RiskLevel != reply.RiskLevel || math.Abs(want.Probability-reply.Probability) > probabilityEpsilon {
				stats.PredictionMismatch++
			}
			return nil
		})
	}
	return g.Wait()
}

type batchReply struct {
	BatchID   string `json:"batch_id"`
	Accepted  int    `json:"accepted"`
	Duplicate bool   `json:"duplicate"`
}

// submitBatches queues the configured students in chunks of BatchSize.
func submitBatches(ctx context.Context, c *Client, cfg *Config, stats *Stats) error {
	for start := 0; start < len(cfg.StudentIDs); start += cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+cfg.BatchSize, len(cfg.StudentIDs))
		body := map[string]any{"batch_id": uuid.NewString(), "student_ids": cfg.StudentIDs[start:end]}

		var reply batchReply
		code, err := c.post(ctx, "/v1/assessments/batch", body, &reply, http.StatusAccepted, http.StatusOK)
		switch {
		case code == http.StatusTooManyRequests:
			stats.BatchesRejected++
		case err != nil:
			stats.BatchesFailed++
		case reply.Duplicate:
			stats.BatchesDuplicate++
		default:
			stats.BatchesAccepted++
			stats.JobsQueued += reply.Accepted
		}
	}
	return nil
}

func fetchWatchlist(ctx context.Context, c *Client, n int) ([]model.WatchlistEntry, error) {
	var entries []model.WatchlistEntry
	if err := c.get(ctx, fmt.Sprintf("/v1/watchlist?limit=%d", n), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// fetchRanks looks up each student's watchlist entry. Students that were
// never assessed are skipped.
func fetchRanks(ctx context.Context, c *Client, workers int, ids []string) (map[string]model.WatchlistEntry, error) {
	out := make(map[string]model.WatchlistEntry, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			var entry model.WatchlistEntry
			err := c.get(gctx, "/v1/watchlist/"+id, &entry)
			var status *StatusError
			switch {
			case errors.As(err, &status) && status.Code == http.StatusNotFound:
				return nil
			case err != nil:
				return fmt.Errorf("rank of %s: %w", id, err)
			}
			mu.Lock()
			out[id] = entry
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func saveFeatures(filename string, features []model.FeatureVector) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	return os.WriteFile(filename, data, 0o600)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Predictions) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("predictions", stats.Predictions),
		logger.Int("predictions_failed", stats.PredictionsFailed),
		logger.Int("prediction_mismatch", stats.PredictionMismatch),
		logger.Any("levels", stats.Levels),
		logger.Int("batches_accepted", stats.BatchesAccepted),
		logger.Int("batches_duplicate", stats.BatchesDuplicate),
		logger.Int("batches_rejected", stats.BatchesRejected),
		logger.Int("batches_failed", stats.BatchesFailed),
		logger.Int("jobs_queued", stats.JobsQueued),
		logger.Int("watchlist_entries", stats.WatchlistEntries),
		logger.Int("ranks_retrieved", stats.RanksRetrieved),
		logger.Duration("duration", stats.Duration),
		logger.Float64("predictions_per_second", perSecond),
	)
}
