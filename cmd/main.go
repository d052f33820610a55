package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/optischolar/signals/internal/adapters/cache"
	"github.com/optischolar/signals/internal/adapters/http/api"
	"github.com/optischolar/signals/internal/adapters/http/swagger"
	"github.com/optischolar/signals/internal/adapters/repository"
	app "github.com/optischolar/signals/internal/app"
	"github.com/optischolar/signals/internal/config"
	"github.com/optischolar/signals/internal/domain/anomaly"
	"github.com/optischolar/signals/internal/domain/correlation"
	"github.com/optischolar/signals/internal/domain/distribution"
	"github.com/optischolar/signals/internal/domain/patterns"
	"github.com/optischolar/signals/pkg/logger"
	"github.com/optischolar/signals/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	redisPingTimeout          = 3 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "service failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	metrics.Configure(metricsOptions(cfg)...)

	store, err := repository.Open(ctx, cfg.HistoryDriver, cfg.HistoryDSN, cfg.HistoryDatabase)
	if err != nil {
		return fmt.Errorf("open history source: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close history source", logger.Error(err))
		}
	}()

	assessments, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	svc := newService(cfg, store, assessments, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("history_driver", cfg.HistoryDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newCache connects to Redis when configured. An unreachable Redis disables
// caching instead of failing startup.
// metricsOptions maps the metrics settings onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
	}
}

func newCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.AssessmentCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn(ctx, "redis unavailable; assessment cache disabled",
			logger.String("redis_addr", cfg.RedisAddr), logger.Error(err))
		_ = client.Close()
		return cache.Noop{}, func() {}
	}

	log.Info(ctx, "assessment cache enabled", logger.String("redis_addr", cfg.RedisAddr))
	c := cache.NewRedisCache(client, cache.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second))
	return c, func() { _ = client.Close() }
}

// newService builds the service with analyzers tuned from cfg.
func newService(cfg *config.Config, src repository.HistorySource, c cache.AssessmentCache, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log),
		app.WithSource(repository.NewInstrumented(src, time.Duration(cfg.FetchTimeoutMS)*time.Millisecond)),
		app.WithCache(c),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDetector(anomaly.NewDetector(
			anomaly.WithWindowSize(cfg.AnomalyWindowSize),
			anomaly.WithThreshold(cfg.AnomalyThreshold),
		)),
		app.WithDistributionAnalyzer(distribution.NewAnalyzer(
			distribution.WithSkewThreshold(cfg.SkewThreshold),
			distribution.WithKurtosisThreshold(cfg.KurtosisThreshold),
		)),
		app.WithCorrelationEngine(correlation.NewEngine(
			correlation.WithCutoffs(cfg.CorrelationCritical, cfg.CorrelationModerate),
		)),
		app.WithMiner(patterns.NewMiner(
			patterns.WithMinConfidence(cfg.PatternMinConfidence),
			patterns.WithMinOccurrences(cfg.PatternMinOccurrences),
		)),
	)
}

// newHandler mounts the business API and the API docs.
func newHandler(ctx context.Context, cfg *config.Config, deps api.Dependencies, log logger.Logger) http.Handler {
	server := api.NewServer(deps,
		api.WithLogger(log.Named("api")),
		api.WithMaxWatchlistLimit(cfg.MaxWatchlistLimit),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	return server.Router(func(r chi.Router) {
		swagger.Register(ctx, r)
	})
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and watchlist gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats publishes the gauges as a side effect.
			_ = svc.GetStats(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
