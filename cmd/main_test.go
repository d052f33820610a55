package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/optischolar/signals/internal/adapters/cache"
	"github.com/optischolar/signals/internal/adapters/repository"
	"github.com/optischolar/signals/internal/config"
	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/internal/fixtures"
	"github.com/optischolar/signals/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("SIGNALS_ADDR", ":8080")
		_ = os.Setenv("SIGNALS_QUEUE_SIZE", "1000")
		_ = os.Setenv("SIGNALS_WORKER_COUNT", "4")
		defer func() {
			_ = os.Unsetenv("SIGNALS_ADDR")
			_ = os.Unsetenv("SIGNALS_QUEUE_SIZE")
			_ = os.Unsetenv("SIGNALS_WORKER_COUNT")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty address", t, func() {
		_ = os.Setenv("SIGNALS_ADDR", "")
		defer func() { _ = os.Unsetenv("SIGNALS_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the default configuration over the demo store", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 2

		store, err := repository.Open(ctx, repository.DriverMemory, "", "")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		convey.Convey("When no Redis address is configured", func() {
			c, closeCache := newCache(ctx, cfg, logger.Get())
			defer closeCache()

			convey.Convey("Then caching should be disabled", func() {
				convey.So(c, convey.ShouldHaveSameTypeAs, cache.Noop{})
			})
		})

		convey.Convey("When Redis is unreachable", func() {
			cfg.RedisAddr = "127.0.0.1:1"
			c, closeCache := newCache(ctx, cfg, logger.Get())
			defer closeCache()

			convey.Convey("Then startup should fall back to no cache", func() {
				convey.So(c, convey.ShouldHaveSameTypeAs, cache.Noop{})
			})
		})

		convey.Convey("When the service is built from the configuration", func() {
			svc := newService(cfg, store, cache.Noop{}, logger.Get())
			v, err := svc.PredictRisk(ctx, fixtures.AtRiskStudent, nil)

			convey.Convey("Then it should read through the history source", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(v.RiskLevel, convey.ShouldEqual, model.RiskLow)
			})

			convey.Convey("Then the handler should serve the API and the docs", func() {
				h := newHandler(ctx, cfg, svc, logger.Get())
				for _, path := range []string{"/v1/watchlist", "/stats", "/api-docs", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.Convey("Then a system metrics update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the updaters should return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			store, err := repository.Open(ctx, repository.DriverMemory, "", "")
			convey.So(err, convey.ShouldBeNil)
			svc := newService(config.New(ctx), store, cache.Noop{}, logger.Get())

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})
	})
}
