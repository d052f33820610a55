package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/optischolar/signals/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.HistoryDriver, convey.ShouldEqual, "memory")
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.AnomalyThreshold, convey.ShouldEqual, 2.5)
			convey.So(cfg.CorrelationModerate, convey.ShouldBeLessThan, cfg.CorrelationCritical)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
