package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optischolar/signals/internal/adapters/cache"
	"github.com/optischolar/signals/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNoop(t *testing.T) {
	Convey("Given the no-op cache", t, func() {
		var c cache.AssessmentCache = cache.Noop{}
		ctx := context.Background()

		Convey("Then writes should succeed and reads should always miss", func() {
			So(c.Set(ctx, model.StudentAssessment{StudentID: "STU-1"}), ShouldBeNil)
			got, err := c.Get(ctx, "STU-1")
			So(err, ShouldBeNil)
			So(got, ShouldBeNil)
			So(c.Invalidate(ctx, "STU-1"), ShouldBeNil)
		})
	})
}

func TestRedisCache(t *testing.T) {
	Convey("Given a Redis cache with custom options", t, func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		Reset(func() { _ = client.Close() })
		c := cache.NewRedisCache(client, cache.WithTTL(time.Minute), cache.WithKeyPrefix("test"), cache.WithTTL(0))

		Convey("Then keys and TTL should reflect the options", func() {
			So(c.Key("STU-404"), ShouldEqual, "test:assessment:STU-404")
			So(c.TTL(), ShouldEqual, time.Minute)
		})

		Convey("When the server is unreachable", func() {
			ctx := context.Background()
			_, getErr := c.Get(ctx, "STU-404")
			setErr := c.Set(ctx, model.StudentAssessment{StudentID: "STU-404"})

			Convey("Then errors should surface instead of misses", func() {
				So(getErr, ShouldNotBeNil)
				So(setErr, ShouldNotBeNil)
				So(c.Invalidate(ctx, "STU-404"), ShouldNotBeNil)
			})
		})
	})

	Convey("Given default options", t, func() {
		c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
		So(c.TTL(), ShouldEqual, cache.DefaultTTL)
		So(c.Key("x"), ShouldEqual, "signals:assessment:x")
	})
}
