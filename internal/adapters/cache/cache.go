// Package cache stores computed student assessments for a short time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/metrics"
)

// DefaultTTL is how long an assessment stays cached.
const DefaultTTL = 15 * time.Minute

// AssessmentCache holds the latest assessment per student.
type AssessmentCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, studentID string) (*model.StudentAssessment, error)
	Set(ctx context.Context, a model.StudentAssessment) error
	Invalidate(ctx context.Context, studentID string) error
}

// Noop caches nothing.
type Noop struct{}

// Get implements AssessmentCache.
func (Noop) Get(context.Context, string) (*model.StudentAssessment, error) { return nil, nil }

// Set implements AssessmentCache.
func (Noop) Set(context.Context, model.StudentAssessment) error { return nil }

// Invalidate implements AssessmentCache.
func (Noop) Invalidate(context.Context, string) error { return nil }

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// RedisCache stores assessments as JSON strings with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps client.
func NewRedisCache(client redis.UniversalClient, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, ttl: DefaultTTL, prefix: "signals"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the Redis key for a student.
func (c *RedisCache) Key(studentID string) string {
	return fmt.Sprintf("%s:assessment:%s", c.prefix, studentID)
}

// TTL returns the configured entry lifetime.
func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}

// Get implements AssessmentCache.
func (c *RedisCache) Get(ctx context.Context, studentID string) (*model.StudentAssessment, error) {
	data, err := c.client.Get(ctx, c.Key(studentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		metrics.RecordCacheError()
		return nil, fmt.Errorf("cache get %s: %w", studentID, err)
	}
	var a model.StudentAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		metrics.RecordCacheError()
		return nil, fmt.Errorf("cache decode %s: %w", studentID, err)
	}
	metrics.RecordCacheHit()
	return &a, nil
}

// Set implements AssessmentCache.
func (c *RedisCache) Set(ctx context.Context, a model.StudentAssessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", a.StudentID, err)
	}
	if err := c.client.Set(ctx, c.Key(a.StudentID), data, c.ttl).Err(); err != nil {
		metrics.RecordCacheError()
		return fmt.Errorf("cache set %s: %w", a.StudentID, err)
	}
	return nil
}

// Invalidate implements AssessmentCache.
func (c *RedisCache) Invalidate(ctx context.Context, studentID string) error {
	if err := c.client.Del(ctx, c.Key(studentID)).Err(); err != nil {
		metrics.RecordCacheError()
		return fmt.Errorf("cache delete %s: %w", studentID, err)
	}
	return nil
}
