package api

import (
	"time"

	"github.com/optischolar/signals/pkg/logger"
)

// DefaultMaxWatchlistLimit caps GET /v1/watchlist?limit when not configured.
const DefaultMaxWatchlistLimit = 100

// Option configures a Server.
type Option func(*Server)

// WithMaxWatchlistLimit caps the watchlist page size.
func WithMaxWatchlistLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithLogger sets the server's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
