package watchlist

import "time"

// Option configures a Watchlist.
type Option func(*Watchlist)

// WithClock sets the time source used to stamp updates.
func WithClock(now func() time.Time) Option {
	return func(w *Watchlist) {
		if now != nil {
			w.now = now
		}
	}
}
