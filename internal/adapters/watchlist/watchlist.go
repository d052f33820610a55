// Package watchlist keeps every assessed student ordered by their latest
// dropout-risk probability.
package watchlist

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/optischolar/signals/internal/domain/model"
	"github.com/optischolar/signals/pkg/metrics"
)

type record struct {
	probability float64
	level       model.RiskLevel
	updatedAt   time.Time
}

// Watchlist is an in-memory ranking of students by risk. Students with the
// same probability share a rank and the next probability takes the next rank.
type Watchlist struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	now  func() time.Time
}

// New creates an empty watchlist.
func New(opts ...Option) *Watchlist {
	w := &Watchlist{
		byID: make(map[string]record),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Upsert records a student's latest probability, replacing any earlier one.
func (w *Watchlist) Upsert(_ context.Context, studentID string, probability float64, level model.RiskLevel) error {
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return ErrInvalidProbability
	}

	w.mu.Lock()
	if old, ok := w.byID[studentID]; ok {
		w.root = remove(w.root, studentID, old.probability)
	}
	w.byID[studentID] = record{probability: probability, level: level, updatedAt: w.now()}
	w.root = insert(w.root, studentID, probability)
	count := len(w.byID)
	w.mu.Unlock()

	metrics.RecordWatchlistUpdate()
	metrics.UpdateWatchlistSize(count)
	return nil
}

// Rank returns a student's current position.
func (w *Watchlist) Rank(_ context.Context, studentID string) (model.WatchlistEntry, error) {
	defer observe(time.Now())

	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.byID[studentID]; !ok {
		return model.WatchlistEntry{}, ErrNotFound
	}
	var found model.WatchlistEntry
	w.collect(func(e model.WatchlistEntry) bool {
		if e.StudentID != studentID {
			return true
		}
		found = e
		return false
	})
	return found, nil
}

// TopN returns the n most at-risk students.
func (w *Watchlist) TopN(_ context.Context, n int) ([]model.WatchlistEntry, error) {
	defer observe(time.Now())

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.WatchlistEntry, 0, min(n, len(w.byID)))
	w.collect(func(e model.WatchlistEntry) bool {
		out = append(out, e)
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of students on the watchlist.
func (w *Watchlist) Count(_ context.Context) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.byID)
}

// collect walks the treap in rank order assigning dense ranks.
// Callers hold at least the read lock.
func (w *Watchlist) collect(visit func(model.WatchlistEntry) bool) {
	rank := 0
	prev := math.Inf(1)
	walk(w.root, func(n *node) bool {
		if n.probability != prev {
			rank++
			prev = n.probability
		}
		rec := w.byID[n.id]
		return visit(model.WatchlistEntry{
			StudentID:   n.id,
			Probability: n.probability,
			RiskLevel:   rec.level,
			Rank:        rank,
			UpdatedAt:   rec.updatedAt,
		})
	})
}

func observe(start time.Time) {
	metrics.RecordWatchlistQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
