package loadtest

import (
	"errors"
	"fmt"

	"github.com/optischolar/signals/internal/domain/model"
)

// ErrVerification marks an inconsistent watchlist or prediction.
var ErrVerification = errors.New("verification failed")

// Verify checks that top is ordered by probability with dense ranks, and
// that every per-student lookup agrees with the top list.
func Verify(top []model.WatchlistEntry, ranks map[string]model.WatchlistEntry) error {
	var errs []error
	for i, e := range top {
		if i == 0 {
			if e.Rank != 1 {
				errs = append(errs, fmt.Errorf("first entry %s has rank %d", e.StudentID, e.Rank))
			}
			continue
		}
		prev := top[i-1]
		switch {
		case e.Probability > prev.Probability:
			errs = append(errs, fmt.Errorf("entry %d (%s) outranks entry %d (%s)", i, e.StudentID, i-1, prev.StudentID))
		case e.Probability == prev.Probability && e.Rank != prev.Rank:
			errs = append(errs, fmt.Errorf("tied entries %s and %s have different ranks", prev.StudentID, e.StudentID))
		case e.Probability < prev.Probability && e.Rank != prev.Rank+1:
			errs = append(errs, fmt.Errorf("entry %s has rank %d after rank %d", e.StudentID, e.Rank, prev.Rank))
		}
	}

	for _, e := range top {
		got, ok := ranks[e.StudentID]
		if !ok {
			continue
		}
		if got.Rank != e.Rank || got.Probability != e.Probability {
			errs = append(errs, fmt.Errorf("lookup of %s disagrees with the watchlist: rank %d vs %d",
				e.StudentID, got.Rank, e.Rank))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
}
