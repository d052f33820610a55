package watchlist

import "errors"

// Sentinel errors returned by the watchlist.
var (
	ErrNotFound           = errors.New("student not on watchlist")
	ErrInvalidLimit       = errors.New("invalid watchlist limit")
	ErrInvalidProbability = errors.New("probability must be within [0,1]")
)
