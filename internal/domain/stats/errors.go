package stats

import "errors"

var (
	// ErrTooFewSamples is returned when a test needs more observations than supplied.
	ErrTooFewSamples = errors.New("too few samples")
	// ErrZeroRange is returned when every observation is identical.
	ErrZeroRange = errors.New("observations have zero range")
)
