// Package model contains the records exchanged between the analyzers, the
// history source and the HTTP layer.
package model

// Status tells the caller which case produced a verdict.
type Status string

const (
	// StatusOK means every statistic was computed from the supplied data.
	StatusOK Status = "ok"
	// StatusInsufficientData means the input was below the analyzer's minimum
	// size and the verdict holds neutral defaults.
	StatusInsufficientData Status = "insufficient_data"
	// StatusDegenerateInput means the input had no usable spread and a nominal
	// substitute was used (for example a clamped standard deviation).
	StatusDegenerateInput Status = "degenerate_input"
)
