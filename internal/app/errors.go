package service

import "errors"

// Sentinel errors returned by the service.
var (
	// ErrBackpressure means the batch queue is full; retry later.
	ErrBackpressure = errors.New("assessment queue is full")
	// ErrQueueClosed means the service is shutting down.
	ErrQueueClosed = errors.New("assessment queue is closed")
	// ErrSource wraps history source failures other than not-found.
	ErrSource = errors.New("history source failure")
	// ErrInvalidCutoffs means correlation cutoffs are not 0 < moderate < critical <= 1.
	ErrInvalidCutoffs = errors.New("invalid correlation cutoffs")
	// ErrNoInput means neither data nor a key to fetch it was given.
	ErrNoInput = errors.New("no input to analyze")
)
