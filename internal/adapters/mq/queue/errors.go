package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrFull   = errors.New("assessment queue is full")
	ErrClosed = errors.New("assessment queue is closed")
)
