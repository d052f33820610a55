package repository

import "errors"

// Sentinel errors returned by history sources.
var (
	ErrNotFound      = errors.New("history not found")
	ErrUnknownDriver = errors.New("unknown history driver")
	ErrInvalidRecord = errors.New("invalid history record")
)
