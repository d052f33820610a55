package config

import "errors"

// ErrInvalidConfig wraps every validation failure; ErrLoadConfig wraps
// unreadable files and environment decoding failures.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("configuration source unreadable")
)
