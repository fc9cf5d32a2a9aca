package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrInvalidRecord = errors.New("invalid run record")
	ErrClosed        = errors.New("store closed")
	ErrStorage       = errors.New("storage failure")
)
