package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotConfigured = errors.New("service not configured")
	ErrNotStarted    = errors.New("service not started")
	ErrFetch         = errors.New("fetch failed")
)
