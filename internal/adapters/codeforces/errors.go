package codeforces

import "errors"

// Sentinel error kinds. Every error returned by Client wraps ErrUpstream so
// callers can treat any fetch failure as fatal for the run.
var (
	ErrUpstream    = errors.New("codeforces upstream failure")
	ErrStatus      = errors.New("codeforces returned a non-OK status")
	ErrDecode      = errors.New("codeforces response could not be decoded")
	ErrCircuitOpen = errors.New("codeforces circuit breaker open")
)
