package queue

import "errors"

// Sentinel errors returned by Offer.
var (
	ErrFull   = errors.New("run already pending")
	ErrClosed = errors.New("queue closed")
)
