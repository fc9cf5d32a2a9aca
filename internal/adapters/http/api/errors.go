package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("run already pending")
	ErrUpstream     = errors.New("upstream unavailable")
)

// Kind maps an error class to an HTTP status and a machine-readable code.
type Kind struct {
	Status int
	Code   string
	err    error
}

// NewKind creates a Kind whose sentinel is err.
func NewKind(status int, code string, err error) *Kind {
	return &Kind{Status: status, Code: code, err: err}
}

// Error implements error.
func (k *Kind) Error() string { return k.err.Error() }

// Unwrap exposes the sentinel so errors.Is keeps working.
func (k *Kind) Unwrap() error { return k.err }

// Predefined kinds.
var (
	KindBadRequest   = NewKind(http.StatusBadRequest, "bad_request", ErrBadRequest)
	KindNotFound     = NewKind(http.StatusNotFound, "not_found", ErrNotFound)
	KindBackpressure = NewKind(http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	KindUpstream     = NewKind(http.StatusBadGateway, "upstream_error", ErrUpstream)
)

type kindError struct {
	kind *Kind
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.err.Error())
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Wrap annotates err with msg, keeping it matchable with errors.Is.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapKind tags err with kind so writeError picks the right status.
func WrapKind(kind *Kind, err error) error {
	return &kindError{kind: kind, err: err}
}

// kindOf returns the Kind attached to err, or nil.
func kindOf(err error) *Kind {
	var k *Kind
	if errors.As(err, &k) {
		return k
	}
	return nil
}
