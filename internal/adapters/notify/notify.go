// Package notify delivers run reports to chat channels.
package notify

import (
	"context"
	"errors"

	"github.com/okian/cfcoach/internal/domain/report"
)

// Sentinel error kinds.
var (
	ErrDelivery     = errors.New("notification delivery failed")
	ErrInvalidSetup = errors.New("invalid notifier setup")
)

// Metric outcome labels.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Notifier sends a report. plotPath is the accuracy trend image; it may be
// empty or point to a file that does not exist yet, in which case no image
// is attached.
type Notifier interface {
	Notify(ctx context.Context, rep report.Report, plotPath string) error
}

// Nop discards every report.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, report.Report, string) error { return nil }

// Multi delivers to every notifier; one failing channel does not stop the others.
type Multi struct {
	notifiers []Notifier
}

// NewMulti combines notifiers; nil entries are ignored.
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of combined notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

// Notify implements Notifier. Errors are joined.
func (m *Multi) Notify(ctx context.Context, rep report.Report, plotPath string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, rep, plotPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
