package repository

import (
	"context"
	"errors"
)

// Multi writes to every store and reads from the first one.
type Multi struct {
	stores []Store
}

// NewMulti combines stores; nil entries are ignored.
func NewMulti(stores ...Store) *Multi {
	m := &Multi{}
	for _, s := range stores {
		if s != nil {
			m.stores = append(m.stores, s)
		}
	}
	return m
}

// Append implements Store. Every store is attempted; failures are joined.
func (m *Multi) Append(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// History implements Store.
func (m *Multi) History(ctx context.Context, handle string, limit int) ([]Record, error) {
	if len(m.stores) == 0 {
		return []Record{}, nil
	}
	return m.stores[0].History(ctx, handle, limit)
}

// Close implements Store.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
