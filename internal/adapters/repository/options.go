package repository

import "github.com/okian/cfcoach/pkg/logger"

// CSVOption applies a configuration option to the CSVStore.
type CSVOption func(*CSVStore)

// WithCSVLogger sets the logger used to report skipped rows.
func WithCSVLogger(l logger.Logger) CSVOption {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDateLayout overrides the date column layout.
func WithDateLayout(layout string) CSVOption {
	return func(s *CSVStore) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithIDGenerator sets the run id generator used for records without an id.
func WithIDGenerator(gen func() string) SQLiteOption {
	return func(s *SQLiteStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
