package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/cfcoach/internal/domain/report"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

// CSV layout of the progress log.
const (
	csvSlots       = report.RecordSlots
	csvColumns     = 1 + 2*csvSlots + 1
	problemSep     = "|"
	defaultDateFmt = "2006-01-02"
	backendCSV     = "csv"
)

// CSVHeader is the first row of every progress log.
var CSVHeader = []string{
	"date",
	"weak_tag1", "weak_tag2", "weak_tag3",
	"accuracy1", "accuracy2", "accuracy3",
	"recommended_problems",
}

// CSVStore appends one row per run to progress_{handle}.csv in a directory.
type CSVStore struct {
	mu         sync.Mutex
	dir        string
	dateLayout string
	logger     logger.Logger
}

// NewCSVStore creates dir if needed and returns a store writing into it.
func NewCSVStore(dir string, opts ...CSVOption) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrStorage, dir, err)
	}
	s := &CSVStore{
		dir:        dir,
		dateLayout: defaultDateFmt,
		logger:     logger.Get().Named("csvstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the progress log path of handle.
func (s *CSVStore) Path(handle string) string {
	return filepath.Join(s.dir, "progress_"+handle+".csv")
}

// Append implements Store. The header is written when the file is new.
func (s *CSVStore) Append(ctx context.Context, rec Record) error {
	if rec.Handle == "" {
		return fmt.Errorf("%w: empty handle", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(rec.Handle), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		metrics.RecordStoreError(backendCSV)
		return fmt.Errorf("%w: open progress log: %w", ErrStorage, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		metrics.RecordStoreError(backendCSV)
		return fmt.Errorf("%w: stat progress log: %w", ErrStorage, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			metrics.RecordStoreError(backendCSV)
			return fmt.Errorf("%w: write header: %w", ErrStorage, err)
		}
	}
	if err := w.Write(s.encode(rec)); err != nil {
		metrics.RecordStoreError(backendCSV)
		return fmt.Errorf("%w: write row: %w", ErrStorage, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		metrics.RecordStoreError(backendCSV)
		return fmt.Errorf("%w: flush: %w", ErrStorage, err)
	}
	s.logger.Debug(ctx, "progress row appended", logger.String("handle", rec.Handle))
	return nil
}

// History implements Store. Malformed rows are skipped.
func (s *CSVStore) History(ctx context.Context, handle string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path(handle))
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		metrics.RecordStoreError(backendCSV)
		return nil, fmt.Errorf("%w: open progress log: %w", ErrStorage, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	out := []Record{}
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordStoreError(backendCSV)
			return nil, fmt.Errorf("%w: read progress log: %w", ErrStorage, err)
		}
		if line == 1 && len(row) > 0 && row[0] == CSVHeader[0] {
			continue
		}
		rec, err := s.decode(handle, row)
		if err != nil {
			s.logger.Warn(ctx, "skipping malformed progress row",
				logger.Int("line", line),
				logger.Error(err),
			)
			continue
		}
		out = append(out, rec)
	}
	return tail(out, limit), nil
}

// Close implements Store.
func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) encode(rec Record) []string {
	row := make([]string, csvColumns)
	row[0] = rec.Date.Format(s.dateLayout)
	for i := 0; i < csvSlots; i++ {
		if i < len(rec.WeakTopics) {
			row[1+i] = rec.WeakTopics[i]
		}
		if i < len(rec.Accuracies) && i < len(rec.WeakTopics) {
			row[1+csvSlots+i] = report.FormatAccuracy(rec.Accuracies[i])
		}
	}
	row[csvColumns-1] = strings.Join(rec.Problems, problemSep)
	return row
}

func (s *CSVStore) decode(handle string, row []string) (Record, error) {
	if len(row) != csvColumns {
		return Record{}, fmt.Errorf("%w: want %d columns, got %d", ErrInvalidRecord, csvColumns, len(row))
	}
	date, err := time.Parse(s.dateLayout, row[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: date: %w", ErrInvalidRecord, err)
	}
	rec := Record{Handle: handle, Date: date, WeakTopics: []string{}, Accuracies: []float64{}, Problems: []string{}}
	for i := 0; i < csvSlots; i++ {
		topic := row[1+i]
		if topic == "" {
			break
		}
		acc, err := ParseAccuracy(row[1+csvSlots+i])
		if err != nil {
			return Record{}, fmt.Errorf("%w: accuracy%d: %w", ErrInvalidRecord, i+1, err)
		}
		rec.WeakTopics = append(rec.WeakTopics, topic)
		rec.Accuracies = append(rec.Accuracies, acc)
	}
	if p := row[csvColumns-1]; p != "" {
		rec.Problems = strings.Split(p, problemSep)
	}
	return rec, nil
}

// ParseAccuracy reads an "X.X%" cell.
func ParseAccuracy(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(cell), "%"), 64)
}
