// Package csvfile implements a file-based storage.Repository that writes the
// canonical dataset as a delimited columnar file. This is the primary output
// artifact consumed by the embedding and indexing collaborators; the database
// backends exist for warehouse loading.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"tastetrend/internal/storage"
)

// Repository writes rows to a single CSV file with a header.
type Repository struct {
	f          *os.File
	w          *csv.Writer
	headerDone bool
}

// New creates (truncating) the output file. The header is written before the
// first batch of rows.
func New(path string) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("csvfile: path must not be empty")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: create %s: %w", path, err)
	}
	return &Repository{f: f, w: csv.NewWriter(f)}, nil
}

// CopyFrom appends rows to the file, emitting the header before the first
// batch. Nil cells become empty fields. Each batch is flushed, so a crash
// mid-run loses at most one batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if r.w == nil {
		return 0, fmt.Errorf("csvfile: repository is closed")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if !r.headerDone {
		if err := r.w.Write(columns); err != nil {
			return 0, fmt.Errorf("csvfile: write header: %w", err)
		}
		r.headerDone = true
	}

	var written int64
	record := make([]string, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return written, fmt.Errorf("csvfile: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = cell(v)
		}
		if err := r.w.Write(record); err != nil {
			return written, fmt.Errorf("csvfile: write row: %w", err)
		}
		written++
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return written, fmt.Errorf("csvfile: flush: %w", err)
	}
	return written, nil
}

// Exec is a no-op; a flat file has no DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error { return nil }

// Close flushes and closes the file.
func (r *Repository) Close() {
	if r.w != nil {
		r.w.Flush()
		r.w = nil
	}
	if r.f != nil {
		r.f.Close()
		r.f = nil
	}
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("csv", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(cfg.Path)
	})
}
