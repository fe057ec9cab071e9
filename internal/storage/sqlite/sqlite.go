// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Rows go in as batched INSERTs inside a transaction; SQLite
// has no dedicated bulk-load API, but transactions keep throughput acceptable
// for this dataset's scale.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tastetrend/internal/storage"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db    *sql.DB
	table string
}

// New opens a SQLite connection. The DSN is passed straight to database/sql,
// e.g. "file:reviews.db?cache=shared" or a bare path.
func New(ctx context.Context, dsn, table string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if table == "" {
		table = "reviews"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, table: table}, nil
}

// CopyFrom inserts rows inside a single transaction with one prepared
// statement. len(row) must equal len(columns) for every row.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec runs an arbitrary statement, typically the table bootstrap DDL.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() { r.db.Close() }

var _ storage.Repository = (*Repository)(nil)

// createTable is the canonical review table. REAL and INTEGER columns stay
// nullable; the sentinel-filled review_text is the only text column declared
// NOT NULL besides the id.
const createTable = `CREATE TABLE IF NOT EXISTS %s (
	review_id        INTEGER PRIMARY KEY,
	customer_name    TEXT,
	review_text      TEXT NOT NULL,
	review_text_full TEXT,
	review_length    INTEGER,
	restaurant_name  TEXT,
	location         TEXT,
	review_date      TEXT,
	rating_raw       REAL,
	rating_scale     INTEGER,
	rating_1_5       REAL,
	total_spent      REAL,
	log_total_spent  REAL,
	tip_amount       REAL,
	tip_percentage   REAL,
	party_size       INTEGER,
	age_range        TEXT,
	gender           TEXT,
	ethnicity        TEXT,
	source_file      TEXT
)`

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, cfg.DSN, cfg.Table)
	})
	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
		table := cfg.Table
		if table == "" {
			table = "reviews"
		}
		return repo.Exec(ctx, fmt.Sprintf(createTable, table))
	})
}
