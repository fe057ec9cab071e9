// Package postgres implements a Postgres storage.Repository using pgx v5.
// Rows go in through the COPY protocol, which is the fastest bulk path for
// this insert-only workload.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tastetrend/internal/storage"
)

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

// New builds a connection pool for the given DSN. table may be
// schema-qualified, e.g. "public.reviews".
func New(ctx context.Context, dsn, table string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if table == "" {
		table = "reviews"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	return &Repository{pool: pool, table: table}, nil
}

// CopyFrom streams rows into the target table via the COPY protocol.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Exec runs an arbitrary statement, typically the table bootstrap DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

// splitFQN converts "schema.table" into a pgx.Identifier so pgx quotes each
// segment. A bare name becomes a single-segment identifier.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

var _ storage.Repository = (*Repository)(nil)

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	review_id        integer PRIMARY KEY,
	customer_name    text,
	review_text      text NOT NULL,
	review_text_full text,
	review_length    integer,
	restaurant_name  text,
	location         text,
	review_date      date,
	rating_raw       double precision,
	rating_scale     integer,
	rating_1_5       double precision,
	total_spent      double precision,
	log_total_spent  double precision,
	tip_amount       double precision,
	tip_percentage   double precision,
	party_size       integer,
	age_range        text,
	gender           text,
	ethnicity        text,
	source_file      text
)`

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, cfg.DSN, cfg.Table)
	})
	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
		table := cfg.Table
		if table == "" {
			table = "reviews"
		}
		return repo.Exec(ctx, fmt.Sprintf(createTable, pgFQN(table)))
	})
}

// pgFQN quotes a possibly schema-qualified name segment by segment.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
