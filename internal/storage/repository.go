// Package storage contains the backend-agnostic contract for persisting the
// canonical review dataset, plus the factory that routes a configured kind to
// a registered backend. Concrete backends live in subpackages and register
// themselves in init; the blank-import package storage/all enables them all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal sink interface for the canonical dataset.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to the columns order and returns
	// the number of rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs an arbitrary statement, typically DDL. File-based backends
	// treat it as a no-op.
	Exec(ctx context.Context, sql string) error
	// Close releases the underlying connection or file handle.
	Close()
}

// Config selects and parameterizes a backend.
type Config struct {
	Kind            string // "csv", "sqlite", "postgres"
	Path            string // file path, for file-based backends
	DSN             string // connection string, for database backends
	Table           string // target table name
	AutoCreateTable bool
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for the configured kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
