package storage

import (
	"context"
	"fmt"
)

// DDLBootstrapper prepares the destination table for one backend kind.
type DDLBootstrapper func(ctx context.Context, repo Repository, cfg Config) error

var ddlBootstrappers = map[string]DDLBootstrapper{}

// RegisterDDL registers (or replaces) the DDL bootstrapper for a kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	mu.Lock()
	defer mu.Unlock()
	ddlBootstrappers[kind] = fn
}

// EnsureTable runs the registered bootstrapper for the configured kind when
// auto-creation is requested. Kinds with no bootstrapper (file backends) pass
// through silently.
func EnsureTable(ctx context.Context, repo Repository, cfg Config) error {
	if !cfg.AutoCreateTable {
		return nil
	}
	mu.RLock()
	fn, ok := ddlBootstrappers[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil
	}
	if err := fn(ctx, repo, cfg); err != nil {
		return fmt.Errorf("storage: ensure table for %q: %w", cfg.Kind, err)
	}
	return nil
}
