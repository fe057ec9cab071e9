// Package all wires every built-in storage backend into the storage factory.
//
// It exists purely for side effects: a blank import runs the init functions
// of each backend, which register their factories and DDL bootstrappers with
// the storage package. Importing it makes these kinds available at runtime:
//
//   - "csv"      (tastetrend/internal/storage/csvfile)
//   - "sqlite"   (tastetrend/internal/storage/sqlite)
//   - "postgres" (tastetrend/internal/storage/postgres)
//
// A binary that needs only a subset can import the individual backend
// packages instead.
package all

import (
	_ "tastetrend/internal/storage/csvfile"
	_ "tastetrend/internal/storage/postgres"
	_ "tastetrend/internal/storage/sqlite"
)
