// Package config defines the canonical, JSON-serializable configuration model
// for a review-normalization run. It is intentionally small and explicit so
// that pipelines can be loaded from disk and passed through the program
// without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "tastetrend_reviews",
//	  "sources": [
//	    { "name": "downtown", "path": "data/raw/downtown_reviews.csv" },
//	    { "name": "midtown",  "path": "data/raw/midtown_reviews.txt" }
//	  ],
//	  "output": {
//	    "dataset": { "kind": "csv", "path": "out/reviews.csv" },
//	    "report":  "out/validation.json"
//	  }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline describes one full normalization run. It is the top-level object
// decoded from a pipeline file (e.g., configs/*.json).
type Pipeline struct {
	// Job identifies the run for metrics labeling and logs.
	Job string `json:"job"`

	// Sources lists the raw review exports, in the order that defines the
	// deterministic row ordering used by deduplication tie-breaks.
	Sources []Source `json:"sources"`

	// Mappings optionally overrides the compiled-in vocabulary tables.
	Mappings Mappings `json:"mappings"`

	// Limits tunes the outlier policy. Zero values select the defaults.
	Limits Limits `json:"limits"`

	// Output selects where the canonical dataset and the validation report
	// are written.
	Output Output `json:"output"`

	// Runtime controls per-source normalization concurrency.
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies one raw review export file.
type Source struct {
	// Name is the logical source label (usually the location), used in the
	// schema audit and per-source report sections.
	Name string `json:"name"`

	// Path is the local filesystem path to the delimited input file.
	Path string `json:"path"`

	// Delimiter optionally fixes the field delimiter. When empty the
	// delimiter is sniffed from the header line, falling back to ','.
	Delimiter string `json:"delimiter,omitempty"`
}

// Mappings points at optional YAML vocabulary table overrides.
type Mappings struct {
	Synonyms   string `json:"synonyms,omitempty"`
	Categories string `json:"categories,omitempty"`
}

// Limits holds the outlier policy knobs.
type Limits struct {
	// ReviewTextCap is the maximum length of the modeling-facing review text
	// copy, in runes. Zero selects the default of 2000.
	ReviewTextCap int `json:"review_text_cap,omitempty"`

	// TipPercentageCap is the maximum tip percentage. Zero selects 30.0.
	TipPercentageCap float64 `json:"tip_percentage_cap,omitempty"`
}

// Output describes the run artifacts.
type Output struct {
	// Dataset selects the canonical dataset sink.
	Dataset Dataset `json:"dataset"`

	// Report is the path the validation report JSON is written to. Empty
	// writes the report next to the dataset as "validation.json".
	Report string `json:"report"`
}

// Dataset selects and configures the storage backend for the canonical
// dataset. Kind is one of "csv", "sqlite", "postgres".
type Dataset struct {
	Kind string `json:"kind"`

	// Path is the output file path for the "csv" kind.
	Path string `json:"path,omitempty"`

	// DB carries connection details for the database kinds.
	DB DBConfig `json:"db,omitempty"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the connection string (pgx pool DSN for postgres, file path or
	// file: URI for sqlite).
	DSN string `json:"dsn"`

	// Table is the destination table name (possibly schema-qualified for
	// postgres, e.g. "public.reviews").
	Table string `json:"table"`

	// AutoCreateTable creates the destination table before loading.
	AutoCreateTable bool `json:"auto_create_table,omitempty"`
}

// RuntimeConfig controls concurrency of the per-source normalization passes.
// Deduplication always runs as a single sequential pass regardless of the
// worker count, so results stay deterministic.
type RuntimeConfig struct {
	SourceWorkers int `json:"source_workers"`
}

// Load reads and decodes a pipeline file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Marshal renders a pipeline back to indented JSON, e.g. for tooling that
// saves generated configs.
func Marshal(p Pipeline) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
