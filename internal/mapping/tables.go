// Package mapping loads the synonym and category vocabulary tables that
// drive schema and categorical normalization. The tables are data, not code:
// they live in versioned YAML files so a newly observed header spelling or
// category value is a config change. Compiled-in defaults (go:embed) keep
// the binary self-contained when no override files are configured.
package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/synonyms.yaml
var defaultSynonyms []byte

//go:embed defaults/categories.yaml
var defaultCategories []byte

// Synonyms maps each canonical field name to the list of raw header variants
// recognized for it. Variants are stored in normalized form (lowercase,
// underscores, accents folded).
type Synonyms map[string][]string

// Categories holds one raw-value -> canonical-token table per categorical
// field (gender, ethnicity, age_range).
type Categories map[string]map[string]string

// Tables bundles the vocabulary tables used by one pipeline run.
type Tables struct {
	Synonyms   Synonyms
	Categories Categories
}

// Default returns the compiled-in tables.
func Default() (Tables, error) {
	return parse(defaultSynonyms, defaultCategories)
}

// Load reads tables from the given YAML files. An empty path falls back to
// the compiled-in default for that table.
func Load(synonymsPath, categoriesPath string) (Tables, error) {
	syn := defaultSynonyms
	cat := defaultCategories
	if synonymsPath != "" {
		b, err := os.ReadFile(synonymsPath)
		if err != nil {
			return Tables{}, fmt.Errorf("read synonyms: %w", err)
		}
		syn = b
	}
	if categoriesPath != "" {
		b, err := os.ReadFile(categoriesPath)
		if err != nil {
			return Tables{}, fmt.Errorf("read categories: %w", err)
		}
		cat = b
	}
	return parse(syn, cat)
}

func parse(syn, cat []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(syn, &t.Synonyms); err != nil {
		return Tables{}, fmt.Errorf("parse synonyms: %w", err)
	}
	if err := yaml.Unmarshal(cat, &t.Categories); err != nil {
		return Tables{}, fmt.Errorf("parse categories: %w", err)
	}
	if len(t.Synonyms) == 0 {
		return Tables{}, fmt.Errorf("synonym table is empty")
	}
	return t, nil
}

// Category looks up the canonical token for a raw value in the named table.
// The second return reports whether the value was recognized.
func (t Tables) Category(field, raw string) (string, bool) {
	m, ok := t.Categories[field]
	if !ok {
		return "", false
	}
	v, ok := m[raw]
	return v, ok
}
