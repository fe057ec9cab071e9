// Package normalize implements the column-wise normalization passes that run
// between schema mapping and deduplication: categorical vocabulary mapping,
// rating rescaling, and the outlier policy. Each pass mutates reviews in
// place and is independent of the others.
package normalize

import (
	"sort"

	"tastetrend/internal/mapping"
	"tastetrend/internal/schema"
)

// CategoricalFields are the demographic fields normalized through the
// category tables.
var CategoricalFields = []string{"gender", "ethnicity", "age_range"}

// Categoricals maps the raw demographic values of one source batch through
// the category tables. Recognized values are replaced by their canonical
// token; unrecognized values become nil and are returned per field so the
// report can surface them. Values are never coerced to a default category;
// fabricated demographics would corrupt downstream bias audits.
func Categoricals(revs []*schema.Review, tables mapping.Tables) map[string][]string {
	unmappedSets := make(map[string]map[string]struct{}, len(CategoricalFields))
	for _, f := range CategoricalFields {
		unmappedSets[f] = make(map[string]struct{})
	}

	for _, rv := range revs {
		rv.Gender = lookup(tables, "gender", rv.Gender, unmappedSets["gender"])
		rv.Ethnicity = lookup(tables, "ethnicity", rv.Ethnicity, unmappedSets["ethnicity"])
		rv.AgeRange = lookup(tables, "age_range", rv.AgeRange, unmappedSets["age_range"])
	}

	unmapped := make(map[string][]string, len(unmappedSets))
	for field, set := range unmappedSets {
		if len(set) == 0 {
			continue
		}
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		unmapped[field] = vals
	}
	return unmapped
}

// lookup resolves one raw value. The mapper already lowercased and trimmed
// raw categorical strings, so table keys match directly. A canonical token
// passes through unchanged, which keeps the pass idempotent.
func lookup(tables mapping.Tables, field string, raw *string, unmapped map[string]struct{}) *string {
	if raw == nil {
		return nil
	}
	if tok, ok := tables.Category(field, *raw); ok {
		return &tok
	}
	if isCanonical(tables, field, *raw) {
		return raw
	}
	unmapped[*raw] = struct{}{}
	return nil
}

// isCanonical reports whether v is already one of the table's canonical
// tokens.
func isCanonical(tables mapping.Tables, field, v string) bool {
	for _, tok := range tables.Categories[field] {
		if tok == v {
			return true
		}
	}
	return false
}
