package schema

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"tastetrend/internal/mapping"
	"tastetrend/pkg/records"
)

// UnmappedField marks a raw column with no synonym match in the audit table.
const UnmappedField = "unmapped"

// canonicalFields fixes the order in which synonym matching runs, so the
// audit table is deterministic for identical inputs.
var canonicalFields = []string{
	"review_id",
	"customer_name",
	"review_date",
	"rating_raw",
	"review_text",
	"location",
	"restaurant_name",
	"total_spent",
	"tip_amount",
	"tip_percentage",
	"party_size",
	"age_range",
	"gender",
	"ethnicity",
}

// AuditEntry records one raw-column → canonical-field mapping decision for a
// source file. Unrecognized raw columns appear with CanonicalField set to
// UnmappedField.
type AuditEntry struct {
	Source         string `json:"source"`
	RawColumn      string `json:"raw_column"`
	CanonicalField string `json:"canonical_field"`
}

// MapResult is the output of mapping one source file.
type MapResult struct {
	Reviews []*Review
	Audit   []AuditEntry

	// ParseErrors counts cells that failed date/numeric coercion and were
	// nulled. They surface in missingness, never as failures.
	ParseErrors int

	// Unmapped reports that no synonym matched any column: the file
	// proceeded with the raw-text fallback only.
	Unmapped bool
}

// MapSource translates the raw records of one source file into partial
// canonical reviews using the synonym table.
//
// Column matching is case-insensitive and whitespace/underscore-normalized
// (the parser already normalizes header keys). Coercions fail closed:
// unparsable dates and numbers become nil and are counted, never raised. A
// wholly unmapped file is not fatal: its rows carry only the concatenated
// raw text fallback, and the condition is flagged for the schema audit.
func MapSource(source string, recs []records.Record, syn mapping.Synonyms, log zerolog.Logger) MapResult {
	res := MapResult{}
	if len(recs) == 0 {
		return res
	}

	// The parser guarantees every record carries the full header key set.
	rawCols := make([]string, 0, len(recs[0]))
	for k := range recs[0] {
		rawCols = append(rawCols, k)
	}
	sort.Strings(rawCols)

	colmap := buildColmap(rawCols, syn)
	res.Unmapped = len(colmap) == 0

	// Audit every raw column, mapped or not.
	mappedRaw := make(map[string]string, len(colmap))
	for canonical, raw := range colmap {
		mappedRaw[raw] = canonical
	}
	for _, raw := range rawCols {
		canonical := mappedRaw[raw]
		if canonical == "" {
			canonical = UnmappedField
		}
		res.Audit = append(res.Audit, AuditEntry{Source: source, RawColumn: raw, CanonicalField: canonical})
	}

	if res.Unmapped {
		log.Warn().Str("source", source).Msg("no recognized columns; emitting raw text fallback only")
	}

	res.Reviews = make([]*Review, 0, len(recs))
	for i, rec := range recs {
		rv := &Review{SourceFile: source, SourceRow: i + 1}
		if res.Unmapped {
			rv.ReviewTextFull = fallbackText(rec, rawCols)
			res.Reviews = append(res.Reviews, rv)
			continue
		}
		res.ParseErrors += populate(rv, rec, colmap)
		res.Reviews = append(res.Reviews, rv)
	}
	return res
}

// buildColmap resolves each canonical field to the first matching raw column,
// honoring the variant order in the synonym table.
func buildColmap(rawCols []string, syn mapping.Synonyms) map[string]string {
	present := make(map[string]struct{}, len(rawCols))
	for _, c := range rawCols {
		present[c] = struct{}{}
	}
	colmap := make(map[string]string)
	for _, canonical := range canonicalFields {
		for _, variant := range syn[canonical] {
			if _, ok := present[variant]; ok {
				colmap[canonical] = variant
				break
			}
		}
	}
	return colmap
}

// populate fills rv from rec using colmap and returns the number of cells
// that failed coercion.
func populate(rv *Review, rec records.Record, colmap map[string]string) int {
	parseErrs := 0

	str := func(field string) (string, bool) {
		raw, ok := colmap[field]
		if !ok {
			return "", false
		}
		s := strings.TrimSpace(rec.String(raw))
		return s, s != ""
	}

	if s, ok := str("customer_name"); ok {
		rv.CustomerName = &s
	}
	if s, ok := str("review_text"); ok {
		rv.ReviewTextFull = s
	}
	if s, ok := str("restaurant_name"); ok {
		rv.RestaurantName = s
	}
	if s, ok := str("location"); ok {
		rv.Location = s
	}

	if s, ok := str("review_id"); ok {
		if id, err := parseID(s); err == nil {
			rv.OrigID = &id
		} else {
			parseErrs++
		}
	}
	if s, ok := str("review_date"); ok {
		if d, err := parseDate(s); err == nil {
			rv.ReviewDate = &d
		} else {
			parseErrs++
		}
	}
	for _, nf := range []struct {
		field string
		dst   **float64
	}{
		{"rating_raw", &rv.RatingRaw},
		{"total_spent", &rv.TotalSpent},
		{"tip_amount", &rv.TipAmount},
		{"tip_percentage", &rv.TipPercentage},
	} {
		if s, ok := str(nf.field); ok {
			if v, err := parseNumber(s); err == nil {
				*nf.dst = &v
			} else {
				parseErrs++
			}
		}
	}
	if s, ok := str("party_size"); ok {
		if n, err := parseIntStrict(s); err == nil {
			rv.PartySize = &n
		} else {
			parseErrs++
		}
	}

	// Raw categorical strings land in the enum fields lowercased; the
	// categorical normalizer replaces them with canonical tokens or nil.
	for _, cf := range []struct {
		field string
		dst   **string
	}{
		{"age_range", &rv.AgeRange},
		{"gender", &rv.Gender},
		{"ethnicity", &rv.Ethnicity},
	} {
		if s, ok := str(cf.field); ok {
			lower := strings.ToLower(s)
			*cf.dst = &lower
		}
	}

	return parseErrs
}

// fallbackText joins every non-empty cell of an unmappable row so the raw
// content survives for full-text indexing.
func fallbackText(rec records.Record, rawCols []string) string {
	parts := make([]string, 0, len(rawCols))
	for _, c := range rawCols {
		if s := strings.TrimSpace(rec.String(c)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
