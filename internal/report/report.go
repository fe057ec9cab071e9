// Package report builds the validation report for one pipeline run. Each
// pipeline stage contributes its counts to an explicit accumulator; nothing
// here is process-global, so stages stay independently testable and the
// per-source portions can be produced in parallel and merged once.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tastetrend/internal/dedup"
	"tastetrend/internal/schema"
)

// Run status values. Data-quality findings raise the status to StatusWarn at
// most; only infrastructural errors abort a run, and those never produce a
// report at all.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
)

// Missingness thresholds above which a field is flagged in the warnings.
const (
	textMissingThreshold     = 40.0
	ageRangeMissingThreshold = 20.0
)

// Partial is the per-source portion of the report, produced by whichever
// worker processed that source. Partials are merged strictly in configured
// source order.
type Partial struct {
	Source      string              `json:"source"`
	RowsRead    int                 `json:"rows_read"`
	RowsSkipped int                 `json:"rows_skipped"`
	ParseErrors int                 `json:"parse_errors"`
	RatingScale int                 `json:"rating_scale"`
	Unmapped    bool                `json:"unmapped,omitempty"`
	Audit       []schema.AuditEntry `json:"-"`
	UnmappedCat map[string][]string `json:"unmapped_categoricals,omitempty"`
}

// BiasField summarizes one demographic field over the final dataset: value
// counts plus the share of rows where the field is null. Unmapped raw values
// were nulled upstream, so MissingPct includes them.
type BiasField struct {
	Counts     map[string]int `json:"counts"`
	MissingPct float64        `json:"missing_pct"`
}

// RestaurantShare is one row of the integrity section: how much of the final
// dataset a single restaurant accounts for.
type RestaurantShare struct {
	Name     string  `json:"name"`
	Rows     int     `json:"rows"`
	SharePct float64 `json:"share_pct"`
}

// Report is the durable validation artifact of a run.
type Report struct {
	Job         string    `json:"job"`
	GeneratedAt time.Time `json:"generated_at"`
	Status      string    `json:"status"`
	Warnings    []string  `json:"warnings,omitempty"`

	TotalRowsRead int `json:"total_rows_read"`
	FinalRows     int `json:"final_rows"`

	RowsDroppedEmpty int `json:"rows_dropped_empty"`
	DupExactText     int `json:"duplicates_removed_exact_text"`
	DupCompositeKey  int `json:"duplicates_removed_composite_key"`
	ConflictingIDs   int `json:"conflicting_ids"`

	Conflicts []dedup.Conflict `json:"conflicts,omitempty"`

	SchemaMapping []schema.AuditEntry `json:"schema_mapping"`
	Sources       []Partial           `json:"sources"`

	Missingness map[string]float64   `json:"missingness"`
	Bias        map[string]BiasField `json:"bias_summary"`
	Restaurants []RestaurantShare    `json:"restaurant_shares"`
}

// Merge combines the per-source partials, already ordered by configuration,
// into a report skeleton. Dedup counts and dataset-wide sections are filled
// in later by AddDedup and Finalize.
func Merge(job string, partials []Partial) *Report {
	r := &Report{
		Job:         job,
		GeneratedAt: time.Now().UTC(),
		Sources:     partials,
		Missingness: map[string]float64{},
		Bias:        map[string]BiasField{},
	}
	for _, p := range partials {
		r.TotalRowsRead += p.RowsRead
		r.SchemaMapping = append(r.SchemaMapping, p.Audit...)
	}
	return r
}

// AddDedup records the per-stage drop counts.
func (r *Report) AddDedup(res dedup.Result) {
	r.RowsDroppedEmpty = res.DroppedEmpty
	r.DupExactText = res.DupExactText
	r.DupCompositeKey = res.DupCompositeKey
	r.ConflictingIDs = len(res.Conflicts)
	r.Conflicts = res.Conflicts
}

// Finalize computes the dataset-wide sections over the final retained rows
// and rolls up the status. Call exactly once, after dedup.
func (r *Report) Finalize(revs []*schema.Review) {
	r.FinalRows = len(revs)
	r.Missingness = missingness(revs)
	r.Bias = biasSummary(revs)
	r.Restaurants = restaurantShares(revs)
	r.rollupStatus()
}

func (r *Report) rollupStatus() {
	r.Warnings = r.Warnings[:0]
	warnf := func(format string, args ...any) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	}

	for _, p := range r.Sources {
		if p.Unmapped {
			warnf("source %s: no recognized columns", p.Source)
		}
		for _, field := range sortedKeys(p.UnmappedCat) {
			warnf("source %s: unmapped %s values: %v", p.Source, field, p.UnmappedCat[field])
		}
	}
	if r.ConflictingIDs > 0 {
		warnf("%d original review ids collide with divergent content", r.ConflictingIDs)
	}
	if pct := r.Missingness["review_text"]; pct > textMissingThreshold {
		warnf("review_text missing for %.1f%% of rows (threshold %.0f%%)", pct, textMissingThreshold)
	}
	if pct := r.Missingness["age_range"]; pct > ageRangeMissingThreshold {
		warnf("age_range missing for %.1f%% of rows (threshold %.0f%%)", pct, ageRangeMissingThreshold)
	}

	r.Status = StatusPass
	if len(r.Warnings) > 0 {
		r.Status = StatusWarn
	}
}

// JSON renders the report as the durable nested key/value document.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// missingness computes per-field null percentages over the final rows.
func missingness(revs []*schema.Review) map[string]float64 {
	n := len(revs)
	counts := map[string]int{}
	for _, rv := range revs {
		if rv.CustomerName == nil {
			counts["customer_name"]++
		}
		if rv.ReviewTextFull == "" {
			counts["review_text"]++
		}
		if rv.RestaurantName == "" {
			counts["restaurant_name"]++
		}
		if rv.Location == "" {
			counts["location"]++
		}
		if rv.ReviewDate == nil {
			counts["review_date"]++
		}
		if rv.RatingRaw == nil {
			counts["rating_raw"]++
		}
		if rv.TotalSpent == nil {
			counts["total_spent"]++
		}
		if rv.TipAmount == nil {
			counts["tip_amount"]++
		}
		if rv.TipPercentage == nil {
			counts["tip_percentage"]++
		}
		if rv.PartySize == nil {
			counts["party_size"]++
		}
		if rv.AgeRange == nil {
			counts["age_range"]++
		}
		if rv.Gender == nil {
			counts["gender"]++
		}
		if rv.Ethnicity == nil {
			counts["ethnicity"]++
		}
	}

	out := make(map[string]float64, len(counts))
	for _, field := range []string{
		"customer_name", "review_text", "restaurant_name", "location",
		"review_date", "rating_raw", "total_spent", "tip_amount",
		"tip_percentage", "party_size", "age_range", "gender", "ethnicity",
	} {
		out[field] = pct(counts[field], n)
	}
	return out
}

func biasSummary(revs []*schema.Review) map[string]BiasField {
	fields := map[string]func(*schema.Review) *string{
		"gender":    func(rv *schema.Review) *string { return rv.Gender },
		"age_range": func(rv *schema.Review) *string { return rv.AgeRange },
		"ethnicity": func(rv *schema.Review) *string { return rv.Ethnicity },
	}
	out := make(map[string]BiasField, len(fields))
	for name, get := range fields {
		bf := BiasField{Counts: map[string]int{}}
		missing := 0
		for _, rv := range revs {
			v := get(rv)
			if v == nil {
				missing++
				continue
			}
			bf.Counts[*v]++
		}
		bf.MissingPct = pct(missing, len(revs))
		out[name] = bf
	}
	return out
}

func restaurantShares(revs []*schema.Review) []RestaurantShare {
	counts := map[string]int{}
	for _, rv := range revs {
		if rv.RestaurantName != "" {
			counts[rv.RestaurantName]++
		}
	}
	shares := make([]RestaurantShare, 0, len(counts))
	for name, n := range counts {
		shares = append(shares, RestaurantShare{Name: name, Rows: n, SharePct: pct(n, len(revs))})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Rows != shares[j].Rows {
			return shares[i].Rows > shares[j].Rows
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
