// Package schema defines the canonical review shape and the mapper that
// populates it from raw source records. Downstream stages operate on this
// fixed, statically known struct rather than string-keyed lookups; nil
// pointers are the null sentinel for optional fields.
package schema

import "time"

// TextSentinel fills the modeling-facing review text when a source row has
// no usable text. The verbatim original stays empty in that case.
const TextSentinel = "NA"

// Review is the canonical, unified review entity. A partial Review is
// produced by the Mapper, mutated in place by the normalization passes, and
// frozen once the deduplicator assigns the final sequential ReviewID.
type Review struct {
	ReviewID int // assigned post-merge, 1..N

	CustomerName   *string
	ReviewText     string // modeling copy: never empty, length-capped
	ReviewTextFull string // verbatim original, preserved for full-text use
	ReviewLength   int
	RestaurantName string
	Location       string
	ReviewDate     *time.Time

	RatingRaw   *float64
	RatingScale int // inferred 5 or 10; 0 until inference runs
	Rating15    *float64

	TotalSpent    *float64
	LogTotalSpent *float64
	TipAmount     *float64
	TipPercentage *float64
	PartySize     *int

	AgeRange  *string
	Gender    *string
	Ethnicity *string

	// Provenance. OrigID is the identifier carried by the source row, kept
	// for conflict detection; SourceFile/SourceRow fix the deterministic
	// ordering used by dedup tie-breaks.
	OrigID     *int64
	SourceFile string
	SourceRow  int
}

// Columns is the canonical dataset column order shared by every storage
// backend and by the missingness accounting.
var Columns = []string{
	"review_id",
	"customer_name",
	"review_text",
	"review_text_full",
	"review_length",
	"restaurant_name",
	"location",
	"review_date",
	"rating_raw",
	"rating_scale",
	"rating_1_5",
	"total_spent",
	"log_total_spent",
	"tip_amount",
	"tip_percentage",
	"party_size",
	"age_range",
	"gender",
	"ethnicity",
	"source_file",
}

// Row flattens the review into storage values aligned with Columns. Nil
// pointers become nil (SQL NULL / empty CSV cell).
func (r *Review) Row() []any {
	return []any{
		r.ReviewID,
		strPtr(r.CustomerName),
		r.ReviewText,
		r.ReviewTextFull,
		r.ReviewLength,
		strOrNil(r.RestaurantName),
		strOrNil(r.Location),
		datePtr(r.ReviewDate),
		floatPtr(r.RatingRaw),
		r.RatingScale,
		floatPtr(r.Rating15),
		floatPtr(r.TotalSpent),
		floatPtr(r.LogTotalSpent),
		floatPtr(r.TipAmount),
		floatPtr(r.TipPercentage),
		intPtr(r.PartySize),
		strPtr(r.AgeRange),
		strPtr(r.Gender),
		strPtr(r.Ethnicity),
		r.SourceFile,
	}
}

// Blank reports whether every domain field is null or empty; such rows are
// dropped by the deduplicator's row cleanup stage. Provenance fields do not
// count.
func (r *Review) Blank() bool {
	return r.CustomerName == nil &&
		r.ReviewTextFull == "" &&
		r.RestaurantName == "" &&
		r.Location == "" &&
		r.ReviewDate == nil &&
		r.RatingRaw == nil &&
		r.TotalSpent == nil &&
		r.TipAmount == nil &&
		r.TipPercentage == nil &&
		r.PartySize == nil &&
		r.AgeRange == nil &&
		r.Gender == nil &&
		r.Ethnicity == nil &&
		r.OrigID == nil
}

func strPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func floatPtr(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func datePtr(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}
