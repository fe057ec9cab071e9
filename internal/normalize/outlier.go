package normalize

import (
	"math"

	"tastetrend/internal/schema"
)

// Default outlier policy bounds.
const (
	DefaultTipCap  = 30.0
	DefaultTextCap = 2000
)

// Policy holds the outlier bounds for one run. The zero value selects the
// defaults.
type Policy struct {
	// TipCap is the maximum tip percentage; values above it are capped,
	// values below zero are raised to zero.
	TipCap float64

	// TextCap is the maximum length, in runes, of the modeling-facing
	// review text copy. The verbatim original is never truncated.
	TextCap int
}

// withDefaults resolves zero fields to the default bounds.
func (p Policy) withDefaults() Policy {
	if p.TipCap <= 0 {
		p.TipCap = DefaultTipCap
	}
	if p.TextCap <= 0 {
		p.TextCap = DefaultTextCap
	}
	return p
}

// Apply runs the field-by-field outlier transforms on one batch. Every
// transform is deterministic and idempotent: applying the policy to already
// normalized rows yields identical output.
func (p Policy) Apply(revs []*schema.Review) {
	p = p.withDefaults()
	for _, rv := range revs {
		p.applyOne(rv)
	}
}

func (p Policy) applyOne(rv *schema.Review) {
	// Derive a missing or zero tip percentage from the amounts when both
	// are present and the spend is positive.
	if (rv.TipPercentage == nil || *rv.TipPercentage == 0) &&
		rv.TipAmount != nil && rv.TotalSpent != nil && *rv.TotalSpent > 0 {
		pct := *rv.TipAmount / *rv.TotalSpent * 100
		rv.TipPercentage = &pct
	}
	if rv.TipPercentage != nil {
		v := clamp(*rv.TipPercentage, 0, p.TipCap)
		rv.TipPercentage = &v
	}

	if rv.TotalSpent != nil && *rv.TotalSpent >= 0 {
		l := math.Log1p(*rv.TotalSpent)
		rv.LogTotalSpent = &l
	} else {
		rv.LogTotalSpent = nil
	}

	// Text shaping: the verbatim original stays on ReviewTextFull; the
	// modeling copy is truncated at the rune boundary and never empty.
	rv.ReviewLength = len([]rune(rv.ReviewTextFull))
	rv.ReviewText = truncate(rv.ReviewTextFull, p.TextCap)
	if rv.ReviewText == "" {
		rv.ReviewText = schema.TextSentinel
	}
}

// truncate cuts s to at most n runes. No word-break logic: the cap is a
// hard boundary.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
