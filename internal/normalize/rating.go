package normalize

import "tastetrend/internal/schema"

// Rating scale bounds. A source whose observed maximum exceeds the 5-point
// bound is treated as 10-point for every row in that source.
const (
	scaleFive = 5
	scaleTen  = 10

	ratingMin = 1.0
	ratingMax = 5.0
)

// InferScale inspects the raw ratings of one source file and returns the
// inferred scale: 10 when any value exceeds 5, otherwise 5. A source with no
// ratings at all defaults to 5.
func InferScale(revs []*schema.Review) int {
	for _, rv := range revs {
		if rv.RatingRaw != nil && *rv.RatingRaw > float64(scaleFive) {
			return scaleTen
		}
	}
	return scaleFive
}

// Ratings rescales the raw ratings of one source batch onto the common
// 1 to 5 range. The inferred scale and the untouched raw value stay on the
// review, so the transformation is auditable and reversible up to the clamp.
// Rows with nil raw ratings keep a nil rating_1_5. Returns the inferred
// scale for the per-source report section.
func Ratings(revs []*schema.Review) int {
	scale := InferScale(revs)
	for _, rv := range revs {
		rv.RatingScale = scale
		if rv.RatingRaw == nil {
			rv.Rating15 = nil
			continue
		}
		v := *rv.RatingRaw * ratingMax / float64(scale)
		v = clamp(v, ratingMin, ratingMax)
		rv.Rating15 = &v
	}
	return scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
