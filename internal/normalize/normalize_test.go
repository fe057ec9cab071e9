package normalize

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"tastetrend/internal/mapping"
	"tastetrend/internal/schema"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

func defaultTables(t *testing.T) mapping.Tables {
	t.Helper()
	tables, err := mapping.Default()
	if err != nil {
		t.Fatalf("mapping.Default error: %v", err)
	}
	return tables
}

func TestCategoricals(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{Gender: sp("prefer not to say"), Ethnicity: sp("white"), AgeRange: sp("26-35")},
		{Gender: sp("robot"), AgeRange: sp("ancient")},
		{},
	}
	unmapped := Categoricals(revs, defaultTables(t))

	if revs[0].Gender == nil || *revs[0].Gender != "na" {
		t.Errorf("gender = %v, want na", revs[0].Gender)
	}
	if revs[0].Ethnicity == nil || *revs[0].Ethnicity != "caucasian" {
		t.Errorf("ethnicity = %v, want caucasian", revs[0].Ethnicity)
	}
	if revs[0].AgeRange == nil || *revs[0].AgeRange != "adult" {
		t.Errorf("age_range = %v, want adult", revs[0].AgeRange)
	}

	// Unrecognized values become nil and are reported, never defaulted.
	if revs[1].Gender != nil {
		t.Errorf("unrecognized gender = %v, want nil", revs[1].Gender)
	}
	if !reflect.DeepEqual(unmapped["gender"], []string{"robot"}) {
		t.Errorf("unmapped gender = %v, want [robot]", unmapped["gender"])
	}
	if !reflect.DeepEqual(unmapped["age_range"], []string{"ancient"}) {
		t.Errorf("unmapped age_range = %v, want [ancient]", unmapped["age_range"])
	}
	if revs[2].Gender != nil {
		t.Errorf("nil input mutated to %v", revs[2].Gender)
	}
}

func TestCategoricals_Idempotent(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{{Gender: sp("non-binary")}}
	tables := defaultTables(t)
	Categoricals(revs, tables)
	first := *revs[0].Gender

	unmapped := Categoricals(revs, tables)
	if *revs[0].Gender != first {
		t.Errorf("second pass changed %q to %q", first, *revs[0].Gender)
	}
	if len(unmapped) != 0 {
		t.Errorf("second pass reported unmapped values: %v", unmapped)
	}
}

func TestInferScale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ratings []*float64
		want    int
	}{
		{"all within five", []*float64{fp(3), fp(5), nil}, 5},
		{"max above five", []*float64{fp(3), fp(9)}, 10},
		{"all null", []*float64{nil, nil}, 5},
		{"empty source", nil, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			revs := make([]*schema.Review, len(tt.ratings))
			for i, r := range tt.ratings {
				revs[i] = &schema.Review{RatingRaw: r}
			}
			if got := InferScale(revs); got != tt.want {
				t.Errorf("InferScale = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRatings_RescalesToTenPointSource(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{RatingRaw: fp(8)},
		{RatingRaw: fp(9)},
		{RatingRaw: nil},
	}
	scale := Ratings(revs)
	if scale != 10 {
		t.Fatalf("scale = %d, want 10", scale)
	}
	if revs[0].Rating15 == nil || *revs[0].Rating15 != 4.0 {
		t.Errorf("rating_1_5 = %v, want 4.0", revs[0].Rating15)
	}
	if revs[2].Rating15 != nil {
		t.Errorf("null raw rating produced %v", revs[2].Rating15)
	}
	for _, rv := range revs {
		if rv.RatingScale != 10 {
			t.Errorf("RatingScale = %d, want 10", rv.RatingScale)
		}
	}
}

func TestRatings_Clamped(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{RatingRaw: fp(0)},
		{RatingRaw: fp(7)}, // above nominal bound, flips source to 10-point
	}
	Ratings(revs)
	for _, rv := range revs {
		if *rv.Rating15 < 1.0 || *rv.Rating15 > 5.0 {
			t.Errorf("rating_1_5 = %v outside [1,5]", *rv.Rating15)
		}
	}
}

func TestPolicy_TipCap(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{TipPercentage: fp(40)},
		{TipPercentage: fp(-3)},
		{TipPercentage: fp(18)},
	}
	Policy{}.Apply(revs)

	if got := *revs[0].TipPercentage; got != 30.0 {
		t.Errorf("tip 40 capped to %v, want 30", got)
	}
	if got := *revs[1].TipPercentage; got != 0 {
		t.Errorf("tip -3 clamped to %v, want 0", got)
	}
	if got := *revs[2].TipPercentage; got != 18 {
		t.Errorf("tip 18 changed to %v", got)
	}
}

func TestPolicy_DerivesTipPercentage(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{TotalSpent: fp(50), TipAmount: fp(10)},
		{TotalSpent: fp(0), TipAmount: fp(10)},
		{TipAmount: fp(10)},
	}
	Policy{}.Apply(revs)

	if revs[0].TipPercentage == nil || *revs[0].TipPercentage != 20 {
		t.Errorf("derived tip pct = %v, want 20", revs[0].TipPercentage)
	}
	if revs[1].TipPercentage != nil {
		t.Errorf("zero spend derived %v, want nil", revs[1].TipPercentage)
	}
	if revs[2].TipPercentage != nil {
		t.Errorf("missing spend derived %v, want nil", revs[2].TipPercentage)
	}
}

func TestPolicy_LogTotalSpent(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{TotalSpent: fp(99)},
		{TotalSpent: fp(0)},
		{TotalSpent: fp(-5)},
		{},
	}
	Policy{}.Apply(revs)

	if got := *revs[0].LogTotalSpent; math.Abs(got-math.Log1p(99)) > 1e-12 {
		t.Errorf("log_total_spent = %v, want ln(100)", got)
	}
	if got := *revs[1].LogTotalSpent; got != 0 {
		t.Errorf("log of zero spend = %v, want 0", got)
	}
	if revs[2].LogTotalSpent != nil {
		t.Errorf("negative spend produced %v, want nil", revs[2].LogTotalSpent)
	}
	if revs[3].LogTotalSpent != nil {
		t.Errorf("null spend produced %v, want nil", revs[3].LogTotalSpent)
	}
}

func TestPolicy_TextShaping(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 2100)
	revs := []*schema.Review{
		{ReviewTextFull: long},
		{ReviewTextFull: "short"},
		{ReviewTextFull: ""},
	}
	Policy{}.Apply(revs)

	if got := len([]rune(revs[0].ReviewText)); got != 2000 {
		t.Errorf("truncated length = %d runes, want 2000", got)
	}
	if revs[0].ReviewTextFull != long {
		t.Errorf("verbatim original was modified")
	}
	if revs[0].ReviewLength != 2100 {
		t.Errorf("ReviewLength = %d, want 2100", revs[0].ReviewLength)
	}
	if revs[1].ReviewText != "short" {
		t.Errorf("short text = %q", revs[1].ReviewText)
	}
	if revs[2].ReviewText != schema.TextSentinel {
		t.Errorf("empty text = %q, want sentinel %q", revs[2].ReviewText, schema.TextSentinel)
	}
}

func TestPolicy_Idempotent(t *testing.T) {
	t.Parallel()

	revs := []*schema.Review{
		{
			ReviewTextFull: strings.Repeat("x", 3000),
			TotalSpent:     fp(80),
			TipAmount:      fp(40), // derives to 50, capped at 30
			RatingRaw:      fp(9),
		},
		{ReviewTextFull: ""},
	}
	p := Policy{}
	p.Apply(revs)

	snapshot := make([]schema.Review, len(revs))
	for i, rv := range revs {
		snapshot[i] = *rv
	}

	p.Apply(revs)
	for i, rv := range revs {
		if !reflect.DeepEqual(snapshot[i], *rv) {
			t.Errorf("row %d changed on second application:\n first = %+v\nsecond = %+v", i, snapshot[i], *rv)
		}
	}
}
