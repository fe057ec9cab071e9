package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"tastetrend/internal/config"
	"tastetrend/internal/mapping"
)

// writeFixtures lays out two overlapping-but-different source exports:
// downtown is a clean 5-point CSV, midtown a semicolon-delimited legacy
// export on a 10-point scale with messier values.
func writeFixtures(t *testing.T) (string, config.Pipeline) {
	t.Helper()
	dir := t.TempDir()

	downtown := "Review ID,Customer Name,Date,Rating,Review Text,Location,Restaurant Name,Total Spent,Tip Percentage,Gender,Age Range\n" +
		"1,Ana,2024-01-01,5,Loved it,Downtown,Uptown Bistro,50.00,40,F,26-35\n" +
		"2,Ben,2024-01-02,4,Great food and service,Downtown,Uptown Bistro,30.00,15,M,26-35\n" +
		"3,Cara,2024-01-03,3,Decent,Downtown,Harbor Grill,25.00,10,Prefer Not To Say,18-25\n" +
		",,,,,,,,,,\n"

	midtown := "review_number;guest_name;visit_date;satisfaction_score;feedback_comments;venue_location;business_name;gender\n" +
		"298;Ana;2024-01-01;8;Amazing noodles;Midtown;Noodle Bar;female\n" +
		"298;Ben;2024-01-04;9;Totally different text;Midtown;Noodle Bar;male\n" +
		"300;Dave;2024-01-05;7;Great food and service;Midtown;Noodle Bar;male\n" +
		"301;Elle;2024-01-06;6;Loved it;Midtown;Noodle Bar;female\n"

	dPath := filepath.Join(dir, "downtown_reviews.csv")
	mPath := filepath.Join(dir, "midtown_reviews.txt")
	if err := os.WriteFile(dPath, []byte(downtown), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mPath, []byte(midtown), 0o644); err != nil {
		t.Fatal(err)
	}

	p := config.Pipeline{
		Job: "test",
		Sources: []config.Source{
			{Name: "downtown", Path: dPath},
			{Name: "midtown", Path: mPath},
		},
	}
	return dir, p
}

func runPipeline(t *testing.T, p config.Pipeline) Result {
	t.Helper()
	tables, err := mapping.Default()
	if err != nil {
		t.Fatalf("mapping.Default error: %v", err)
	}
	res, err := New(p, tables, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return res
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	_, p := writeFixtures(t)
	res := runPipeline(t, p)
	rep := res.Report

	if rep.TotalRowsRead != 8 {
		t.Errorf("TotalRowsRead = %d, want 8", rep.TotalRowsRead)
	}
	if rep.RowsDroppedEmpty != 1 {
		t.Errorf("RowsDroppedEmpty = %d, want 1", rep.RowsDroppedEmpty)
	}
	// "Loved it" and "Great food and service" each appear in both sources.
	if rep.DupExactText != 2 {
		t.Errorf("DupExactText = %d, want 2", rep.DupExactText)
	}
	// Midtown id 298 is shared by Ana and Ben with divergent text.
	if rep.ConflictingIDs != 1 {
		t.Errorf("ConflictingIDs = %d, want 1", rep.ConflictingIDs)
	}
	if got := len(res.Reviews); got != rep.FinalRows {
		t.Errorf("len(Reviews) = %d, report says %d", got, rep.FinalRows)
	}

	// Sequential ids in retained order.
	for i, rv := range res.Reviews {
		if rv.ReviewID != i+1 {
			t.Errorf("ReviewID[%d] = %d, want %d", i, rv.ReviewID, i+1)
		}
	}

	// Downtown rows precede midtown rows: configured source order, not
	// worker completion order.
	if res.Reviews[0].SourceFile != "downtown" {
		t.Errorf("first row from %q, want downtown", res.Reviews[0].SourceFile)
	}

	// Scale inference is per source.
	for _, src := range rep.Sources {
		want := map[string]int{"downtown": 5, "midtown": 10}[src.Source]
		if src.RatingScale != want {
			t.Errorf("source %s scale = %d, want %d", src.Source, src.RatingScale, want)
		}
	}

	// Outlier policy ran: tip 40 capped, ratings rescaled into range.
	for _, rv := range res.Reviews {
		if rv.TipPercentage != nil && *rv.TipPercentage > 30.0 {
			t.Errorf("tip_percentage = %v exceeds cap", *rv.TipPercentage)
		}
		if rv.Rating15 != nil && (*rv.Rating15 < 1.0 || *rv.Rating15 > 5.0) {
			t.Errorf("rating_1_5 = %v outside [1,5]", *rv.Rating15)
		}
	}

	// Mixed-case "Prefer Not To Say" normalized to the na token.
	foundNA := false
	for _, rv := range res.Reviews {
		if rv.Gender != nil && *rv.Gender == "na" {
			foundNA = true
		}
	}
	if !foundNA {
		t.Errorf("no row with gender normalized to na")
	}
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	_, p := writeFixtures(t)

	sequential := p
	sequential.Runtime.SourceWorkers = 1
	parallel := p
	parallel.Runtime.SourceWorkers = 4

	a := runPipeline(t, sequential)
	b := runPipeline(t, parallel)

	if len(a.Reviews) != len(b.Reviews) {
		t.Fatalf("row counts differ: %d vs %d", len(a.Reviews), len(b.Reviews))
	}
	for i := range a.Reviews {
		if !reflect.DeepEqual(*a.Reviews[i], *b.Reviews[i]) {
			t.Errorf("row %d differs between worker counts:\n one = %+v\nfour = %+v", i, *a.Reviews[i], *b.Reviews[i])
		}
	}
	if !reflect.DeepEqual(a.Report.Missingness, b.Report.Missingness) {
		t.Errorf("missingness differs: %v vs %v", a.Report.Missingness, b.Report.Missingness)
	}
}

func TestRun_UnreadableSourceIsFatal(t *testing.T) {
	t.Parallel()

	_, p := writeFixtures(t)
	p.Sources = append(p.Sources, config.Source{Name: "ghost", Path: filepath.Join(t.TempDir(), "missing.csv")})

	tables, err := mapping.Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(p, tables, zerolog.Nop()).Run(context.Background()); err == nil {
		t.Fatalf("expected fatal error for unreadable source")
	}
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	_, p := writeFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tables, err := mapping.Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(p, tables, zerolog.Nop()).Run(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
