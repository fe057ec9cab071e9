package storage

import (
	"context"
	"testing"

	"tastetrend/internal/schema"
)

// fakeRepo records what it was asked to write.
type fakeRepo struct {
	rows    [][]any
	columns []string
	execs   []string
	closed  bool
}

func (f *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.columns = columns
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}
func (f *fakeRepo) Exec(ctx context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}
func (f *fakeRepo) Close() { f.closed = true }

func TestRegisterAndNew(t *testing.T) {
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}

	found := false
	for _, k := range ListKinds() {
		if k == "fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("registered kind missing from ListKinds: %v", ListKinds())
	}
}

func TestNew_UnsupportedKind(t *testing.T) {
	if _, err := New(context.Background(), Config{Kind: "tape_drive"}); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

func TestEnsureTable(t *testing.T) {
	RegisterDDL("fake_ddl", func(ctx context.Context, repo Repository, cfg Config) error {
		return repo.Exec(ctx, "CREATE TABLE t (x)")
	})

	repo := &fakeRepo{}
	cfg := Config{Kind: "fake_ddl", AutoCreateTable: true}
	if err := EnsureTable(context.Background(), repo, cfg); err != nil {
		t.Fatalf("EnsureTable error: %v", err)
	}
	if len(repo.execs) != 1 {
		t.Fatalf("execs = %v, want one DDL statement", repo.execs)
	}

	// Disabled auto-create runs nothing.
	repo = &fakeRepo{}
	cfg.AutoCreateTable = false
	if err := EnsureTable(context.Background(), repo, cfg); err != nil {
		t.Fatalf("EnsureTable error: %v", err)
	}
	if len(repo.execs) != 0 {
		t.Errorf("execs = %v, want none", repo.execs)
	}
}

func TestWriteReviews_Batches(t *testing.T) {
	revs := make([]*schema.Review, 7)
	for i := range revs {
		revs[i] = &schema.Review{ReviewID: i + 1, ReviewText: "NA"}
	}

	repo := &fakeRepo{}
	n, err := WriteReviews(context.Background(), repo, revs, 3)
	if err != nil {
		t.Fatalf("WriteReviews error: %v", err)
	}
	if n != 7 {
		t.Errorf("written = %d, want 7", n)
	}
	if len(repo.rows) != 7 {
		t.Errorf("rows received = %d, want 7", len(repo.rows))
	}
	if len(repo.columns) != len(schema.Columns) {
		t.Errorf("columns = %v", repo.columns)
	}
	for i, row := range repo.rows {
		if len(row) != len(schema.Columns) {
			t.Fatalf("row %d width = %d, want %d", i, len(row), len(schema.Columns))
		}
		if row[0] != i+1 {
			t.Errorf("row %d review_id = %v, want %d", i, row[0], i+1)
		}
	}
}

func TestWriteReviews_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := WriteReviews(ctx, &fakeRepo{}, []*schema.Review{{}}, 1); err == nil {
		t.Fatalf("expected context error")
	}
}
