package storage

import (
	"context"
	"fmt"

	"tastetrend/internal/schema"
)

// DefaultBatchSize bounds how many rows go into one CopyFrom call. The
// dataset fits in memory, but database backends still benefit from bounded
// statements and transactions.
const DefaultBatchSize = 500

// WriteReviews flattens the canonical reviews into column-aligned rows and
// writes them through repo in batches. Returns the total rows reported
// written and the first error encountered; cancellation is checked between
// batches.
func WriteReviews(ctx context.Context, repo Repository, revs []*schema.Review, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var total int64
	for start := 0; start < len(revs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := start + batchSize
		if end > len(revs) {
			end = len(revs)
		}
		rows := make([][]any, 0, end-start)
		for _, rv := range revs[start:end] {
			rows = append(rows, rv.Row())
		}
		n, err := repo.CopyFrom(ctx, schema.Columns, rows)
		total += n
		if err != nil {
			return total, fmt.Errorf("storage: write batch at row %d: %w", start, err)
		}
	}
	return total, nil
}
