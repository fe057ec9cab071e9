// Package dedup removes redundant review rows from the merged dataset and
// regenerates globally unique identifiers. Every stage keeps the first
// occurrence in source-file order, then in-file row order, so output is
// reproducible for identical input ordering. The whole pass is strictly
// sequential; upstream stages may parallelize, this one must not.
package dedup

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"tastetrend/internal/schema"
)

// Key part separators. The unit separator keeps composite keys unambiguous
// when field values contain commas or tabs; the nil marker distinguishes a
// null field from an empty string.
const (
	keySep    = "\x1f"
	nilMarker = "\x00"
)

// Conflict records one original identifier shared by rows that disagree on
// customer name or review text. Only the first-encountered row stays in the
// output; Dropped counts the rest.
type Conflict struct {
	OrigID  int64 `json:"orig_id"`
	Rows    int   `json:"rows"`
	Dropped int   `json:"dropped"`
}

// Result carries the surviving rows and the per-stage drop counts.
type Result struct {
	Reviews []*schema.Review

	DroppedEmpty    int
	DupExactText    int
	DupCompositeKey int
	Conflicts       []Conflict
}

// Run executes the four drop stages in order and then assigns sequential
// review ids starting at 1. Input order is preserved for survivors.
func Run(revs []*schema.Review) Result {
	var res Result

	kept := dropBlank(revs, &res)
	kept = dropExactText(kept, &res)
	kept = dropCompositeKey(kept, &res)
	kept = resolveConflicts(kept, &res)

	for i, rv := range kept {
		rv.ReviewID = i + 1
	}
	res.Reviews = kept
	return res
}

// dropBlank removes rows with every domain field null or empty. Such rows
// carry no information and would otherwise collide with each other in the
// later keyed stages.
func dropBlank(revs []*schema.Review, res *Result) []*schema.Review {
	kept := revs[:0]
	for _, rv := range revs {
		if rv.Blank() {
			res.DroppedEmpty++
			continue
		}
		kept = append(kept, rv)
	}
	return kept
}

// dropExactText removes rows whose verbatim review text is byte-identical to
// an already-kept row's. Rows with no text pass through: an absent review
// must not collapse with every other absent review.
func dropExactText(revs []*schema.Review, res *Result) []*schema.Review {
	seen := make(map[uint64]struct{}, len(revs))
	kept := revs[:0]
	for _, rv := range revs {
		if rv.ReviewTextFull == "" {
			kept = append(kept, rv)
			continue
		}
		h := xxh3.HashString(rv.ReviewTextFull)
		if _, dup := seen[h]; dup {
			res.DupExactText++
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, rv)
	}
	return kept
}

// dropCompositeKey removes rows duplicating the natural identity tuple
// (customer_name, review_text, review_date, restaurant_name). The tuple
// stands in for identifiers that may have been copied between rows: one
// customer leaves at most one review per restaurant per date. Rows where all
// four components are absent pass through unkeyed.
func dropCompositeKey(revs []*schema.Review, res *Result) []*schema.Review {
	seen := make(map[uint64]struct{}, len(revs))
	kept := revs[:0]
	for _, rv := range revs {
		key, ok := compositeKey(rv)
		if !ok {
			kept = append(kept, rv)
			continue
		}
		if _, dup := seen[key]; dup {
			res.DupCompositeKey++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, rv)
	}
	return kept
}

// compositeKey builds the hashed identity tuple. ok is false when every
// component is absent.
func compositeKey(rv *schema.Review) (uint64, bool) {
	name := nilMarker
	if rv.CustomerName != nil {
		name = *rv.CustomerName
	}
	date := nilMarker
	if rv.ReviewDate != nil {
		date = rv.ReviewDate.Format("2006-01-02")
	}
	text := rv.ReviewTextFull
	if text == "" {
		text = nilMarker
	}
	rest := rv.RestaurantName
	if rest == "" {
		rest = nilMarker
	}
	if name == nilMarker && date == nilMarker && text == nilMarker && rest == nilMarker {
		return 0, false
	}
	return xxh3.HashString(strings.Join([]string{name, text, date, rest}, keySep)), true
}

// resolveConflicts handles original ids shared by rows that disagree on
// customer name or review text. The first row per colliding id stays; the
// rest are dropped and counted. Rows without an original id always pass
// through. A malformed id must not block the rest of the batch, so nothing
// here is fatal.
func resolveConflicts(revs []*schema.Review, res *Result) []*schema.Review {
	type group struct {
		first     *schema.Review
		rows      int
		divergent bool
	}
	groups := make(map[int64]*group)
	order := make([]int64, 0)

	for _, rv := range revs {
		if rv.OrigID == nil {
			continue
		}
		g, ok := groups[*rv.OrigID]
		if !ok {
			groups[*rv.OrigID] = &group{first: rv, rows: 1}
			order = append(order, *rv.OrigID)
			continue
		}
		g.rows++
		if identityKey(rv) != identityKey(g.first) {
			g.divergent = true
		}
	}

	drop := make(map[*schema.Review]struct{})
	for _, id := range order {
		g := groups[id]
		if !g.divergent || g.rows < 2 {
			continue
		}
		res.Conflicts = append(res.Conflicts, Conflict{OrigID: id, Rows: g.rows, Dropped: g.rows - 1})
		for _, rv := range revs {
			if rv.OrigID != nil && *rv.OrigID == id && rv != g.first {
				drop[rv] = struct{}{}
			}
		}
	}
	if len(drop) == 0 {
		return revs
	}

	kept := revs[:0]
	for _, rv := range revs {
		if _, dead := drop[rv]; dead {
			continue
		}
		kept = append(kept, rv)
	}
	return kept
}

// identityKey is the content identity used for conflict comparison.
func identityKey(rv *schema.Review) string {
	name := nilMarker
	if rv.CustomerName != nil {
		name = *rv.CustomerName
	}
	return name + keySep + rv.ReviewTextFull
}

// ConflictIDs returns the colliding original ids as strings, for log and
// report output.
func (r Result) ConflictIDs() []string {
	ids := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		ids = append(ids, strconv.FormatInt(c.OrigID, 10))
	}
	return ids
}
