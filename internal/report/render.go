package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Render writes a human-readable run summary. Column widths use display
// width, not byte length, so restaurant and source names with wide runes
// stay aligned.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "run %s: %s\n\n", r.Job, r.Status)

	renderTable(w, [][]string{
		{"total rows read", strconv.Itoa(r.TotalRowsRead)},
		{"rows dropped (empty)", strconv.Itoa(r.RowsDroppedEmpty)},
		{"duplicates removed (exact text)", strconv.Itoa(r.DupExactText)},
		{"duplicates removed (composite key)", strconv.Itoa(r.DupCompositeKey)},
		{"conflicting ids", strconv.Itoa(r.ConflictingIDs)},
		{"final rows", strconv.Itoa(r.FinalRows)},
	})

	if len(r.Sources) > 0 {
		fmt.Fprintln(w)
		rows := [][]string{{"source", "rows", "skipped", "parse errors", "scale"}}
		for _, p := range r.Sources {
			rows = append(rows, []string{
				p.Source,
				strconv.Itoa(p.RowsRead),
				strconv.Itoa(p.RowsSkipped),
				strconv.Itoa(p.ParseErrors),
				strconv.Itoa(p.RatingScale),
			})
		}
		renderTable(w, rows)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "warn: %s\n", warning)
		}
	}
}

// renderTable prints rows with columns padded to the widest cell.
func renderTable(w io.Writer, rows [][]string) {
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	widths := make([]int, colCount)
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}
