// Package csv parses delimited review exports into raw records. Headers are
// normalized into canonical lowercase identifiers so the schema mapper can
// match them against the synonym table, and malformed rows soft-fail with a
// count instead of aborting the file.
package csv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"tastetrend/pkg/records"
)

// Options configures the parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero the delimiter is
	// sniffed from the header line (legacy .txt exports use ';', '\t' or
	// '|'), falling back to ','.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool
}

// Parser parses delimited input according to Options. It is safe to reuse
// across inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// sniffCandidates are the delimiters considered when no explicit delimiter
// is configured, in preference order for ties.
var sniffCandidates = []rune{',', ';', '\t', '|'}

// Parse consumes delimited records from r and returns the parsed rows along
// with the number of rows that were skipped due to parse errors or
// field-count mismatches. The first row is always treated as the header.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	comma := p.opt.Comma
	if comma == 0 {
		comma = sniffDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // enforce width against the header ourselves

	h, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	headers := normalizeHeaders(h)

	var out []records.Record
	var skipped int

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Soft-fail this row and continue.
			skipped++
			continue
		}
		if len(row) != len(headers) {
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		out = append(out, rec)
	}

	return out, skipped, nil
}

// sniffDelimiter inspects the buffered header line and picks the candidate
// delimiter with the most occurrences outside quoted regions. Falls back to
// ',' when nothing stands out.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(64 * 1024)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best := ','
	bestCount := 0
	for _, cand := range sniffCandidates {
		n := countUnquoted(line, cand)
		if n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// countUnquoted counts occurrences of sep outside double-quoted spans.
func countUnquoted(s string, sep rune) int {
	var n int
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			n++
		}
	}
	return n
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders produces canonical header keys (lowercase ASCII
// identifiers) and strips a UTF-8 BOM from the first cell if present. Blank
// or colliding headers get positional "col_N" names so column indexes stay
// addressable.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	seen := make(map[string]struct{}, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		name := NormalizeFieldName(c)
		if name == "col" {
			name = fmt.Sprintf("col_%d", i)
		}
		if _, dup := seen[name]; dup {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		seen[name] = struct{}{}
		res[i] = name
	}
	return res
}
