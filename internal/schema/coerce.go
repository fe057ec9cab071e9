package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when coercing date-like cells. Sources mix
// ISO dates, US slashes, and spelled-out months.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// parseDate coerces a date-like cell, trying each known layout. Fails closed:
// callers null the field on error.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// parseNumber coerces a numeric cell with locale tolerance: currency symbols
// and grouping spaces are stripped, and a lone decimal comma is accepted.
func parseNumber(s string) (float64, error) {
	c := strings.TrimSpace(s)
	c = strings.Trim(c, "$€£ ")
	c = strings.ReplaceAll(c, " ", "")
	switch {
	case strings.Contains(c, ",") && !strings.Contains(c, "."):
		// "12,5" → decimal comma
		c = strings.ReplaceAll(c, ",", ".")
	case strings.Contains(c, ","):
		// "1,234.56" → grouping commas
		c = strings.ReplaceAll(c, ",", "")
	}
	v, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable number %q", s)
	}
	return v, nil
}

// parseIntStrict coerces an integer cell; a numeric cell with a fractional
// part is rejected rather than truncated.
func parseIntStrict(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	n := int(v)
	if float64(n) != v {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}

// parseID coerces a source identifier. IDs sometimes arrive as "298.0" from
// spreadsheet exports, so integral floats are accepted.
func parseID(s string) (int64, error) {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	n := int64(v)
	if float64(n) != v {
		return 0, fmt.Errorf("not an identifier: %q", s)
	}
	return n, nil
}
