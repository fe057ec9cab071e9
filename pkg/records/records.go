// Package records defines the untyped row representation shared by the
// parser and the schema mapper. A Record is one source row keyed by the
// normalized source column name; values are raw strings or nil for empty
// cells. Records are ephemeral: the schema mapper consumes them and emits
// typed reviews.
package records

// Record is an ordered-by-source row of raw column values. Keys are the
// normalized source column names; values are strings or nil.
type Record map[string]any

// String returns the string value for key, or "" when the key is missing,
// nil, or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Empty reports whether every value in the record is nil or an empty string.
func (r Record) Empty() bool {
	for _, v := range r {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return false
	}
	return true
}
