package records

import "testing"

func TestString(t *testing.T) {
	t.Parallel()

	r := Record{"a": "x", "b": nil, "c": 3}
	if got := r.String("a"); got != "x" {
		t.Errorf("String(a) = %q, want x", got)
	}
	if got := r.String("b"); got != "" {
		t.Errorf("String(b) = %q, want empty", got)
	}
	if got := r.String("c"); got != "" {
		t.Errorf("String(c) = %q, want empty for non-string", got)
	}
	if got := r.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"nil values", Record{"a": nil, "b": nil}, true},
		{"empty strings", Record{"a": "", "b": nil}, true},
		{"one value", Record{"a": "", "b": "x"}, false},
		{"no keys", Record{}, true},
	}
	for _, tt := range tests {
		if got := tt.rec.Empty(); got != tt.want {
			t.Errorf("%s: Empty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
