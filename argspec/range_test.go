package argspec

import (
	"math"
	"testing"
)

// TestParseRange tests parsing of valid range strings
func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want Range
		str  string
	}{
		{"0", Exactly(0), "0"},
		{"3", Exactly(3), "3"},
		{"0..1", RangeOf(0, 1), "0..1"},
		{" 1 .. 2 ", RangeOf(1, 2), "1..2"},
		{"2..*", AtLeast(2), "2..*"},
		{"*", AtLeast(0), "0..*"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if err != nil {
				t.Fatalf("ParseRange(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

// TestParseRangeInvalid tests rejection of malformed range strings
func TestParseRangeInvalid(t *testing.T) {
	for _, in := range []string{"", "x", "-1", "3..1", "1..x", "..2"} {
		if _, err := ParseRange(in); err == nil {
			t.Errorf("ParseRange(%q) should fail", in)
		}
	}
}

// TestMustParseRangePanics tests that MustParseRange panics on bad input
func TestMustParseRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for malformed range")
		}
	}()
	MustParseRange("bogus")
}

// TestRangeQueries tests Contains, IsVariable and IsUnbounded
func TestRangeQueries(t *testing.T) {
	r := RangeOf(1, 3)
	if !r.Contains(1) || !r.Contains(3) || r.Contains(0) || r.Contains(4) {
		t.Errorf("Contains is wrong for %s", r)
	}
	if r.Size() != 3 {
		t.Errorf("Size() = %d, want 3", r.Size())
	}
	if !r.IsVariable() || Exactly(2).IsVariable() {
		t.Error("IsVariable is wrong")
	}

	open := AtLeast(2)
	if !open.IsUnbounded() || open.Size() != math.MaxInt || !open.Contains(1_000_000) {
		t.Errorf("unbounded range misbehaves: %+v", open)
	}
	if RangeOf(0, 1).IsUnbounded() {
		t.Error("bounded range reported unbounded")
	}
}
