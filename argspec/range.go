package argspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Range is an inclusive integer interval used for arity and positional
// indices. An unbounded range has Max == math.MaxInt
type Range struct {
	Min int
	Max int
}

// RangeOf returns the range lo..hi
func RangeOf(lo, hi int) Range {
	return Range{Min: lo, Max: hi}
}

// Exactly returns the range n..n
func Exactly(n int) Range {
	return Range{Min: n, Max: n}
}

// AtLeast returns the unbounded range n..*
func AtLeast(n int) Range {
	return Range{Min: n, Max: math.MaxInt}
}

// ParseRange parses "3", "0..1", "2..*" and "*" (same as "0..*")
func ParseRange(s string) (Range, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Range{}, fmt.Errorf("empty range")
	}
	if text == "*" {
		return AtLeast(0), nil
	}

	loText, hiText, found := strings.Cut(text, "..")
	lo, err := strconv.Atoi(strings.TrimSpace(loText))
	if err != nil || lo < 0 {
		return Range{}, fmt.Errorf("invalid range %q: lower bound must be a non-negative integer", s)
	}
	if !found {
		return Exactly(lo), nil
	}

	hiText = strings.TrimSpace(hiText)
	if hiText == "*" {
		return AtLeast(lo), nil
	}
	hi, err := strconv.Atoi(hiText)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: upper bound must be an integer or '*'", s)
	}
	if hi < lo {
		return Range{}, fmt.Errorf("invalid range %q: upper bound %d is less than lower bound %d", s, hi, lo)
	}
	return RangeOf(lo, hi), nil
}

// MustParseRange is like ParseRange but panics on malformed input
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsUnbounded reports whether the range has no upper bound
func (r Range) IsUnbounded() bool {
	return r.Max == math.MaxInt
}

// IsVariable reports whether min and max differ
func (r Range) IsVariable() bool {
	return r.Min != r.Max
}

// Contains reports whether n lies within the range
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Size returns the number of integers in the range, or math.MaxInt when unbounded
func (r Range) Size() int {
	if r.IsUnbounded() {
		return math.MaxInt
	}
	return r.Max - r.Min + 1
}

func (r Range) String() string {
	switch {
	case r.IsUnbounded():
		return fmt.Sprintf("%d..*", r.Min)
	case r.Min == r.Max:
		return strconv.Itoa(r.Min)
	default:
		return fmt.Sprintf("%d..%d", r.Min, r.Max)
	}
}
