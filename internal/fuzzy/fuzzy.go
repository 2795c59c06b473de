// Package fuzzy ranks option names and subcommand names by similarity to
// a mistyped token. The parser uses it to attach "did you mean" hints to
// unmatched-argument errors
package fuzzy

import (
	"cmp"
	"slices"
	"strings"
)

// Matcher ranks candidates within a maximum edit distance
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher accepting candidates up to maxDistance edits away
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2,
	}
}

// Match is one ranked candidate
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// Best returns the closest candidate, or "" when nothing is close enough
func (m *Matcher) Best(input string, candidates []string) string {
	matches := m.Rank(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// Rank returns the candidates within range of input, best first. Option
// prefixes ("-", "--", "/") are ignored on both sides, so "--verbos"
// ranks "-verbose" and "--verbose" alike. Exact matches are skipped
func (m *Matcher) Rank(input string, candidates []string) []Match {
	key := normalize(input)
	if len(key) < m.minLength {
		return nil
	}

	var matches []Match
	for _, candidate := range candidates {
		other := normalize(candidate)
		if other == key {
			continue
		}
		distance := m.distance(key, other)
		if distance > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: distance,
			Score:    m.score(key, other, distance),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Distance, b.Distance)
	})
	return matches
}

func normalize(s string) string {
	s = strings.TrimLeft(s, "-/")
	if i := strings.IndexAny(s, "=:"); i > 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// score weighs edit distance, shared prefix, length similarity and shared
// characters into a value between 0 and 1
func (m *Matcher) score(a, b string, distance int) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}

	s := 1.0 - float64(distance)/float64(longest)
	if p := commonPrefix(a, b); p > 0 {
		s += float64(p) / float64(min(len(a), len(b))) * 0.3
	}
	s += (1.0 - float64(abs(len(a)-len(b)))/float64(longest)) * 0.2
	s += float64(commonChars(a, b)) / float64(longest) * 0.1
	return min(s, 1.0)
}

// distance is the Levenshtein distance between a and b, cut off at
// maxDistance+1
func (m *Matcher) distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if abs(len(a)-len(b)) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		cur[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonChars(a, b string) int {
	counts := make(map[rune]int)
	for _, r := range a {
		counts[r]++
	}
	common := 0
	for _, r := range b {
		if counts[r] > 0 {
			common++
			counts[r]--
		}
	}
	return common
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Suggest returns up to limit candidates within maxDistance of input, best first
func Suggest(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).Rank(input, candidates)
	out := make([]string, 0, min(len(matches), limit))
	for _, match := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, match.Value)
	}
	return out
}
