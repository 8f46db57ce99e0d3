package screening

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// Algorithm selects the string-similarity scorer used for fuzzy
// sanctions matching.
type Algorithm string

const (
	// AlgorithmRatio is plain character-level edit-distance similarity.
	AlgorithmRatio Algorithm = "ratio"
	// AlgorithmPartialRatio scores the best-matching substring window,
	// so "ACME" still scores high against "ACME GLOBAL TRADING".
	AlgorithmPartialRatio Algorithm = "partial_ratio"
	// AlgorithmTokenSortRatio is order-independent: tokens are sorted
	// before comparison, so "TRADING ACME" matches "ACME TRADING".
	AlgorithmTokenSortRatio Algorithm = "token_sort_ratio"
)

// Valid reports whether a names a known scorer.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmRatio, AlgorithmPartialRatio, AlgorithmTokenSortRatio:
		return true
	}
	return false
}

// DefaultFuzzyThreshold is the minimum 0-100 score for a fuzzy hit.
const DefaultFuzzyThreshold = 85.0

// Matcher scores a query name against reference names. Inputs are
// expected to be pre-normalized; Matcher does not normalize.
type Matcher struct {
	algorithm Algorithm
	threshold float64 // 0-100
	logger    *zap.SugaredLogger
}

// Match is a fuzzy hit against the reference list.
type Match struct {
	Index int
	Name  string
	Score float64 // 0-1
}

// NewMatcher builds a matcher. A zero threshold falls back to the
// default; an unknown algorithm falls back to token-sort.
func NewMatcher(algorithm Algorithm, threshold float64, logger *zap.SugaredLogger) *Matcher {
	if !algorithm.Valid() {
		algorithm = AlgorithmTokenSortRatio
	}
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Matcher{algorithm: algorithm, threshold: threshold, logger: logger}
}

// Similarity scores two normalized names in [0,1] using the configured
// algorithm.
func (m *Matcher) Similarity(a, b string) float64 {
	switch m.algorithm {
	case AlgorithmPartialRatio:
		return partialRatio(a, b)
	case AlgorithmTokenSortRatio:
		return ratio(sortTokens(a), sortTokens(b))
	default:
		return ratio(a, b)
	}
}

// BestMatch returns the best-scoring reference at or above the
// threshold. Among equal top scores the first occurrence wins. An empty
// reference list yields no match.
func (m *Matcher) BestMatch(query string, refs []string) (Match, bool) {
	if query == "" || len(refs) == 0 {
		return Match{}, false
	}

	best := Match{Index: -1}
	for i, ref := range refs {
		score := m.Similarity(query, ref)
		if score > best.Score {
			best = Match{Index: i, Name: ref, Score: score}
		}
	}

	if best.Index < 0 || best.Score*100 < m.threshold {
		return Match{}, false
	}

	m.logger.Debugw("fuzzy match",
		"query", query,
		"matched", best.Name,
		"score", best.Score,
		"algorithm", string(m.algorithm))
	return best, true
}

// ratio is edit-distance similarity normalized by the longer length.
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// partialRatio slides the shorter string across the longer and keeps
// the best window ratio.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return ratio(a, b)
	}
	if len(short) == len(long) {
		return ratio(string(short), string(long))
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		window := string(long[i : i+len(short)])
		if s := ratio(string(short), window); s > best {
			best = s
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
