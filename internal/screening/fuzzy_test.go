package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestMatcher(alg Algorithm, threshold float64) *Matcher {
	return NewMatcher(alg, threshold, zap.NewNop().Sugar())
}

func TestSimilaritySelfMatch(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmRatio, AlgorithmPartialRatio, AlgorithmTokenSortRatio} {
		m := newTestMatcher(alg, 0)
		assert.Equal(t, 1.0, m.Similarity("TEHRAN TRADING", "TEHRAN TRADING"), string(alg))
	}
}

func TestSimilarityRatio(t *testing.T) {
	m := newTestMatcher(AlgorithmRatio, 0)

	// One edit over fifteen runes.
	assert.InDelta(t, 1.0-1.0/15.0, m.Similarity("TEHRAN TRADINGS", "TEHRAN TRADING"), 1e-9)
	assert.Equal(t, 1.0, m.Similarity("", ""))
	assert.Equal(t, 0.0, m.Similarity("ABC", "XYZ"))
}

func TestSimilarityPartialRatio(t *testing.T) {
	m := newTestMatcher(AlgorithmPartialRatio, 0)

	// Exact substring scores a full window hit.
	assert.Equal(t, 1.0, m.Similarity("ACME", "ACME GLOBAL TRADING"))
	// Symmetric in argument order.
	assert.Equal(t, 1.0, m.Similarity("ACME GLOBAL TRADING", "ACME"))
}

func TestSimilarityTokenSortRatio(t *testing.T) {
	m := newTestMatcher(AlgorithmTokenSortRatio, 0)

	// Word order must not matter.
	assert.Equal(t, 1.0, m.Similarity("TRADING ACME", "ACME TRADING"))
}

func TestBestMatch(t *testing.T) {
	refs := []string{"TEHRAN TRADING", "GLOBAL HORIZONS", "ACME EXPORTS"}
	m := newTestMatcher(AlgorithmTokenSortRatio, DefaultFuzzyThreshold)

	match, ok := m.BestMatch("TEHRAN TRADINGS", refs)
	assert.True(t, ok)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, "TEHRAN TRADING", match.Name)
	assert.Greater(t, match.Score, 0.85)

	_, ok = m.BestMatch("ZENITH FREIGHT", refs)
	assert.False(t, ok, "dissimilar name must not match")
}

func TestBestMatchEmptyInputs(t *testing.T) {
	m := newTestMatcher(AlgorithmTokenSortRatio, DefaultFuzzyThreshold)

	_, ok := m.BestMatch("ACME", nil)
	assert.False(t, ok)

	_, ok = m.BestMatch("", []string{"ACME"})
	assert.False(t, ok)
}

func TestBestMatchFirstOccurrenceWins(t *testing.T) {
	// Two identical references: the earlier index must win the tie.
	refs := []string{"ACME EXPORTS", "ACME EXPORTS"}
	m := newTestMatcher(AlgorithmTokenSortRatio, DefaultFuzzyThreshold)

	match, ok := m.BestMatch("ACME EXPORTS", refs)
	assert.True(t, ok)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, 1.0, match.Score)
}

func TestNewMatcherFallbacks(t *testing.T) {
	m := NewMatcher("soundex", -1, zap.NewNop().Sugar())
	assert.Equal(t, AlgorithmTokenSortRatio, m.algorithm)
	assert.Equal(t, DefaultFuzzyThreshold, m.threshold)
}
