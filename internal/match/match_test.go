package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "hello", b: "hello", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "hello", b: "", want: 0.0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, m.Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatio_Symmetry(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)
	a, b := "What is your name?", "Tell me a joke"
	assert.InDelta(t, m.Ratio(a, b), m.Ratio(b, a), 1e-9)
}

func TestRatio_SingleCharDifference(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	// One deleted character out of 18+17 total characters:
	// 2*17/35 ≈ 0.97, comfortably above the cutoff.
	score := m.Ratio("What is your nam?", "What is your name?")
	assert.Greater(t, score, 0.9)
}

func TestBest_ExactMatchWins(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	// A near-identical decoy before the exact entry must not shadow it.
	candidates := []string{"What is your name?!", "What is your name?"}
	got, ok := m.Best("What is your name?", candidates)
	require.True(t, ok)
	assert.Equal(t, "What is your name?", got)
}

func TestBest_ThresholdBoundaryInclusive(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	// Seven common characters over 20 total: 2*7/20 = exactly 0.70.
	a, b := "abcdefgxxx", "abcdefgyyy"
	require.InDelta(t, 0.70, m.Ratio(a, b), 1e-9)

	// A score landing exactly on the cutoff is accepted.
	got, ok := m.Best(a, []string{b})
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestBest_ThresholdCutoff(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	candidates := []string{"Tell me a joke"}
	_, ok := m.Best("What is your name?", candidates)
	assert.False(t, ok, "dissimilar question must not match")
}

func TestBest_ClosestWins(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	candidates := []string{
		"What is your name",
		"What is your nam?",
		"Tell me a joke",
	}
	got, ok := m.Best("What is your name?", candidates)
	require.True(t, ok)
	assert.Equal(t, "What is your name", got)
}

func TestBest_NoCandidates(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)
	_, ok := m.Best("anything", nil)
	assert.False(t, ok)
}

func TestBest_Deterministic(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)
	candidates := []string{"what is go?", "what is go!", "what is go"}

	first, ok := m.Best("what is go", candidates) // exact entry present
	require.True(t, ok)
	for range 10 {
		got, ok := m.Best("what is go", candidates)
		require.True(t, ok)
		assert.Equal(t, first, got)
	}
}

func TestBest_TieBreaksEarliest(t *testing.T) {
	t.Parallel()

	m := New(DefaultThreshold)

	// Both candidates score identically against the utterance; the
	// earlier one must win.
	candidates := []string{"abcd1", "abcd2"}
	got, ok := m.Best("abcd", candidates)
	require.True(t, ok)
	assert.Equal(t, "abcd1", got)
}

func TestNew_CustomThreshold(t *testing.T) {
	t.Parallel()

	strict := New(0.99)
	assert.InDelta(t, 0.99, strict.Threshold(), 1e-9)

	_, ok := strict.Best("What is your name?", []string{"What is your nam?"})
	assert.False(t, ok, "0.99 cutoff rejects a one-character difference")

	lax := New(0.5)
	_, ok = lax.Best("What is your name?", []string{"What is your nam?"})
	assert.True(t, ok)
}
