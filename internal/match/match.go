// Package match finds the closest stored question to a user utterance.
//
// Similarity is the classic diff ratio: twice the number of characters
// the two strings share in an optimal diff, divided by their combined
// length. 1.0 means identical, 0.0 means nothing in common. Candidates
// at or above the configured threshold are considered; the best score
// wins, and the earliest candidate wins ties, so matching stays
// deterministic for a given candidate order.
package match

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultThreshold is the acceptance cutoff used when no threshold is
// configured.
const DefaultThreshold = 0.7

// Matcher scores utterances against candidate questions.
type Matcher struct {
	threshold float64
	dmp       *diffmatchpatch.DiffMatchPatch
}

// New creates a Matcher with the given acceptance threshold on a 0-1
// scale.
func New(threshold float64) *Matcher {
	return &Matcher{
		threshold: threshold,
		dmp:       diffmatchpatch.New(),
	}
}

// Threshold returns the configured acceptance cutoff.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Best returns the candidate most similar to the utterance, or ok=false
// when no candidate reaches the threshold. An exact match wins
// immediately regardless of threshold.
func (m *Matcher) Best(utterance string, candidates []string) (match string, ok bool) {
	best := -1.0
	for _, c := range candidates {
		if c == utterance {
			return c, true
		}
		score := m.Ratio(utterance, c)
		if score >= m.threshold && score > best {
			best = score
			match = c
		}
	}
	return match, best >= 0
}

// Ratio computes the similarity of two strings on a 0-1 scale.
func (m *Matcher) Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a)+len(b) == 0 {
		return 1.0
	}

	diffs := m.dmp.DiffMain(a, b, false)

	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return 2.0 * float64(common) / float64(len(a)+len(b))
}
