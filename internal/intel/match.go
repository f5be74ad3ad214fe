package intel

import (
	"math"

	"github.com/UKHO/kluster/internal/paths"
)

// Window is a [start, end] pair in whatever time base the caller uses
// (weekly seconds for navigation files, unix seconds elsewhere)
type Window [2]float64

// BestNameMatch returns the single candidate whose similarity to target is
// highest and at or above cutoff. Ties resolve to the earliest candidate in
// slice order, so results are stable across runs.
func BestNameMatch(candidates []string, target string, cutoff float64) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := Ratio(c, target)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= cutoff && best != "" {
		return best, true
	}
	return "", false
}

// SharedDirectory returns the candidates living in target's parent directory
func SharedDirectory(candidates []string, target string) []string {
	var out []string
	for _, c := range candidates {
		if paths.SameParent(c, target) {
			out = append(out, c)
		}
	}
	return out
}

// OverlappingWindows returns the indices of candidates whose start AND end
// are both within tolerance of the target window's start and end.
func OverlappingWindows(candidates []Window, target Window, tolerance float64) []int {
	var out []int
	for i, c := range candidates {
		if math.Abs(c[0]-target[0]) <= tolerance && math.Abs(c[1]-target[1]) <= tolerance {
			out = append(out, i)
		}
	}
	return out
}

// majorityVote picks the value appearing most often in the evidence list.
// Ties resolve to the value whose first occurrence comes earliest in evidence
// order; the vote is therefore deterministic for a given evidence sequence.
func majorityVote(evidence []string) (string, bool) {
	if len(evidence) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(evidence))
	for _, e := range evidence {
		counts[e]++
	}
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	for _, e := range evidence {
		if counts[e] == max {
			return e, true
		}
	}
	return "", false
}
