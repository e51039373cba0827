// Package alignment maps a query word sequence onto a reference token
// sequence whose tokenization may differ (extra markers, punctuation drift,
// dropped or inserted words).
package alignment

// Unmatched marks a query position with no reference counterpart.
const Unmatched = -1

const (
	// MaxStartCandidates caps how many occurrences of the first query token
	// are tried as walk origins.
	MaxStartCandidates = 200
	// MaxForwardJump is how far ahead the reference is probed on a mismatch.
	MaxForwardJump = 8
	// MaxQuerySkip bounds how many unknown query tokens are skipped in one
	// resync attempt.
	MaxQuerySkip = 2
	// StepBudget bounds the work done by a single walk.
	StepBudget = 2000
)

// Align returns, for every query word, the index of the reference token it
// maps to or Unmatched. Both sides are compared after Normalize.
//
// A greedy two-pointer walk is simulated from every occurrence of the first
// non-empty query token and the walk with the most matches is kept; the
// earliest start wins ties. Indices recorded by one walk are strictly
// increasing because the reference pointer never moves backwards.
func Align(query, reference []string) []int {
	a := newAligner(query, reference)

	best := -1
	bestMap := unmatched(len(query))
	for _, start := range a.startCandidates() {
		matched, mapping := a.walk(start)
		if matched > best {
			best, bestMap = matched, mapping
		}
	}
	return bestMap
}

// MatchCount counts mapped positions in an alignment.
func MatchCount(idx []int) int {
	n := 0
	for _, j := range idx {
		if j >= 0 {
			n++
		}
	}
	return n
}

type aligner struct {
	query     []string
	reference []string
	positions map[string][]int
}

func newAligner(query, reference []string) *aligner {
	a := &aligner{
		query:     NormalizeAll(query),
		reference: NormalizeAll(reference),
		positions: make(map[string][]int),
	}
	for j, tok := range a.reference {
		if tok == "" {
			continue
		}
		a.positions[tok] = append(a.positions[tok], j)
	}
	return a
}

func (a *aligner) startCandidates() []int {
	for _, tok := range a.query {
		if tok == "" {
			continue
		}
		starts := a.positions[tok]
		if len(starts) > MaxStartCandidates {
			starts = starts[:MaxStartCandidates]
		}
		if len(starts) > 0 {
			return starts
		}
		break
	}
	return []int{0}
}

func (a *aligner) walk(start int) (int, []int) {
	mapping := unmatched(len(a.query))
	matched := 0
	i, j := 0, start
	if j < 0 {
		j = 0
	}

	for steps := 0; i < len(a.query) && j < len(a.reference) && steps < StepBudget; steps++ {
		word := a.query[i]
		if word == "" {
			i++
			continue
		}

		if word == a.reference[j] {
			mapping[i] = j
			matched++
			i++
			j++
			continue
		}

		if k, ok := a.probe(word, j); ok {
			mapping[i] = k
			matched++
			i++
			j = k + 1
			continue
		}

		skipped := 0
		for skipped < MaxQuerySkip && i < len(a.query) && a.query[i] != "" && !a.known(a.query[i]) {
			i++
			skipped++
		}
		if skipped == 0 {
			j++
		}
	}
	return matched, mapping
}

// probe looks up to MaxForwardJump tokens past j for word.
func (a *aligner) probe(word string, j int) (int, bool) {
	for k := 1; k <= MaxForwardJump; k++ {
		if j+k >= len(a.reference) {
			break
		}
		if a.reference[j+k] == word {
			return j + k, true
		}
	}
	return 0, false
}

func (a *aligner) known(tok string) bool {
	_, ok := a.positions[tok]
	return ok
}

func unmatched(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = Unmatched
	}
	return m
}
