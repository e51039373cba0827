package alignment

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		name      string
		query     []string
		reference []string
		want      []int
	}{
		{
			name:      "filler in reference",
			query:     []string{"the", "cat", "sat"},
			reference: []string{"the", "big", "cat", "sat", "down"},
			want:      []int{0, 2, 3},
		},
		{
			name:      "case and punctuation drift",
			query:     []string{"The", "cat,", "SAT."},
			reference: []string{"the", "Cat", "sat"},
			want:      []int{0, 1, 2},
		},
		{
			name:      "unknown query token skipped",
			query:     []string{"the", "zzz", "cat"},
			reference: []string{"the", "cat"},
			want:      []int{0, Unmatched, 1},
		},
		{
			name:      "punctuation-only query token",
			query:     []string{"the", "--", "cat"},
			reference: []string{"the", "cat"},
			want:      []int{0, Unmatched, 1},
		},
		{
			name:      "first token absent starts at zero",
			query:     []string{"dog", "cat"},
			reference: []string{"the", "cat"},
			want:      []int{Unmatched, 1},
		},
		{
			name:      "footnote markers in reference",
			query:     []string{"reading", "is", "fun"},
			reference: []string{"reading", "[1]", "is", "*", "fun"},
			want:      []int{0, 2, 4},
		},
		{
			name:      "earliest start wins ties",
			query:     []string{"the", "cat"},
			reference: []string{"the", "cat", "the", "cat"},
			want:      []int{0, 1},
		},
		{
			name:      "gap longer than jump window",
			query:     []string{"a", "b"},
			reference: []string{"a", "x", "x", "x", "x", "x", "x", "x", "x", "x", "x", "b"},
			want:      []int{0, 11},
		},
		{
			name:      "no shared tokens",
			query:     []string{"alpha", "beta"},
			reference: []string{"gamma", "delta"},
			want:      []int{Unmatched, Unmatched},
		},
		{
			name:      "empty reference",
			query:     []string{"the"},
			reference: nil,
			want:      []int{Unmatched},
		},
		{
			name:      "empty query",
			query:     []string{},
			reference: []string{"the"},
			want:      []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Align(tt.query, tt.reference))
		})
	}
}

func TestAlign_Deterministic(t *testing.T) {
	query := []string{"one", "two", "three", "four", "two", "five"}
	reference := []string{"zero", "one", "two", "x", "three", "four", "two", "y", "five", "one", "two"}

	first := Align(query, reference)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Align(query, reference))
	}
}

func TestAlign_IndicesIncrease(t *testing.T) {
	query := []string{"a", "c", "b", "d", "e"}
	reference := []string{"a", "b", "c", "d", "e", "b"}

	idx := Align(query, reference)
	last := -1
	for _, j := range idx {
		if j == Unmatched {
			continue
		}
		assert.Greater(t, j, last)
		last = j
	}
}

// Inserting noise into the reference never lowers the match count for a
// query drawn as a subsequence of the original reference.
func TestAlign_NoiseNeverReducesMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := []string{"the", "a", "reader", "text", "word", "eye", "moves", "back", "slowly", "page"}

	for trial := 0; trial < 200; trial++ {
		reference := make([]string, 5+rng.Intn(30))
		for i := range reference {
			reference[i] = vocab[rng.Intn(len(vocab))]
		}

		var query []string
		for _, tok := range reference {
			if rng.Float64() < 0.6 {
				query = append(query, tok)
			}
		}
		if len(query) == 0 {
			query = []string{reference[0]}
		}

		noisy := make([]string, 0, len(reference)+3)
		for _, tok := range reference {
			if rng.Float64() < 0.15 {
				noisy = append(noisy, fmt.Sprintf("noise%d", rng.Intn(5)))
			}
			noisy = append(noisy, tok)
		}

		base := MatchCount(Align(query, reference))
		withNoise := MatchCount(Align(query, noisy))
		require.GreaterOrEqual(t, withNoise, base, "trial %d: query=%v reference=%v noisy=%v", trial, query, reference, noisy)
	}
}

func TestMatchCount(t *testing.T) {
	assert.Equal(t, 0, MatchCount(nil))
	assert.Equal(t, 2, MatchCount([]int{0, Unmatched, 4, Unmatched}))
}
