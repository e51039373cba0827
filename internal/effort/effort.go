// Package effort turns a square attention matrix into per-word integration,
// contribution and comprehension-effort scores.
//
// Cell A[i][j] is the attention target word i receives from source word j.
// Rightward sources count at half weight when integrating, leftward targets
// at half weight when contributing, and every term is discounted by
// 1/(1+distance).
package effort

import (
	"fmt"
	"math"

	"reading-effort/internal/common/errors"
)

const (
	// LookaheadWeight discounts right-of-target sources during integration
	// and left-of-source targets during contribution.
	LookaheadWeight = 0.5

	// MaxSequenceLength is the token cap of the attention model.
	MaxSequenceLength = 512
)

// Result holds three vectors of length n, each scaled into [0,1].
type Result struct {
	Integration  []float64 `json:"integration"`
	Contribution []float64 `json:"contribution"`
	Effort       []float64 `json:"effort"`
}

// Score computes integration, contribution and effort for every word.
// A nil knownness treats every word as fully known.
func Score(matrix [][]float64, knownness []float64) (*Result, error) {
	n, err := checkShape(matrix, knownness)
	if err != nil {
		return nil, err
	}
	if err := checkValues(matrix, knownness); err != nil {
		return nil, err
	}

	k := knownness
	if k == nil {
		k = make([]float64, n)
		for i := range k {
			k[i] = 1
		}
	}

	integration := integrate(matrix, k)
	contribution := contribute(matrix, k)

	effort := make([]float64, n)
	for i := range effort {
		effort[i] = (1 - integration[i]) + (1 - contribution[i])
	}

	return &Result{
		Integration:  integration,
		Contribution: contribution,
		Effort:       scaleByMax(effort),
	}, nil
}

func checkShape(matrix [][]float64, knownness []float64) (int, error) {
	n := len(matrix)
	for i, row := range matrix {
		if len(row) != n {
			return 0, errors.NewShapeError("attention_matrix",
				fmt.Sprintf("row %d has %d columns, want %d (matrix must be square)", i, len(row), n))
		}
	}
	if knownness != nil && len(knownness) != n {
		return 0, errors.NewShapeError("knownness",
			fmt.Sprintf("length %d does not match word count %d", len(knownness), n))
	}
	return n, nil
}

// checkValues rejects negative or non-finite attention and knownness
// outside [0,1].
func checkValues(matrix [][]float64, knownness []float64) error {
	for i, row := range matrix {
		for j, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewInvalidInputError(
					fmt.Sprintf("attention[%d][%d] = %v, want a finite value >= 0", i, j, v))
			}
		}
	}
	for i, v := range knownness {
		if !(v >= 0 && v <= 1) {
			return errors.NewInvalidInputError(
				fmt.Sprintf("knownness[%d] = %v, want a value in [0,1]", i, v))
		}
	}
	return nil
}

func integrate(a [][]float64, k []float64) []float64 {
	n := len(a)
	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		var left, right float64
		for j := 0; j < n; j++ {
			switch {
			case j < i:
				left += a[i][j] * k[j] / float64(1+i-j)
			case j > i:
				right += a[i][j] * k[j] / float64(1+j-i)
			}
		}
		raw[i] = left + LookaheadWeight*right
	}
	return scaleByMax(raw)
}

// contribute scores how much each source word feeds its context. The
// outgoing mass from i to j is A[j][i] weighted by the source's knownness.
func contribute(a [][]float64, k []float64) []float64 {
	n := len(a)
	right := make([]float64, n)
	left := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out := a[j][i] * k[i]
			switch {
			case j > i:
				right[i] += out / float64(1+j-i)
			case j < i:
				left[i] += out / float64(1+i-j)
			}
		}
	}

	divideByPositiveMax(right)
	divideByPositiveMax(left)

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = right[i] - LookaheadWeight*left[i]
	}
	return minMax(raw)
}

// scaleByMax divides by the maximum, or returns zeros when max <= 0.
func scaleByMax(v []float64) []float64 {
	out := make([]float64, len(v))
	m, ok := maxOf(v)
	if !ok || m <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / m
	}
	return out
}

func divideByPositiveMax(v []float64) {
	m, ok := maxOf(v)
	if !ok || m <= 0 {
		return
	}
	for i := range v {
		v[i] /= m
	}
}

// minMax rescales into [0,1], or returns zeros when the range collapses.
func minMax(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi <= lo {
		return out
	}
	for i, x := range v {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

func maxOf(v []float64) (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m, true
}
