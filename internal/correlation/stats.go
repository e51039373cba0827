package correlation

import (
	"math"
)

// MinPairs is the fewest aligned pairs a correlation is computed from.
const MinPairs = 3

// Pearson returns the correlation coefficient of x and y. ok is false when
// the inputs differ in length, have fewer than MinPairs values, contain a
// non-finite value, or either side is constant.
func Pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n != len(y) || n < MinPairs {
		return 0, false
	}
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return 0, false
		}
	}
	if constant(x) || constant(y) {
		return 0, false
	}

	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}

	r := sxy / math.Sqrt(sxx*syy)
	if !finite(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// finitePairs keeps positions where the word is matched and both values are
// finite.
func finitePairs(matched []bool, x, y []float64) ([]float64, []float64) {
	var xs, ys []float64
	for i, ok := range matched {
		if ok && finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}
