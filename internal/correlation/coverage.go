package correlation

// BestByCoverage evaluates candidates in order and keeps the result with the
// highest coverage. Earlier candidates win ties. Candidates whose eval
// reports ok=false are skipped; found is false when none succeeded.
func BestByCoverage[C, T any](candidates []C, eval func(C) (T, int, bool)) (best T, coverage int, found bool) {
	for _, c := range candidates {
		res, cov, ok := eval(c)
		if !ok {
			continue
		}
		if !found || cov > coverage {
			best, coverage, found = res, cov, true
		}
	}
	return best, coverage, found
}

// retryThreshold is the match count below which other token columns are
// tried.
func retryThreshold(words int) int {
	return max(5, words/10)
}
