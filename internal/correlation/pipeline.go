package correlation

import (
	"math"
	"strings"

	"reading-effort/internal/alignment"
	"reading-effort/internal/dataset"
	"reading-effort/internal/schema"
)

const (
	pathParagraph = "paragraph"
	pathToken     = "token"
)

// aligned is the outcome of matching query words against the selected rows.
type aligned struct {
	table     *dataset.Table
	schema    *schema.Schema
	index     []int
	column    string
	paragraph bool
}

func (a *aligned) path() string {
	if a.paragraph {
		return pathParagraph
	}
	return pathToken
}

// aggregate holds per-word metric values. values[m][i] is NaN when word i
// has no measurement.
type aggregate struct {
	matched  []bool
	values   map[string][]float64
	count    int
	position string
}

func newAggregate(words int, metrics []string) *aggregate {
	agg := &aggregate{
		matched: make([]bool, words),
		values:  make(map[string][]float64, len(metrics)),
	}
	for _, m := range metrics {
		vals := make([]float64, words)
		for i := range vals {
			vals[i] = math.NaN()
		}
		agg.values[m] = vals
	}
	return agg
}

// selectGroup narrows t to the rows whose grouping cells equal the requested
// values, ordered by the order columns. An empty selection leaves t whole.
func selectGroup(t *dataset.Table, grouping, order []string, group Group) *dataset.Table {
	if len(group) == 0 || len(grouping) == 0 {
		return t
	}

	type filter struct{ column, value string }
	var filters []filter
	for _, col := range grouping {
		if v, ok := group[col]; ok {
			filters = append(filters, filter{col, strings.TrimSpace(v)})
		}
	}

	sel := t.Filter(func(r int) bool {
		for _, f := range filters {
			if strings.TrimSpace(t.Cell(r, f.column)) != f.value {
				return false
			}
		}
		return true
	})
	if sel.Len() == 0 {
		return t
	}
	return sel.SortBy(order)
}

// paragraphWords splits the first non-empty paragraph cell into words.
func paragraphWords(t *dataset.Table, column string) []string {
	for _, cell := range t.Strings(column) {
		if strings.TrimSpace(cell) != "" {
			return alignment.SplitWords(cell)
		}
	}
	return nil
}

type tokenMatch struct {
	column string
	index  []int
}

// alignTokens aligns words against one row per token. When the first column
// matches too few words the remaining candidates are tried and a strictly
// better one replaces it.
func alignTokens(t *dataset.Table, candidates []string, column string, words []string) tokenMatch {
	first := tokenMatch{column: column, index: alignment.Align(words, t.Strings(column))}
	count := alignment.MatchCount(first.index)
	if count >= retryThreshold(len(words)) {
		return first
	}

	cands := []string{column}
	for _, c := range candidates {
		if c != column {
			cands = append(cands, c)
		}
	}
	best, _, _ := BestByCoverage(cands, func(col string) (tokenMatch, int, bool) {
		if col == column {
			return first, count, true
		}
		idx := alignment.Align(words, t.Strings(col))
		return tokenMatch{column: col, index: idx}, alignment.MatchCount(idx), true
	})
	return best
}

// aggregateRows reads metrics from the aligned row of each matched word.
func aggregateRows(t *dataset.Table, index []int, metrics []string) *aggregate {
	agg := newAggregate(len(index), metrics)
	for i, j := range index {
		if j < 0 {
			continue
		}
		agg.matched[i] = true
		agg.count++
		for _, m := range metrics {
			agg.values[m][i] = t.Float(j, m)
		}
	}
	return agg
}

type positionGroup struct {
	sums   []float64
	counts []int
}

// aggregatePosition averages metrics per value of the position column and
// maps paragraph word j to position j+floor(min). ok is false when the column
// has no values.
func aggregatePosition(t *dataset.Table, column string, index []int, metrics []string) (*aggregate, bool) {
	positions := t.Floats(column)
	series := make([][]float64, len(metrics))
	for k, m := range metrics {
		series[k] = t.Floats(m)
	}

	groups := make(map[float64]*positionGroup)
	lowest := math.Inf(1)
	for r, p := range positions {
		if math.IsNaN(p) {
			continue
		}
		g, ok := groups[p]
		if !ok {
			g = &positionGroup{sums: make([]float64, len(metrics)), counts: make([]int, len(metrics))}
			groups[p] = g
		}
		for k := range metrics {
			if v := series[k][r]; !math.IsNaN(v) {
				g.sums[k] += v
				g.counts[k]++
			}
		}
		lowest = math.Min(lowest, p)
	}
	if len(groups) == 0 {
		return nil, false
	}

	base := int(math.Trunc(lowest))
	agg := newAggregate(len(index), metrics)
	agg.position = column
	for i, j := range index {
		if j < 0 {
			continue
		}
		g, ok := groups[float64(j+base)]
		if !ok {
			continue
		}
		agg.matched[i] = true
		agg.count++
		for k, m := range metrics {
			if g.counts[k] > 0 {
				agg.values[m][i] = g.sums[k] / float64(g.counts[k])
			}
		}
	}
	return agg, true
}

// aggregateParagraph keeps the position column that maps the most words.
func aggregateParagraph(t *dataset.Table, positions []string, index []int, metrics []string) *aggregate {
	best, _, found := BestByCoverage(positions, func(col string) (*aggregate, int, bool) {
		agg, ok := aggregatePosition(t, col, index, metrics)
		if !ok {
			return nil, 0, false
		}
		return agg, agg.count, true
	})
	if !found {
		return newAggregate(len(index), metrics)
	}
	return best
}

func (a *aligned) aggregate(metrics []string) *aggregate {
	if a.paragraph {
		return aggregateParagraph(a.table, a.schema.Positions, a.index, metrics)
	}
	return aggregateRows(a.table, a.index, metrics)
}
