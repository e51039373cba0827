// Package dataset holds the reference reading-behavior corpus: an immutable
// string table with per-column numeric typing, plus loaders and a load-once
// provider.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Table is an immutable column-ordered table of raw string cells. Views
// returned by Select, Filter and SortBy share cells and column typing with
// their parent.
type Table struct {
	columns []string
	index   map[string]int
	numeric []bool
	rows    [][]string
}

// NewTable builds a table; short rows are padded with empty cells and long
// rows truncated. A column is numeric when every non-empty cell parses as a
// number or boolean.
func NewTable(columns []string, rows [][]string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)

	normalized := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(cols))
		copy(cells, row)
		normalized[i] = cells
	}

	t := &Table{
		columns: cols,
		index:   make(map[string]int, len(cols)),
		numeric: make([]bool, len(cols)),
		rows:    normalized,
	}
	for i, c := range cols {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for c := range cols {
		t.numeric[c] = t.detectNumeric(c)
	}
	return t
}

func (t *Table) detectNumeric(col int) bool {
	for _, row := range t.rows {
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		if _, ok := ParseNumber(cell); !ok {
			return false
		}
	}
	return true
}

// ParseNumber parses a numeric cell. true/false read as 1/0.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), false
	}
	switch strings.ToLower(s) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	case "nan", "na", "null", "none":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

func (t *Table) view(rows [][]string) *Table {
	return &Table{columns: t.columns, index: t.index, numeric: t.numeric, rows: rows}
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Lookup resolves a column name case-insensitively, trimming spaces.
func (t *Table) Lookup(name string) (string, bool) {
	if t.Has(name) {
		return name, true
	}
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.columns {
		if strings.ToLower(strings.TrimSpace(c)) == key {
			return c, true
		}
	}
	return "", false
}

func (t *Table) IsNumeric(name string) bool {
	i, ok := t.index[name]
	return ok && t.numeric[i]
}

// TextColumns lists non-numeric columns in table order.
func (t *Table) TextColumns() []string {
	var out []string
	for i, c := range t.columns {
		if !t.numeric[i] {
			out = append(out, c)
		}
	}
	return out
}

// NumericColumns lists numeric columns in table order.
func (t *Table) NumericColumns() []string {
	var out []string
	for i, c := range t.columns {
		if t.numeric[i] {
			out = append(out, c)
		}
	}
	return out
}

// Cell returns the raw cell, or "" for an unknown column.
func (t *Table) Cell(row int, name string) string {
	i, ok := t.index[name]
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Float returns the numeric value of a cell, NaN when missing or unparseable.
func (t *Table) Float(row int, name string) float64 {
	f, ok := ParseNumber(t.Cell(row, name))
	if !ok {
		return math.NaN()
	}
	return f
}

func (t *Table) Strings(name string) []string {
	out := make([]string, len(t.rows))
	i, ok := t.index[name]
	if !ok {
		return out
	}
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}

func (t *Table) Floats(name string) []float64 {
	out := make([]float64, len(t.rows))
	for r := range t.rows {
		out[r] = t.Float(r, name)
	}
	return out
}

// Head returns a view of at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n >= len(t.rows) {
		return t
	}
	return t.view(t.rows[:n])
}

// Select returns a view of the given rows in the given order.
func (t *Table) Select(rows []int) *Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = t.rows[r]
	}
	return t.view(out)
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var out [][]string
	for r, row := range t.rows {
		if keep(r) {
			out = append(out, row)
		}
	}
	return t.view(out)
}

// SortBy returns a view stably sorted by the given columns. Numeric columns
// compare by value with missing values last; others compare lexically.
func (t *Table) SortBy(cols []string) *Table {
	var keys []int
	for _, c := range cols {
		if i, ok := t.index[c]; ok {
			keys = append(keys, i)
		}
	}
	if len(keys) == 0 {
		return t
	}

	rows := make([][]string, len(t.rows))
	copy(rows, t.rows)
	sort.SliceStable(rows, func(a, b int) bool {
		for _, k := range keys {
			if c := t.compareCells(k, rows[a][k], rows[b][k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return t.view(rows)
}

func (t *Table) compareCells(col int, a, b string) int {
	if !t.numeric[col] {
		return strings.Compare(a, b)
	}
	fa, _ := ParseNumber(a)
	fb, _ := ParseNumber(b)
	aNaN, bNaN := math.IsNaN(fa), math.IsNaN(fb)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// Group is one distinct key combination and the rows carrying it.
type Group struct {
	Key  map[string]string
	Rows []int
}

// GroupBy partitions rows by the given columns, skipping rows with an empty
// key cell. Groups come back in key order.
func (t *Table) GroupBy(cols []string) []Group {
	var keys []int
	for _, c := range cols {
		if i, ok := t.index[c]; ok {
			keys = append(keys, i)
		}
	}

	byKey := make(map[string]*Group)
	var order []*Group
	var firstRow [][]string
	for r, row := range t.rows {
		parts := make([]string, len(keys))
		missing := false
		for p, k := range keys {
			parts[p] = strings.TrimSpace(row[k])
			if parts[p] == "" {
				missing = true
			}
		}
		if missing {
			continue
		}
		id := strings.Join(parts, "\x1f")
		g, ok := byKey[id]
		if !ok {
			key := make(map[string]string, len(keys))
			for p, k := range keys {
				key[t.columns[k]] = parts[p]
			}
			g = &Group{Key: key}
			byKey[id] = g
			order = append(order, g)
			firstRow = append(firstRow, row)
		}
		g.Rows = append(g.Rows, r)
	}

	idx := make([]int, len(order))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, k := range keys {
			if c := t.compareCells(k, firstRow[idx[a]][k], firstRow[idx[b]][k]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := make([]Group, len(order))
	for i, j := range idx {
		out[i] = *order[j]
	}
	return out
}
