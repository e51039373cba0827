// Package schema infers which columns of a reference dataset carry words,
// paragraph text, grouping keys, ordering, word positions and reading
// measurements.
package schema

import (
	"sort"
)

// ColumnRole is the part a column plays in alignment and aggregation.
type ColumnRole int

const (
	RoleWordToken ColumnRole = iota
	RoleParagraphText
	RoleGroupingKey
	RoleOrderKey
	RolePositionIndex
	RoleMetric
)

func (r ColumnRole) String() string {
	switch r {
	case RoleWordToken:
		return "word_token"
	case RoleParagraphText:
		return "paragraph_text"
	case RoleGroupingKey:
		return "grouping_key"
	case RoleOrderKey:
		return "order_key"
	case RolePositionIndex:
		return "position_index"
	case RoleMetric:
		return "metric"
	default:
		return "unknown"
	}
}

func (r ColumnRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Candidate is a scored column. Order is the column's position in the table
// and breaks score ties.
type Candidate struct {
	Column string
	Score  float64
	Order  int
}

// Rank sorts candidates by score, highest first. Equal scores keep table
// order.
func Rank(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Order < out[b].Order
	})
	return out
}

// Columns returns the candidate names in their current order.
func Columns(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Column
	}
	return out
}
