// internal/workers/analysis/aligned-series/models.go
package alignedseries

import "reading-effort/internal/correlation"

type Input struct {
	Words      []string          `json:"words"`
	Metrics    []string          `json:"metrics,omitempty"`
	WordColumn string            `json:"word_column,omitempty"`
	Group      correlation.Group `json:"group,omitempty"`
}

// Output carries one entry per query word for every metric; null marks a
// word without an aligned measurement.
type Output struct {
	MatchedCount   int                   `json:"matchedCount"`
	TotalWords     int                   `json:"totalWords"`
	Series         map[string][]*float64 `json:"series"`
	UsedColumns    []string              `json:"usedColumns"`
	TokenColumn    string                `json:"tokenColumn,omitempty"`
	PositionColumn string                `json:"positionColumn,omitempty"`
}
