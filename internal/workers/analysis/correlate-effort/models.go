// internal/workers/analysis/correlate-effort/models.go
package correlateeffort

import "reading-effort/internal/correlation"

type Input struct {
	Words      []string          `json:"words"`
	Effort     []float64         `json:"effort,omitempty"`
	Attention  [][]float64       `json:"attention,omitempty"`
	Knownness  []float64         `json:"knownness,omitempty"`
	WordColumn string            `json:"word_column,omitempty"`
	Group      correlation.Group `json:"group,omitempty"`
}

func (i *Input) request() correlation.CorrelateRequest {
	return correlation.CorrelateRequest{
		Words:      i.Words,
		Effort:     i.Effort,
		Attention:  i.Attention,
		Knownness:  i.Knownness,
		WordColumn: i.WordColumn,
		Group:      i.Group,
	}
}

type Output struct {
	MatchedCount       int                `json:"matchedCount"`
	TotalWords         int                `json:"totalWords"`
	MetricCorrelations map[string]float64 `json:"metricCorrelations"`
	UsedColumns        []string           `json:"usedColumns"`
	TokenColumn        string             `json:"tokenColumn,omitempty"`
	PositionColumn     string             `json:"positionColumn,omitempty"`
}

func newOutput(res *correlation.CorrelationResult) *Output {
	return &Output{
		MatchedCount:       res.MatchedCount,
		TotalWords:         res.TotalWords,
		MetricCorrelations: res.MetricCorrelations,
		UsedColumns:        res.UsedColumns,
		TokenColumn:        res.TokenColumn,
		PositionColumn:     res.PositionColumn,
	}
}
