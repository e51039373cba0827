// internal/workers/analysis/score-effort/models.go
package scoreeffort

type Input struct {
	Attention [][]float64 `json:"attention"`
	Knownness []float64   `json:"knownness,omitempty"`
	Tokens    []string    `json:"tokens,omitempty"`
}

type Output struct {
	Tokens       []string  `json:"effortTokens,omitempty"`
	Integration  []float64 `json:"integration"`
	Contribution []float64 `json:"contribution"`
	Effort       []float64 `json:"effort"`
}
