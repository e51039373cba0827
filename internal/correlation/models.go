package correlation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Group selects rows of the reference dataset by grouping-column value.
// Numbers and booleans in JSON are accepted and kept in their literal form.
type Group map[string]string

func (g *Group) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*g = nil
		return nil
	}

	out := make(Group, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case json.Number, bool:
			out[k] = fmt.Sprint(val)
		default:
			return fmt.Errorf("group value for %q must be a string or number", k)
		}
	}
	*g = out
	return nil
}

// CorrelateRequest pairs query words with per-word effort. When Effort is
// empty it is derived from Attention and Knownness.
type CorrelateRequest struct {
	Words      []string    `json:"words"`
	Effort     []float64   `json:"effort,omitempty"`
	Attention  [][]float64 `json:"attention,omitempty"`
	Knownness  []float64   `json:"knownness,omitempty"`
	WordColumn string      `json:"word_column,omitempty"`
	Group      Group       `json:"group,omitempty"`
}

type CorrelationResult struct {
	MatchedCount       int                `json:"matched_count"`
	TotalWords         int                `json:"total_words"`
	MetricCorrelations map[string]float64 `json:"metric_correlations"`
	UsedColumns        []string           `json:"used_columns"`
	TokenColumn        string             `json:"token_column,omitempty"`
	PositionColumn     string             `json:"position_column,omitempty"`
}

type SeriesRequest struct {
	Words      []string `json:"words"`
	Metrics    []string `json:"metrics"`
	WordColumn string   `json:"word_column,omitempty"`
	Group      Group    `json:"group,omitempty"`
}

// SeriesResult holds one value per query word and metric; nil marks a word
// without an aligned measurement.
type SeriesResult struct {
	MatchedCount   int                   `json:"matched_count"`
	TotalWords     int                   `json:"total_words"`
	Series         map[string][]*float64 `json:"series"`
	UsedColumns    []string              `json:"used_columns"`
	TokenColumn    string                `json:"token_column,omitempty"`
	PositionColumn string                `json:"position_column,omitempty"`
}

type ParagraphGroup struct {
	Group map[string]string `json:"group"`
	Size  int               `json:"size"`
}

type ParagraphList struct {
	Groups          []ParagraphGroup `json:"groups"`
	WordColumn      string           `json:"word_column"`
	WordCandidates  []string         `json:"word_candidates"`
	GroupingColumns []string         `json:"grouping_columns"`
	OrderColumns    []string         `json:"order_columns"`
}

type ParagraphRequest struct {
	Group      Group  `json:"group"`
	WordColumn string `json:"word_column,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type ParagraphView struct {
	Words []string          `json:"words"`
	Text  string            `json:"text"`
	Group map[string]string `json:"group"`
	Limit int               `json:"limit,omitempty"`
}

func newParagraphView(words []string, group Group, limit int) *ParagraphView {
	echo := make(map[string]string, len(group))
	for k, v := range group {
		echo[k] = v
	}
	if words == nil {
		words = []string{}
	}
	return &ParagraphView{
		Words: words,
		Text:  strings.Join(words, " "),
		Group: echo,
		Limit: limit,
	}
}
