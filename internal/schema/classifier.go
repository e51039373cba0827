package schema

import (
	"reading-effort/internal/dataset"
)

// Schema is the inferred column layout of a table.
type Schema struct {
	Paragraph       string   `json:"paragraph,omitempty"`
	Token           string   `json:"token"`
	TokenCandidates []string `json:"token_candidates"`
	Word            string   `json:"word"`
	Grouping        []string `json:"grouping"`
	Order           []string `json:"order"`
	Positions       []string `json:"positions,omitempty"`
	Metrics         []string `json:"metrics"`
}

// HasParagraph reports whether rows carry whole-paragraph text.
func (s *Schema) HasParagraph() bool { return s.Paragraph != "" }

// Roles inverts the schema into the roles each column plays.
func (s *Schema) Roles() map[string][]ColumnRole {
	roles := make(map[string][]ColumnRole)
	add := func(role ColumnRole, cols ...string) {
		for _, c := range cols {
			if c != "" && !hasRole(roles[c], role) {
				roles[c] = append(roles[c], role)
			}
		}
	}

	add(RoleParagraphText, s.Paragraph)
	add(RoleWordToken, s.Token)
	add(RoleGroupingKey, s.Grouping...)
	add(RoleOrderKey, s.Order...)
	add(RolePositionIndex, s.Positions...)
	add(RoleMetric, s.Metrics...)
	return roles
}

// ColumnClassifier infers a Schema for a table. paraLen is the word count of
// the paragraph being aligned, or 0 when unknown.
type ColumnClassifier interface {
	Classify(t *dataset.Table, paraLen int) *Schema
}

// Classifier composes the package strategies.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify runs every strategy over t. Position candidates are only ranked
// for tables with a paragraph column since only paragraph alignment uses
// them.
func (c *Classifier) Classify(t *dataset.Table, paraLen int) *Schema {
	s := &Schema{
		Token:           TokenColumn(t),
		TokenCandidates: TokenCandidates(t),
		Word:            WordColumn(t),
		Grouping:        GroupingColumns(t),
		Order:           OrderColumns(t),
		Metrics:         MetricColumns(t),
	}
	if p, ok := ParagraphColumn(t); ok {
		s.Paragraph = p
		s.Positions = PositionCandidates(t, paraLen)
	}
	return s
}

func hasRole(roles []ColumnRole, role ColumnRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
