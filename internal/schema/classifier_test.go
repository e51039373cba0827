package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_ParagraphDataset(t *testing.T) {
	tbl := table(
		[]string{"TextID", "paragraph", "IA_ID", "WordIndex", "CURRENT_FIX_DURATION", "PARAGRAPH_RT"},
		[]string{"t1", "t1", "t1"},
		[]string{"The cat sat", "The cat sat", "The cat sat"},
		[]string{"1", "2", "3"},
		[]string{"1", "2", "3"},
		[]string{"200", "180", "210"},
		[]string{"3.1", "3.1", "3.1"},
	)

	s := NewClassifier().Classify(tbl, 3)
	require.True(t, s.HasParagraph())

	assert.Equal(t, "paragraph", s.Paragraph)
	assert.Equal(t, "paragraph", s.Word)
	assert.Equal(t, "TextID", s.Token)
	assert.Equal(t, []string{"TextID", "paragraph"}, s.Grouping)
	assert.Equal(t, []string{"WordIndex"}, s.Order)
	assert.Equal(t, []string{"WordIndex", "IA_ID"}, s.Positions)
	assert.Equal(t, []string{"CURRENT_FIX_DURATION", "PARAGRAPH_RT"}, s.Metrics)

	roles := s.Roles()
	assert.Equal(t, []ColumnRole{RoleParagraphText, RoleGroupingKey}, roles["paragraph"])
	assert.Equal(t, []ColumnRole{RoleOrderKey, RolePositionIndex}, roles["WordIndex"])
	assert.Equal(t, []ColumnRole{RoleMetric}, roles["PARAGRAPH_RT"])
}

func TestClassifier_TokenDataset(t *testing.T) {
	tbl := table(
		[]string{"Word", "SentenceID", "WordIndex", "is_correct"},
		[]string{"the", "cat"},
		[]string{"1", "1"},
		[]string{"1", "2"},
		[]string{"True", "False"},
	)

	s := NewClassifier().Classify(tbl, 0)

	assert.False(t, s.HasParagraph())
	assert.Empty(t, s.Positions)
	assert.Equal(t, "Word", s.Token)
	assert.Equal(t, []string{"Word"}, s.TokenCandidates)
	assert.Equal(t, []string{"SentenceID", "WordIndex"}, s.Order)
	assert.Empty(t, s.Grouping)
	assert.Equal(t, []string{"is_correct"}, s.Metrics)
	assert.Equal(t, []ColumnRole{RoleWordToken}, s.Roles()["Word"])
}

func TestColumnRole_String(t *testing.T) {
	assert.Equal(t, "word_token", RoleWordToken.String())
	assert.Equal(t, "position_index", RolePositionIndex.String())
	assert.Equal(t, "unknown", ColumnRole(42).String())

	text, err := RoleMetric.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "metric", string(text))
}
