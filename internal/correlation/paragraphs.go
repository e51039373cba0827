package correlation

import (
	"context"
	"strings"

	"reading-effort/internal/dataset"
	"reading-effort/internal/schema"
)

// MaxListedGroups caps the groups returned by Paragraphs.
const MaxListedGroups = 20

// browseColumns resolves the word column shown to a reader and the grouping
// columns left once it is removed. A paragraph column always wins over the
// requested column.
func browseColumns(t *dataset.Table, sch *schema.Schema, requested string) (string, []string) {
	word := sch.Word
	if !sch.HasParagraph() && requested != "" && t.Has(requested) {
		word = requested
	}
	var grouping []string
	for _, c := range sch.Grouping {
		if c != word {
			grouping = append(grouping, c)
		}
	}
	return word, grouping
}

// Paragraphs lists the corpus groups with their sizes, plus the columns a
// client can browse by.
func (s *Service) Paragraphs(ctx context.Context, wordColumn string) (res *ParagraphList, err error) {
	ctx, done := s.begin(ctx, OpParagraphs, 0)
	defer func() { done(err) }()

	t, err := s.provider.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	sch := s.schemaFor(t)
	word, grouping := browseColumns(t, sch, wordColumn)

	res = &ParagraphList{
		Groups:          []ParagraphGroup{},
		WordColumn:      word,
		WordCandidates:  nonNil(t.TextColumns()),
		GroupingColumns: nonNil(grouping),
		OrderColumns:    nonNil(sch.Order),
	}
	if len(grouping) == 0 {
		res.Groups = append(res.Groups, ParagraphGroup{Group: map[string]string{}, Size: t.Len()})
		return res, nil
	}
	for _, g := range t.GroupBy(grouping) {
		if len(res.Groups) == MaxListedGroups {
			break
		}
		res.Groups = append(res.Groups, ParagraphGroup{Group: g.Key, Size: len(g.Rows)})
	}
	return res, nil
}

// Paragraph returns the ordered words of one group. Unlike alignment, an
// unmatched group yields no words rather than the whole corpus.
func (s *Service) Paragraph(ctx context.Context, req ParagraphRequest) (res *ParagraphView, err error) {
	ctx, done := s.begin(ctx, OpParagraph, 0)
	defer func() { done(err) }()

	t, err := s.provider.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	sch := s.schemaFor(t)
	word, grouping := browseColumns(t, sch, req.WordColumn)

	sel := t.Filter(func(r int) bool {
		for _, col := range grouping {
			v, ok := req.Group[col]
			if ok && strings.TrimSpace(t.Cell(r, col)) != strings.TrimSpace(v) {
				return false
			}
		}
		return true
	}).SortBy(sch.Order)

	words := sel.Strings(word)
	if req.Limit > 0 && len(words) > req.Limit {
		words = words[:req.Limit]
	}
	return newParagraphView(words, req.Group, req.Limit), nil
}

// Metrics lists the allow-listed measurement columns present in the corpus.
func (s *Service) Metrics(ctx context.Context) (res []string, err error) {
	ctx, done := s.begin(ctx, OpMetrics, 0)
	defer func() { done(err) }()

	t, err := s.provider.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(schema.PreferredMetrics(t)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
