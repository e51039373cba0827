package schema

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"reading-effort/internal/alignment"
	"reading-effort/internal/dataset"
)

// ParagraphLabel names the column holding a whole paragraph per row.
const ParagraphLabel = "paragraph"

// lexicalSampleSize bounds how many cells feed the lexical score.
const lexicalSampleSize = 1000

var (
	// TokenNames is the priority list for per-row token columns.
	TokenNames = []string{"Word", "word", "WORD", "Token", "token", "Stimulus", "stimulus", "FixWord", "fixword"}

	// WordNames is the priority list used when browsing paragraphs.
	WordNames = []string{"Word", "word", "WORD", "Stimulus", "stimulus", "Token", "token", "FixWord", "fixword"}

	PrimaryGroupNames   = []string{"TextID", "text_id", "Article", "article", "ItemID", "item", "Story", "story", "Doc", "doc"}
	SecondaryGroupNames = []string{"Paragraph", "paragraph", "Para", "para"}

	OrderSets = [][]string{
		{"SentenceID", "WordIndex"},
		{"sentence_id", "word_index"},
		{"Line", "WordIndex"},
		{"line", "word_index"},
		{"Index"},
		{"WordIndex"},
	}

	ExplicitPositionNames = []string{"WordIndex", "word_index", "Index"}

	// MetricAllowList holds the known eye-tracking and comprehension measures.
	MetricAllowList = []string{
		"CURRENT_FIX_DURATION",
		"CURRENT_FIX_INTEREST_AREA_DWELL_TIME",
		"CURRENT_FIX_INTEREST_AREA_FIX_COUNT",
		"CURRENT_FIX_REFIX_INTEREST_AREA",
		"TRIAL_FIXATION_TOTAL",
		"CURRENT_FIX_PUPIL",
		"PARAGRAPH_RT",
		"QUESTION_RT",
		"ANSWER_RT",
		"is_correct",
	}

	structuralNames = map[string]bool{
		"Sentence": true, "SentenceID": true, "TextID": true, "ItemID": true,
		"WordIndex": true, "Index": true, "Trial": true, "line": true,
	}
)

var (
	positionNamePattern   = regexp.MustCompile(`(?i)(word(_)?(index|id|number|no))|(position|pos)|(interest[_ ]?area|ia)(_|-)?(id|index|nr|no|num)?`)
	structuralNamePattern = regexp.MustCompile(`(?i)(index|label|start|end|time|timestamp|x$|_x$|y$|_y$|nearest|interest[_ ]?area)`)
	letterPattern         = regexp.MustCompile(`[a-zA-Z]`)
	// identifier-like cells such as l59_485 or w12-34
	codePattern = regexp.MustCompile(`^[A-Za-z]+\d+(?:[_-]\d+)?$`)
)

// IsParagraph reports whether a column name is the paragraph label.
func IsParagraph(column string) bool {
	return strings.ToLower(strings.TrimSpace(column)) == ParagraphLabel
}

func firstPresent(t *dataset.Table, names []string) (string, bool) {
	for _, n := range names {
		if t.Has(n) {
			return n, true
		}
	}
	return "", false
}

// ParagraphColumn finds the paragraph-text column by case-insensitive name.
func ParagraphColumn(t *dataset.Table) (string, bool) {
	for _, c := range t.Columns() {
		if IsParagraph(c) {
			return c, true
		}
	}
	return "", false
}

// LexicalScore rates how much a column looks like natural-language words:
// the share of cells with letters, a small bonus for word-like length and a
// penalty for identifier-like cells.
func LexicalScore(t *dataset.Table, column string) float64 {
	cells := t.Head(lexicalSampleSize).Strings(column)
	if len(cells) == 0 {
		return -1
	}

	var letters, codes, length int
	for _, cell := range cells {
		norm := alignment.Normalize(cell)
		length += utf8.RuneCountInString(norm)
		if letterPattern.MatchString(norm) {
			letters++
		}
		if codePattern.MatchString(cell) {
			codes++
		}
	}

	total := float64(len(cells))
	avgLen := float64(length) / total
	lengthBonus := math.Max(0, math.Min(1, (avgLen-3)/5))
	return float64(letters)/total + 0.1*lengthBonus - 0.7*float64(codes)/total
}

func lexicalBest(t *dataset.Table, columns []string) (string, bool) {
	if len(columns) == 0 {
		return "", false
	}
	order := columnOrder(t)
	cands := make([]Candidate, 0, len(columns))
	for _, c := range columns {
		cands = append(cands, Candidate{Column: c, Score: LexicalScore(t, c), Order: order[c]})
	}
	return Rank(cands)[0].Column, true
}

func columnOrder(t *dataset.Table) map[string]int {
	cols := t.Columns()
	order := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, ok := order[c]; !ok {
			order[c] = i
		}
	}
	return order
}

func nonParagraphText(t *dataset.Table) []string {
	var out []string
	for _, c := range t.TextColumns() {
		if !IsParagraph(c) {
			out = append(out, c)
		}
	}
	return out
}

func firstColumn(t *dataset.Table) string {
	cols := t.Columns()
	if len(cols) == 0 {
		return ""
	}
	return cols[0]
}

// TokenColumn picks the per-row word column used for token alignment. The
// paragraph column is never chosen.
func TokenColumn(t *dataset.Table) string {
	for _, n := range TokenNames {
		if t.Has(n) && !IsParagraph(n) {
			return n
		}
	}
	if best, ok := lexicalBest(t, nonParagraphText(t)); ok {
		return best
	}
	return firstColumn(t)
}

// TokenCandidates lists every column worth retrying token alignment on:
// priority names first, then the remaining text columns in table order.
func TokenCandidates(t *dataset.Table) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range TokenNames {
		if t.Has(n) && !IsParagraph(n) {
			out = append(out, n)
			seen[n] = true
		}
	}
	for _, c := range nonParagraphText(t) {
		if !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	if len(out) == 0 {
		if c := firstColumn(t); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// WordColumn picks the column shown when browsing paragraphs. A paragraph
// column always wins.
func WordColumn(t *dataset.Table) string {
	if p, ok := ParagraphColumn(t); ok {
		return p
	}
	if n, ok := firstPresent(t, WordNames); ok {
		return n
	}
	if best, ok := lexicalBest(t, t.TextColumns()); ok {
		return best
	}
	return firstColumn(t)
}

// GroupingColumns returns at most one document key and one paragraph key.
func GroupingColumns(t *dataset.Table) []string {
	var out []string
	if c, ok := firstPresent(t, PrimaryGroupNames); ok {
		out = append(out, c)
	}
	if c, ok := firstPresent(t, SecondaryGroupNames); ok {
		out = append(out, c)
	}
	return out
}

// OrderColumns returns the first order set fully present in the table.
func OrderColumns(t *dataset.Table) []string {
	for _, set := range OrderSets {
		complete := true
		for _, c := range set {
			if !t.Has(c) {
				complete = false
				break
			}
		}
		if complete {
			out := make([]string, len(set))
			copy(out, set)
			return out
		}
	}
	return nil
}

// ExplicitPositionColumn returns the conventional word-position column when
// it is numeric.
func ExplicitPositionColumn(t *dataset.Table) (string, bool) {
	for _, n := range ExplicitPositionNames {
		if t.Has(n) && t.IsNumeric(n) {
			return n, true
		}
	}
	return "", false
}

// PositionScore rates a numeric column as a word-position index for a
// paragraph of paraLen words. Columns without values score -1.
func PositionScore(t *dataset.Table, column string, paraLen int) float64 {
	var n, integral int
	distinct := make(map[float64]struct{})
	for _, v := range t.Floats(column) {
		if math.IsNaN(v) {
			continue
		}
		n++
		if v == math.Trunc(v) {
			integral++
		}
		distinct[v] = struct{}{}
	}
	if n == 0 {
		return -1
	}

	intLike := float64(integral) / float64(n)
	closeness := 0.0
	if paraLen > 0 {
		diff := math.Abs(float64(len(distinct) - paraLen))
		closeness = 1 - math.Min(1, diff/float64(paraLen))
	}
	coverage := float64(len(distinct)) / float64(n)
	return 0.5*intLike + 0.4*closeness + 0.1*coverage
}

// RankPositions scores numeric columns whose names look like positions, or
// every numeric column when none do.
func RankPositions(t *dataset.Table, paraLen int) []Candidate {
	numeric := t.NumericColumns()
	var named []string
	for _, c := range numeric {
		if positionNamePattern.MatchString(c) {
			named = append(named, c)
		}
	}
	if len(named) == 0 {
		named = numeric
	}

	order := columnOrder(t)
	cands := make([]Candidate, 0, len(named))
	for _, c := range named {
		cands = append(cands, Candidate{Column: c, Score: PositionScore(t, c, paraLen), Order: order[c]})
	}
	return Rank(cands)
}

// PositionCandidates lists position columns to try in order: the explicit
// word-position column first, then the ranked alternatives.
func PositionCandidates(t *dataset.Table, paraLen int) []string {
	ranked := Columns(RankPositions(t, paraLen))
	explicit, ok := ExplicitPositionColumn(t)
	if !ok {
		return ranked
	}
	out := []string{explicit}
	for _, c := range ranked {
		if c != explicit {
			out = append(out, c)
		}
	}
	return out
}

// PreferredMetrics returns allow-listed measures present in the table, using
// the table's spelling.
func PreferredMetrics(t *dataset.Table) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range MetricAllowList {
		if c, ok := t.Lookup(name); ok && !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	return out
}

// NumericMetrics returns numeric columns whose names do not look structural.
func NumericMetrics(t *dataset.Table) []string {
	var out []string
	for _, c := range t.NumericColumns() {
		if structuralNames[c] || structuralNamePattern.MatchString(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// MetricColumns returns the allow-listed measures, or the non-structural
// numeric columns when none are present.
func MetricColumns(t *dataset.Table) []string {
	if m := PreferredMetrics(t); len(m) > 0 {
		return m
	}
	return NumericMetrics(t)
}

// ResolveMetrics maps requested names to table columns case-insensitively.
// Unknown names are dropped; when nothing resolves MetricColumns applies.
func ResolveMetrics(t *dataset.Table, requested []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range requested {
		if c, ok := t.Lookup(name); ok && !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	if len(out) > 0 {
		return out
	}
	return MetricColumns(t)
}
