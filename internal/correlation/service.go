// Package correlation aligns query words with the reference reading corpus
// and relates per-word effort to the corpus measurements.
package correlation

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"reading-effort/internal/alignment"
	"reading-effort/internal/cache"
	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/metrics"
	"reading-effort/internal/common/observability"
	"reading-effort/internal/dataset"
	"reading-effort/internal/effort"
	"reading-effort/internal/reports"
	"reading-effort/internal/schema"
)

const (
	OpCorrelate     = "correlate"
	OpAlignedSeries = "aligned_series"
	OpParagraphs    = "list_paragraphs"
	OpParagraph     = "get_paragraph"
	OpMetrics       = "list_metrics"
)

// ResultCache stores finished results; implemented by cache.ResultCache.
type ResultCache interface {
	GetJSON(ctx context.Context, namespace, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}) error
}

type Service struct {
	provider   dataset.Provider
	classifier schema.ColumnClassifier
	cache      ResultCache
	publisher  reports.Publisher
	obs        *observability.Observability
	log        logger.Logger

	datasetSchema atomic.Pointer[schemaMemo]
}

type schemaMemo struct {
	table  *dataset.Table
	schema *schema.Schema
}

type Option func(*Service)

func WithClassifier(c schema.ColumnClassifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p reports.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

func NewService(provider dataset.Provider, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		provider:   provider,
		classifier: schema.NewClassifier(),
		log:        log.WithFields(map[string]interface{}{"component": "correlation"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Correlate aligns req.Words with the corpus and returns, per metric, the
// Pearson correlation between effort and the aligned measurements. Metrics
// with too few finite pairs or a constant side are omitted.
func (s *Service) Correlate(ctx context.Context, req CorrelateRequest) (res *CorrelationResult, err error) {
	ctx, done := s.begin(ctx, OpCorrelate, len(req.Words))
	defer func() { done(err) }()

	scores := req.Effort
	if len(scores) == 0 && len(req.Attention) > 0 {
		r, err := effort.Score(req.Attention, req.Knownness)
		if err != nil {
			return nil, err
		}
		scores = r.Effort
	}
	n := min(len(req.Words), len(scores))
	words, scores := req.Words[:n], scores[:n]

	keyed := CorrelateRequest{Words: words, Effort: scores, WordColumn: req.WordColumn, Group: req.Group}
	res, err = cached(ctx, s, OpCorrelate, keyed, func(ctx context.Context) (*CorrelationResult, error) {
		return s.correlate(ctx, words, scores, req.WordColumn, req.Group)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) correlate(ctx context.Context, words []string, scores []float64, wordColumn string, group Group) (*CorrelationResult, error) {
	al, err := s.align(ctx, words, wordColumn, group)
	if err != nil {
		return nil, err
	}

	metricCols := al.schema.Metrics
	agg := al.aggregate(metricCols)
	metrics.MatchedWords.WithLabelValues(OpCorrelate, al.path()).Observe(float64(agg.count))

	res := &CorrelationResult{
		MatchedCount:       agg.count,
		TotalWords:         len(words),
		MetricCorrelations: map[string]float64{},
		UsedColumns:        []string{},
		TokenColumn:        al.column,
		PositionColumn:     agg.position,
	}
	if agg.count == 0 {
		s.log.Debug("no query words matched the corpus", map[string]interface{}{"words": len(words)})
		return res, nil
	}

	for _, m := range metricCols {
		x, y := finitePairs(agg.matched, scores, agg.values[m])
		if r, ok := Pearson(x, y); ok {
			res.MetricCorrelations[m] = r
			res.UsedColumns = append(res.UsedColumns, m)
		}
	}

	s.publish(ctx, res)
	return res, nil
}

// AlignedSeries returns, per resolved metric, the measurement aligned to each
// query word.
func (s *Service) AlignedSeries(ctx context.Context, req SeriesRequest) (res *SeriesResult, err error) {
	ctx, done := s.begin(ctx, OpAlignedSeries, len(req.Words))
	defer func() { done(err) }()

	return cached(ctx, s, OpAlignedSeries, req, func(ctx context.Context) (*SeriesResult, error) {
		return s.alignedSeries(ctx, req)
	})
}

func (s *Service) alignedSeries(ctx context.Context, req SeriesRequest) (*SeriesResult, error) {
	t, err := s.provider.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	res := &SeriesResult{
		TotalWords:  len(req.Words),
		Series:      map[string][]*float64{},
		UsedColumns: []string{},
	}
	metricCols := schema.ResolveMetrics(t, req.Metrics)
	if len(metricCols) == 0 {
		return res, nil
	}

	al, err := s.align(ctx, req.Words, req.WordColumn, req.Group)
	if err != nil {
		return nil, err
	}
	agg := al.aggregate(metricCols)
	metrics.MatchedWords.WithLabelValues(OpAlignedSeries, al.path()).Observe(float64(agg.count))

	res.MatchedCount = agg.count
	res.UsedColumns = metricCols
	res.TokenColumn = al.column
	res.PositionColumn = agg.position
	for _, m := range metricCols {
		series := make([]*float64, len(req.Words))
		for i, v := range agg.values[m] {
			if agg.matched[i] && finite(v) {
				val := v
				series[i] = &val
			}
		}
		res.Series[m] = series
	}
	return res, nil
}

// align selects the requested group and matches words against either the
// group's paragraph text or its per-row tokens.
func (s *Service) align(ctx context.Context, words []string, wordColumn string, group Group) (*aligned, error) {
	_, span := s.obs.StartSpan(ctx, "correlation.align", attribute.Int("words", len(words)))
	defer span.End()

	t, err := s.provider.Dataset(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	full := s.schemaFor(t)
	sel := selectGroup(t, full.Grouping, full.Order, group)

	paraLen := 0
	var reference []string
	if col, ok := schema.ParagraphColumn(sel); ok {
		reference = paragraphWords(sel, col)
		paraLen = len(reference)
	}
	sch := s.classifier.Classify(sel, paraLen)

	al := &aligned{table: sel, schema: sch}
	if sch.HasParagraph() {
		al.paragraph = true
		al.column = sch.Paragraph
		al.index = alignment.Align(words, reference)
	} else {
		column := sch.Token
		override, colErr := wordColumnOverride(sel, wordColumn)
		if colErr != nil {
			s.log.Warn("word column ignored", map[string]interface{}{
				"code":     string(errors.ErrCodeColumnNotFound),
				"column":   wordColumn,
				"fallback": column,
			})
		} else if override != "" {
			column = override
		}
		m := alignTokens(sel, sch.TokenCandidates, column, words)
		al.column, al.index = m.column, m.index
	}

	span.SetAttributes(
		attribute.String("path", al.path()),
		attribute.String("column", al.column),
		attribute.Int("rows", sel.Len()),
	)
	s.log.Debug("query aligned", map[string]interface{}{
		"path":      al.path(),
		"column":    al.column,
		"rows":      sel.Len(),
		"matched":   alignment.MatchCount(al.index),
		"positions": sch.Positions,
	})
	return al, nil
}

// wordColumnOverride returns the caller-named token column. A named column
// the group lacks, or one holding paragraph text, is COLUMN_NOT_FOUND and the
// inferred token column is used instead.
func wordColumnOverride(sel *dataset.Table, wordColumn string) (string, error) {
	if wordColumn == "" {
		return "", nil
	}
	if !sel.Has(wordColumn) || schema.IsParagraph(wordColumn) {
		return "", errors.NewColumnNotFoundError(wordColumn)
	}
	return wordColumn, nil
}

// schemaFor classifies the whole dataset once per loaded table.
func (s *Service) schemaFor(t *dataset.Table) *schema.Schema {
	if m := s.datasetSchema.Load(); m != nil && m.table == t {
		return m.schema
	}
	sch := s.classifier.Classify(t, 0)
	s.datasetSchema.Store(&schemaMemo{table: t, schema: sch})
	return sch
}

func (s *Service) publish(ctx context.Context, res *CorrelationResult) {
	if s.publisher == nil {
		return
	}
	r := reports.NewReport(OpCorrelate, s.provider.Source())
	r.MatchedCount = res.MatchedCount
	r.TotalWords = res.TotalWords
	r.TokenColumn = res.TokenColumn
	for k, v := range res.MetricCorrelations {
		r.Correlations[k] = v
	}
	if err := s.publisher.Publish(ctx, r); err != nil {
		s.log.Warn("report publishing failed", map[string]interface{}{
			"report_id": r.ID,
			"error":     err.Error(),
		})
	}
}

// begin opens a span and returns the func that records the outcome.
func (s *Service) begin(ctx context.Context, op string, words int) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "correlation."+op, attribute.Int("words", words))
	return ctx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		elapsed := time.Since(start)
		metrics.AnalysisRequests.WithLabelValues(op, status).Inc()
		metrics.AnalysisDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		s.obs.RecordAnalysis(ctx, op, status, elapsed)
	}
}

// cached serves res from the result cache when possible. Cache failures are
// logged and bypassed.
func cached[T any](ctx context.Context, s *Service, namespace string, req interface{}, compute func(context.Context) (*T, error)) (*T, error) {
	if s.cache == nil {
		return compute(ctx)
	}

	key, err := cache.Key(namespace, s.provider.Source(), req)
	if err != nil {
		s.log.Warn("cache key unavailable", map[string]interface{}{"error": err.Error()})
		return compute(ctx)
	}

	var hit T
	found, err := s.cache.GetJSON(ctx, namespace, key, &hit)
	switch {
	case err != nil:
		s.log.Warn("cache lookup failed", map[string]interface{}{"namespace": namespace, "error": err.Error()})
	case found:
		return &hit, nil
	}

	res, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, res); err != nil {
		s.log.Warn("cache store failed", map[string]interface{}{"namespace": namespace, "error": err.Error()})
	}
	return res, nil
}
