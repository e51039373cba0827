package correlation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/cache"
	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/dataset"
	"reading-effort/internal/reports"
)

// tokenCorpus has one row per word, two texts.
func tokenCorpus() *dataset.Table {
	return dataset.NewTable(
		[]string{"TextID", "Word", "WordIndex", "CURRENT_FIX_DURATION", "PARAGRAPH_RT", "is_correct"},
		[][]string{
			{"t1", "The", "1", "100", "5", "1"},
			{"t1", "cat", "2", "200", "5", "0"},
			{"t1", "sat", "3", "300", "5", "1"},
			{"t1", "on", "4", "400", "5", "0"},
			{"t1", "the", "5", "500", "5", "1"},
			{"t1", "mat.", "6", "600", "5", "0"},
			{"t2", "loudly", "3", "250", "7", "1"},
			{"t2", "dogs", "1", "150", "7", "1"},
			{"t2", "bark", "2", "", "7", "0"},
		},
	)
}

// paragraphCorpus has one row per fixation with the paragraph repeated.
func paragraphCorpus() *dataset.Table {
	const text = "The quick brown fox jumps"
	return dataset.NewTable(
		[]string{"TextID", "paragraph", "WordIndex", "IA_ID", "CURRENT_FIX_DURATION"},
		[][]string{
			{"t1", text, "1", "1", "100"},
			{"t1", text, "1", "1", "120"},
			{"t1", text, "7", "2", "200"},
			{"t1", text, "8", "3", "300"},
			{"t1", text, "9", "4", "400"},
			{"t1", text, "9", "5", "500"},
			{"t2", "Another text entirely", "1", "1", "90"},
		},
	)
}

func newTestService(t *testing.T, tbl *dataset.Table, opts ...Option) *Service {
	return NewService(dataset.NewStaticProvider("fixture", tbl), logger.NewTestLogger(t), opts...)
}

func TestCorrelate_TokenPath(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the", "cat", "sat", "on", "the", "mat"},
		Effort: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.MatchedCount)
	assert.Equal(t, 6, res.TotalWords)
	assert.Equal(t, "Word", res.TokenColumn)
	assert.Equal(t, []string{"CURRENT_FIX_DURATION", "is_correct"}, res.UsedColumns)
	assert.InDelta(t, 1.0, res.MetricCorrelations["CURRENT_FIX_DURATION"], 1e-9)
	assert.InDelta(t, -0.2928, res.MetricCorrelations["is_correct"], 1e-3)
}

func TestCorrelate_ConstantMetricOmitted(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the", "cat", "sat", "on", "the", "mat"},
		Effort: []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2},
		Group:  Group{"TextID": "t1"},
	})
	require.NoError(t, err)

	assert.NotContains(t, res.MetricCorrelations, "PARAGRAPH_RT")
	assert.NotContains(t, res.UsedColumns, "PARAGRAPH_RT")
}

func TestCorrelate_NoMatch(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"zebra", "quantum", "xylophone"},
		Effort: []float64{0.2, 0.5, 0.9},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.MatchedCount)
	assert.Equal(t, 3, res.TotalWords)
	assert.Empty(t, res.MetricCorrelations)
	assert.NotNil(t, res.MetricCorrelations)
	assert.Empty(t, res.UsedColumns)
}

func TestCorrelate_TrimsToShorterInput(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the", "cat", "sat", "on"},
		Effort: []float64{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalWords)
	assert.Equal(t, 3, res.MatchedCount)
}

func TestCorrelate_GroupSelection(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"dogs", "bark", "loudly"},
		Effort: []float64{0.1, 0.2, 0.3},
		Group:  Group{"TextID": "t2"},
	})
	require.NoError(t, err)

	// rows are ordered by WordIndex after selection, so all three align
	assert.Equal(t, 3, res.MatchedCount)
	// bark has no duration, leaving two finite pairs
	assert.NotContains(t, res.MetricCorrelations, "CURRENT_FIX_DURATION")
}

func TestCorrelate_RetriesOtherTokenColumns(t *testing.T) {
	tbl := dataset.NewTable(
		[]string{"Word", "lemma", "CURRENT_FIX_DURATION"},
		[][]string{
			{"w1", "a", "100"},
			{"w2", "small", "180"},
			{"w3", "dog", "260"},
			{"w4", "ran", "200"},
			{"w5", "far", "300"},
			{"w6", "away", "320"},
		},
	)
	words := []string{"a", "small", "dog", "ran", "far", "away"}
	effort := []float64{0.1, 0.4, 0.6, 0.5, 0.8, 0.9}

	res, err := newTestService(t, tbl).Correlate(context.Background(), CorrelateRequest{Words: words, Effort: effort})
	require.NoError(t, err)
	assert.Equal(t, "lemma", res.TokenColumn)
	assert.Equal(t, 6, res.MatchedCount)
	assert.Contains(t, res.MetricCorrelations, "CURRENT_FIX_DURATION")

	res, err = newTestService(t, tbl).Correlate(context.Background(), CorrelateRequest{
		Words: words, Effort: effort, WordColumn: "lemma",
	})
	require.NoError(t, err)
	assert.Equal(t, "lemma", res.TokenColumn)
}

func TestWordColumnOverride(t *testing.T) {
	tbl := tokenCorpus()

	col, err := wordColumnOverride(tbl, "")
	require.NoError(t, err)
	assert.Empty(t, col)

	col, err = wordColumnOverride(tbl, "Word")
	require.NoError(t, err)
	assert.Equal(t, "Word", col)

	_, err = wordColumnOverride(tbl, "lemma")
	assert.True(t, errors.IsCode(err, errors.ErrCodeColumnNotFound))

	_, err = wordColumnOverride(paragraphCorpus(), "paragraph")
	assert.True(t, errors.IsCode(err, errors.ErrCodeColumnNotFound))
}

func TestCorrelate_UnknownWordColumnFallsBack(t *testing.T) {
	res, err := newTestService(t, tokenCorpus()).Correlate(context.Background(), CorrelateRequest{
		Words:      []string{"the", "cat", "sat", "on", "the", "mat"},
		Effort:     []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		WordColumn: "lemma",
	})
	require.NoError(t, err)
	assert.Equal(t, "Word", res.TokenColumn)
	assert.Equal(t, 6, res.MatchedCount)
}

func TestCorrelate_ParagraphPath(t *testing.T) {
	svc := newTestService(t, paragraphCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"The", "quick", "brown", "fox", "jumps"},
		Effort: []float64{0.1, 0.2, 0.3, 0.4, 0.5},
		Group:  Group{"TextID": "t1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "paragraph", res.TokenColumn)
	// WordIndex is tried first but maps a single word
	assert.Equal(t, "IA_ID", res.PositionColumn)
	assert.Equal(t, 5, res.MatchedCount)
	assert.Greater(t, res.MetricCorrelations["CURRENT_FIX_DURATION"], 0.99)
}

func TestCorrelate_FromAttention(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words: []string{"the", "cat", "sat"},
		Attention: [][]float64{
			{0, 0.5, 0.5},
			{1, 0, 0},
			{0.2, 0.8, 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalWords)
	assert.Equal(t, 3, res.MatchedCount)

	_, err = svc.Correlate(context.Background(), CorrelateRequest{
		Words:     []string{"the", "cat"},
		Attention: [][]float64{{0, 1}, {1}},
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeError))
}

func TestCorrelate_DatasetUnavailable(t *testing.T) {
	svc := NewService(dataset.NewStaticProvider("missing", nil), logger.NewTestLogger(t))

	_, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the"},
		Effort: []float64{1},
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetUnavailable))
}

func TestAlignedSeries_ParagraphPath(t *testing.T) {
	svc := newTestService(t, paragraphCorpus())

	res, err := svc.AlignedSeries(context.Background(), SeriesRequest{
		Words:   []string{"the", "quick", "zzz", "fox"},
		Metrics: []string{"current_fix_duration", "nope"},
		Group:   Group{"TextID": "t1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.MatchedCount)
	assert.Equal(t, 4, res.TotalWords)
	assert.Equal(t, []string{"CURRENT_FIX_DURATION"}, res.UsedColumns)

	series := res.Series["CURRENT_FIX_DURATION"]
	require.Len(t, series, 4)
	assert.InDelta(t, 110.0, *series[0], 1e-9)
	assert.InDelta(t, 200.0, *series[1], 1e-9)
	assert.Nil(t, series[2])
	assert.InDelta(t, 400.0, *series[3], 1e-9)
}

func TestAlignedSeries_TokenPathMissingValues(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.AlignedSeries(context.Background(), SeriesRequest{
		Words:   []string{"dogs", "bark"},
		Metrics: []string{"CURRENT_FIX_DURATION"},
		Group:   Group{"TextID": "t2"},
	})
	require.NoError(t, err)

	series := res.Series["CURRENT_FIX_DURATION"]
	assert.Equal(t, 2, res.MatchedCount)
	assert.Equal(t, "Word", res.TokenColumn)
	assert.InDelta(t, 150.0, *series[0], 1e-9)
	assert.Nil(t, series[1])
}

func TestAlignedSeries_DefaultsToAllowList(t *testing.T) {
	svc := newTestService(t, tokenCorpus())

	res, err := svc.AlignedSeries(context.Background(), SeriesRequest{Words: []string{"cat"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"CURRENT_FIX_DURATION", "PARAGRAPH_RT", "is_correct"}, res.UsedColumns)
	assert.Len(t, res.Series, 3)
}

func TestAlignedSeries_NoMetrics(t *testing.T) {
	tbl := dataset.NewTable([]string{"Word"}, [][]string{{"cat"}})

	res, err := newTestService(t, tbl).AlignedSeries(context.Background(), SeriesRequest{Words: []string{"cat"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchedCount)
	assert.Empty(t, res.Series)
	assert.Empty(t, res.TokenColumn)
}

type countingProvider struct {
	dataset.Provider
	calls int32
}

func (p *countingProvider) Dataset(ctx context.Context) (*dataset.Table, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.Provider.Dataset(ctx)
}

func TestCorrelate_ServedFromCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc := cache.NewResultCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	provider := &countingProvider{Provider: dataset.NewStaticProvider("fixture", tokenCorpus())}
	svc := NewService(provider, logger.NewTestLogger(t), WithCache(rc))
	req := CorrelateRequest{
		Words:  []string{"the", "cat", "sat", "on", "the", "mat"},
		Effort: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	}

	first, err := svc.Correlate(context.Background(), req)
	require.NoError(t, err)
	calls := atomic.LoadInt32(&provider.calls)

	second, err := svc.Correlate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, calls, atomic.LoadInt32(&provider.calls))
	assert.Len(t, mr.Keys(), 1)
}

func TestCorrelate_CacheFailureIsBypassed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rc := cache.NewResultCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	mr.Close()

	svc := newTestService(t, tokenCorpus(), WithCache(rc))
	res, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the", "cat", "sat"},
		Effort: []float64{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.MatchedCount)
}

type capturePublisher struct {
	reports []*reports.Report
}

func (c *capturePublisher) Publish(_ context.Context, r *reports.Report) error {
	c.reports = append(c.reports, r)
	return nil
}

func TestCorrelate_PublishesReport(t *testing.T) {
	pub := &capturePublisher{}
	svc := newTestService(t, tokenCorpus(), WithPublisher(pub))

	_, err := svc.Correlate(context.Background(), CorrelateRequest{
		Words:  []string{"the", "cat", "sat", "on", "the", "mat"},
		Effort: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	})
	require.NoError(t, err)

	require.Len(t, pub.reports, 1)
	r := pub.reports[0]
	assert.Equal(t, OpCorrelate, r.Operation)
	assert.Equal(t, "fixture", r.Dataset)
	assert.Equal(t, 6, r.MatchedCount)
	assert.Contains(t, r.Correlations, "CURRENT_FIX_DURATION")
}
