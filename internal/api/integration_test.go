package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/cache"
	"reading-effort/internal/common/config"
	"reading-effort/internal/common/database"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/validation"
	"reading-effort/internal/correlation"
	"reading-effort/internal/dataset"
	"reading-effort/internal/reports"
	"reading-effort/pkg/registry"
)

const corpusCSV = `TextID,WordIndex,Word,CURRENT_FIX_DURATION,is_correct
t1,1,The,100,1
t1,2,cat,200,1
t1,3,sat,300,0
t1,4,on,400,1
t1,5,the,500,0
t1,6,mat,600,1
t2,2,bark,,0
t2,1,Dogs,150,1
`

type recordingPublisher struct {
	mu      sync.Mutex
	reports []*reports.Report
}

func (p *recordingPublisher) Publish(_ context.Context, r *reports.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reports)
}

// stack is the server as cmd/effort-server assembles it, over a CSV corpus
// and an in-memory Redis.
type stack struct {
	url       string
	provider  *dataset.LazyProvider
	publisher *recordingPublisher
	redis     *miniredis.Miniredis
}

func newStack(t *testing.T) *stack {
	t.Helper()

	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, []byte(corpusCSV), 0644))

	log := logger.NewTestLogger(t)
	provider, err := dataset.NewFromConfig(config.DatasetConfig{Source: config.SourceCSV, Path: path}, nil, log)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	rc := cache.NewResultCache(rdb, time.Minute)
	pub := &recordingPublisher{}
	svc := correlation.NewService(provider, log,
		correlation.WithCache(rc),
		correlation.WithPublisher(reports.NewMultiPublisher(log, pub)),
	)

	v, err := validation.NewValidator(registry.MustDefault())
	require.NoError(t, err)

	srv := NewServer(config.ServerConfig{Address: ":0"}, svc, v, log,
		WithReadinessCheck("dataset", func(context.Context) error {
			if !provider.Ready() {
				return fmt.Errorf("dataset %s not loaded", provider.Source())
			}
			return nil
		}),
		WithReadinessCheck("redis", func(ctx context.Context) error { return database.PingRedis(ctx, rdb) }),
	)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &stack{url: ts.URL, provider: provider, publisher: pub, redis: mr}
}

func (s *stack) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.url+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *stack) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.url + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStack_ReadyAfterFirstLoad(t *testing.T) {
	s := newStack(t)

	resp := s.get(t, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = s.get(t, "/dataset/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, s.provider.Ready())

	resp = s.get(t, "/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStack_CorrelateIsCached(t *testing.T) {
	s := newStack(t)
	req := map[string]interface{}{
		"words":  []string{"the", "cat", "sat", "on", "the", "mat"},
		"effort": []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		"group":  map[string]interface{}{"TextID": "t1"},
	}

	var first, second correlation.CorrelationResult
	resp := s.post(t, "/effort-correlation", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))

	resp = s.post(t, "/effort-correlation", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))

	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, first.MetricCorrelations["CURRENT_FIX_DURATION"], 1e-9)
	assert.Equal(t, 1, s.publisher.count(), "cached answers are not republished")
	assert.NotEmpty(t, s.redis.Keys())
}

func TestStack_CacheOutage(t *testing.T) {
	s := newStack(t)
	s.redis.Close()

	resp := s.post(t, "/aligned-series", map[string]interface{}{
		"words":   []string{"Dogs", "bark"},
		"metrics": []string{"CURRENT_FIX_DURATION"},
		"group":   map[string]interface{}{"TextID": "t2"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.get(t, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
