package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/common/config"
)

func TestPoolSize(t *testing.T) {
	open, idle := poolSize(config.PostgresConfig{})
	assert.Equal(t, defaultPostgresOpen, open)
	assert.Equal(t, defaultPostgresIdle, idle)

	open, idle = poolSize(config.PostgresConfig{MaxConnections: 1, MaxIdle: 5})
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, idle)
}

func TestNewPostgres_OpensLazily(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{Host: "localhost", Port: 5432, Database: "corpus", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, defaultPostgresOpen, pg.DB.Stats().MaxOpenConnections)
	assert.NoError(t, pg.Close())
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()
	assert.NoError(t, PingRedis(context.Background(), rdb))

	mr.Close()
	assert.ErrorContains(t, PingRedis(context.Background(), rdb), "redis ping failed")
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()

	_, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "absent.sqlite"))
	assert.ErrorContains(t, err, "sqlite file")

	path := filepath.Join(t.TempDir(), "corpus.sqlite")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestElasticsearch(t *testing.T) {
	status := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
	}))
	defer ts.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: ts.URL})
	require.NoError(t, err)
	assert.NoError(t, PingElasticsearch(context.Background(), es))

	status = http.StatusServiceUnavailable
	assert.ErrorContains(t, PingElasticsearch(context.Background(), es), "elasticsearch ping error")
}
