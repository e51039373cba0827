package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"reading-effort/internal/common/config"
	"reading-effort/internal/common/database"
)

func TestWorkerSettings(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"correlate-effort": {Enabled: true, MaxJobsActive: 2, Timeout: 45000},
	}}

	listed := workerSettings(cfg, "correlate-effort")
	assert.Equal(t, 45000, listed.Timeout)
	assert.Equal(t, 2, listed.MaxJobsActive)

	unlisted := workerSettings(cfg, "score-effort")
	assert.True(t, unlisted.Enabled)
	assert.Zero(t, unlisted.Timeout, "registry timeout applies")

	assert.Equal(t, 5000, withTimeout(unlisted, 5*time.Second).Timeout)
}

func TestReportPublishers_Disabled(t *testing.T) {
	pubs := reportPublishers(context.Background(), &config.Config{}, zaptest.NewLogger(t))
	assert.Empty(t, pubs)
}

func TestPostgresDB(t *testing.T) {
	assert.Nil(t, postgresDB(nil))
	assert.Nil(t, postgresDB(&database.PostgresClient{}))
}

func TestConnectPostgres_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pg, err := connectPostgres(ctx, config.PostgresConfig{
		Host: "127.0.0.1", Port: port, Database: "corpus", User: "reader", SSLMode: "disable",
	})
	assert.Error(t, err)
	assert.Nil(t, pg)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zaptest.NewLogger(t), "dial")
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, zaptest.NewLogger(t), "dial")
	assert.EqualError(t, err, "dial failed after 2 attempts: down")
}
