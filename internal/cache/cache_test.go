package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/common/errors"
)

type cachedResult struct {
	MatchedCount int                `json:"matched_count"`
	Correlations map[string]float64 `json:"metric_correlations"`
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestKey(t *testing.T) {
	payload := map[string]interface{}{"words": []string{"the", "cat"}}

	k1, err := Key("correlate", "csv:a.csv", payload)
	require.NoError(t, err)
	k2, err := Key("correlate", "csv:a.csv", payload)
	require.NoError(t, err)
	k3, err := Key("correlate", "csv:b.csv", payload)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Regexp(t, `^effort:correlate:[0-9a-f]{64}$`, k1)

	_, err = Key("correlate", "x", func() {})
	assert.Error(t, err)
}

func TestResultCache_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewResultCache(client, 10*time.Minute)
	ctx := context.Background()

	var got cachedResult
	hit, err := c.GetJSON(ctx, "correlate", "effort:correlate:k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := cachedResult{MatchedCount: 3, Correlations: map[string]float64{"PARAGRAPH_RT": 0.5}}
	require.NoError(t, c.SetJSON(ctx, "effort:correlate:k", want))
	assert.Equal(t, 10*time.Minute, mr.TTL("effort:correlate:k"))

	hit, err = c.GetJSON(ctx, "correlate", "effort:correlate:k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, c.Ping(ctx))
}

func TestResultCache_CorruptEntry(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("effort:series:bad", "{not json"))

	var got cachedResult
	hit, err := NewResultCache(client, time.Minute).GetJSON(context.Background(), "series", "effort:series:bad", &got)
	assert.False(t, hit)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheFailure))
}

func TestResultCache_RedisErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("effort:correlate:k").SetErr(fmt.Errorf("connection refused"))

		var got cachedResult
		hit, err := NewResultCache(client, time.Minute).GetJSON(ctx, "correlate", "effort:correlate:k", &got)
		assert.False(t, hit)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCacheFailure))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		value := cachedResult{MatchedCount: 1}
		data, _ := json.Marshal(value)
		mock.ExpectSet("effort:correlate:k", data, time.Minute).SetErr(fmt.Errorf("READONLY"))

		err := NewResultCache(client, time.Minute).SetJSON(ctx, "effort:correlate:k", value)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCacheFailure))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(fmt.Errorf("timeout"))

		err := NewResultCache(client, time.Minute).Ping(ctx)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCacheFailure))
	})
}
