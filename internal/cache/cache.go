// Package cache stores analysis results in Redis keyed by request content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/metrics"
)

const keyPrefix = "effort"

// ResultCache reads and writes JSON documents with a fixed TTL.
type ResultCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewResultCache(client redis.UniversalClient, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Key derives "effort:<namespace>:<sha256>" from the dataset fingerprint and
// the JSON form of payload.
func Key(namespace, fingerprint string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal cache payload: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(data)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, namespace, hex.EncodeToString(h.Sum(nil))), nil
}

// GetJSON decodes the cached value into dst. It reports false on a miss.
func (c *ResultCache) GetJSON(ctx context.Context, namespace, key string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
		return false, errors.NewCacheFailureError("get", err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
		return false, errors.NewCacheFailureError("decode", err)
	}
	metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
	return true, nil
}

func (c *ResultCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewCacheFailureError("encode", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.NewCacheFailureError("set", err)
	}
	return nil
}

func (c *ResultCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.NewCacheFailureError("ping", err)
	}
	return nil
}
