package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quote-observer/src/logger"
	"quote-observer/src/models"

	"github.com/redis/go-redis/v9"
)

// ICandleCache stores serialized candle responses for a short time.
type ICandleCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, resp models.MCandleResponse)
}

// -----------------------------------------------------------------------------
// RedisCandleCache keeps candle responses in Redis. Cache errors are logged and
// treated as misses; a request never fails because of the cache.
// -----------------------------------------------------------------------------

type RedisCandleCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewRedisCandleCache connects to cfg.RedisAddr. It returns nil when no
// address is configured.
func NewRedisCandleCache(ctx context.Context, cfg models.MCacheConfig) (*RedisCandleCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCandleCache{
		Client: client,
		TTL:    time.Duration(cfg.TTLSeconds) * time.Second,
		Logger: logger.NewLogger("RedisCandleCache"),
	}, nil
}

// -----------------------------------------------------------------------------

func (r *RedisCandleCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.Logger.Warning("Cache read %s failed: %v", key, err)
		return nil, false
	}
	return body, true
}

// -----------------------------------------------------------------------------

func (r *RedisCandleCache) Set(ctx context.Context, key string, resp models.MCandleResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		r.Logger.Warning("Cache encode %s failed: %v", key, err)
		return
	}
	if err := r.Client.Set(ctx, key, body, r.TTL).Err(); err != nil {
		r.Logger.Warning("Cache write %s failed: %v", key, err)
	}
}

// -----------------------------------------------------------------------------

func (r *RedisCandleCache) Close() error {
	return r.Client.Close()
}

// -----------------------------------------------------------------------------

func candleCacheKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, strings.ToLower(strings.TrimSpace(interval)), limit)
}
