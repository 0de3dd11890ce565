package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BulizzesRG/myownpos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ProductCache is a best-effort cache-aside store for code lookups. Failures
// are logged and treated as misses; the database stays the source of truth.
type ProductCache interface {
	Get(ctx context.Context, code string) (*dto.ProductResponse, bool)
	Set(ctx context.Context, code string, p dto.ProductResponse)
	Invalidate(ctx context.Context, codes ...string)
}

type redisProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisProductCache returns a cache backed by rdb. A nil client yields a
// cache that never hits.
func NewRedisProductCache(rdb *redis.Client, ttl time.Duration) ProductCache {
	if rdb == nil {
		return noopCache{}
	}
	return &redisProductCache{rdb: rdb, ttl: ttl}
}

func productCacheKey(code string) string { return "product:code:" + code }

func (c *redisProductCache) Get(ctx context.Context, code string) (*dto.ProductResponse, bool) {
	cached, err := c.rdb.Get(ctx, productCacheKey(code)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("code", code).Msg("product cache: get failed")
		}
		return nil, false
	}
	var resp dto.ProductResponse
	if err := json.Unmarshal(cached, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *redisProductCache) Set(ctx context.Context, code string, p dto.ProductResponse) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productCacheKey(code), b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("product cache: set failed")
	}
}

func (c *redisProductCache) Invalidate(ctx context.Context, codes ...string) {
	keys := make([]string, 0, len(codes))
	seen := map[string]struct{}{}
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		keys = append(keys, productCacheKey(code))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("product cache: invalidate failed")
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*dto.ProductResponse, bool) { return nil, false }
func (noopCache) Set(context.Context, string, dto.ProductResponse)         {}
func (noopCache) Invalidate(context.Context, ...string)                    {}
