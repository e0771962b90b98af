package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/prediction-market-poc/pkg/contracts/topics"
)

// RedisCache invalida as chaves de leitura que o market-feed preenche
type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(c *redis.Client) *RedisCache {
	return &RedisCache{Client: c}
}

// Keys lista as chaves afetadas por um evento; marketID 0 só afeta a listagem.
func Keys(marketID uint64) []string {
	keys := []string{topics.MarketListKey}
	if marketID != 0 {
		keys = append(keys,
			topics.MarketCacheKey(marketID),
			topics.MarketCacheKey(marketID, "bets"),
			topics.MarketCacheKey(marketID, "payouts"),
		)
	}
	return keys
}

func (r *RedisCache) Invalidate(ctx context.Context, marketID uint64) error {
	return r.Client.Del(ctx, Keys(marketID)...).Err()
}
