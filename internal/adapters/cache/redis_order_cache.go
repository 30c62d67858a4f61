package cache

import (
	"context"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPoolKey = "batching:pool:available"

var _ ports.InvalidatingOrderSource = (*RedisOrderCache)(nil)

// RedisOrderCache is a short-lived Redis snapshot of the availability pool
// in front of a slower OrderSource. The pool is shared by all drivers, so
// one key serves every caller and one Invalidate clears it for everyone.
type RedisOrderCache struct {
	Client *redis.Client
	Source ports.OrderSource
	TTL    time.Duration
	Key    string
}

func NewRedisOrderCache(client *redis.Client, source ports.OrderSource, ttl time.Duration) *RedisOrderCache {
	return &RedisOrderCache{Client: client, Source: source, TTL: ttl, Key: DefaultPoolKey}
}

// Return the cached pool, or load it from Source and cache it. Redis
// failures degrade to a direct read.
func (c *RedisOrderCache) ListAvailableOrders(
	ctx context.Context,
	driverID string,
) (_ []*domain.DeliverableOrder, err error) {
	defer obs.Time(ctx, "orders.cache.ListAvailableOrders")(&err)

	if c.Source == nil {
		return nil, errors.New("order cache: source is nil")
	}

	logger := obs.Logger(ctx)

	raw, err := c.Client.Get(ctx, c.Key).Bytes()
	switch {
	case err == nil:
		var orders []*domain.DeliverableOrder
		jerr := json.Unmarshal(raw, &orders)
		if jerr == nil {
			obs.CountCache(true)
			return orders, nil
		}
		logger.Warn().Err(jerr).Str("key", c.Key).Msg("discarding undecodable pool snapshot")
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn().Err(err).Str("key", c.Key).Msg("pool cache read failed")
	}
	obs.CountCache(false)

	orders, err := c.Source.ListAvailableOrders(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("order cache: load pool: %w", err)
	}

	body, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("order cache: encode pool: %w", err)
	}
	if err := c.Client.Set(ctx, c.Key, body, c.TTL).Err(); err != nil {
		logger.Warn().Err(err).Str("key", c.Key).Msg("pool cache write failed")
	}

	return orders, nil
}

// Drop the pool snapshot so the next read hits Source.
func (c *RedisOrderCache) Invalidate(ctx context.Context, driverID string) error {
	if err := c.Client.Del(ctx, c.Key).Err(); err != nil {
		return fmt.Errorf("order cache: invalidate for driver %q: %w", driverID, err)
	}
	return nil
}
