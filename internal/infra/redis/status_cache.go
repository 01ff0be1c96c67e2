package redis

import (
	"context"
	"time"
)

// StatusCache keeps the terminal status of payments so the public status
// endpoint can answer without touching Postgres. Terminal states never
// change, making them safe to cache.
type StatusCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewStatusCache(client RedisClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatusCache{client: client, ttl: ttl}
}

func (c *StatusCache) Get(ctx context.Context, paymentID string) (string, bool) {
	v, err := c.client.Get(ctx, "payment_status:"+paymentID)
	if err != nil {
		return "", false
	}
	return v, v != ""
}

func (c *StatusCache) Put(ctx context.Context, paymentID, status string) {
	// Best-effort; a miss just costs a DB read.
	_ = c.client.Set(ctx, "payment_status:"+paymentID, status, c.ttl)
}
