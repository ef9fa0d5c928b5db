package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GateCache is the advisory fast path of the daily gate. The unique indexes
// in MongoDB stay authoritative; a miss here never allows a second write.
type GateCache interface {
	IsMarked(ctx context.Context, scope, userID, day string) (bool, error)
	Mark(ctx context.Context, scope, userID, day string, ttl time.Duration) error
	Clear(ctx context.Context, scope, userID, day string) error
}

type gateCache struct {
	client *redis.Client
}

// NewGateCache creates a new gate cache
func NewGateCache(client *redis.Client) GateCache {
	return &gateCache{client: client}
}

func (c *gateCache) key(scope, userID, day string) string {
	return fmt.Sprintf("gate:%s:%s:%s", scope, userID, day)
}

func (c *gateCache) IsMarked(ctx context.Context, scope, userID, day string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(scope, userID, day)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *gateCache) Mark(ctx context.Context, scope, userID, day string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return c.client.SetNX(ctx, c.key(scope, userID, day), 1, ttl).Err()
}

func (c *gateCache) Clear(ctx context.Context, scope, userID, day string) error {
	return c.client.Del(ctx, c.key(scope, userID, day)).Err()
}
