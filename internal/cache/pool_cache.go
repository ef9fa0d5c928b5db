package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"mindtracking/internal/model"
)

// PoolCache keeps the daily question pool so selection does not hit MongoDB
// on every request.
type PoolCache interface {
	SetPool(ctx context.Context, pool []*model.Question) error
	GetPool(ctx context.Context) ([]*model.Question, error)
	DeletePool(ctx context.Context) error
}

const dailyPoolKey = "questions:daily:pool"

type poolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPoolCache creates a new pool cache
func NewPoolCache(client *redis.Client) PoolCache {
	return &poolCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *poolCache) SetPool(ctx context.Context, pool []*model.Question) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dailyPoolKey, data, c.ttl).Err()
}

// GetPool returns nil, nil on a cache miss
func (c *poolCache) GetPool(ctx context.Context) ([]*model.Question, error) {
	data, err := c.client.Get(ctx, dailyPoolKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pool []*model.Question
	if err := json.Unmarshal([]byte(data), &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

func (c *poolCache) DeletePool(ctx context.Context) error {
	return c.client.Del(ctx, dailyPoolKey).Err()
}
