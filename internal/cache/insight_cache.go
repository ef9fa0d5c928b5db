package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mindtracking/internal/model"
)

// InsightCache holds computed trend/correlation reports. All windows of a
// user live in one hash so a single DEL invalidates them.
//
// Invalidate also bumps a per-user version. A report computed from data read
// under version v is only stored while the version is still v, so a write that
// lands mid-computation never gets overwritten by the older report.
type InsightCache interface {
	Get(ctx context.Context, userID string, window int) (*model.InsightReport, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, report *model.InsightReport, version int64) error
	Invalidate(ctx context.Context, userID string) error
}

type insightCache struct {
	client     *redis.Client
	ttl        time.Duration
	versionTTL time.Duration
}

// NewInsightCache creates a new insight cache
func NewInsightCache(client *redis.Client) InsightCache {
	return &insightCache{
		client: client,
		ttl:        10 * time.Minute,
		versionTTL: 24 * time.Hour,
	}
}

func (c *insightCache) key(userID string) string {
	return fmt.Sprintf("insight:%s", userID)
}

func (c *insightCache) versionKey(userID string) string {
	return fmt.Sprintf("insight:ver:%s", userID)
}

func (c *insightCache) Version(ctx context.Context, userID string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *insightCache) Get(ctx context.Context, userID string, window int) (*model.InsightReport, error) {
	data, err := c.client.HGet(ctx, c.key(userID), strconv.Itoa(window)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.InsightReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Set stores report unless the user's version moved past version. A skipped
// write is not an error.
func (c *insightCache) Set(ctx context.Context, report *model.InsightReport, version int64) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	key := c.key(report.UserID)
	verKey := c.versionKey(report.UserID)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, strconv.Itoa(report.WindowDays), data)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if err == redis.TxFailedErr {
		return nil
	}
	return err
}

func (c *insightCache) Invalidate(ctx context.Context, userID string) error {
	verKey := c.versionKey(userID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, verKey)
	pipe.Expire(ctx, verKey, c.versionTTL)
	pipe.Del(ctx, c.key(userID))
	_, err := pipe.Exec(ctx)
	return err
}
