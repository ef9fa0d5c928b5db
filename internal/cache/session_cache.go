package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"mindtracking/internal/model"
)

// ErrSessionContention is returned when an update kept losing to concurrent writers
var ErrSessionContention = errors.New("chat session: too many concurrent updates")

const maxUpdateAttempts = 10

// SessionCache stores per-user chat state with a bounded lifetime
type SessionCache interface {
	Get(ctx context.Context, userID string) (*model.ChatSession, error)
	// Update applies fn to the stored session (or a fresh one) and writes it
	// back atomically. fn may run more than once and must only depend on the
	// session it is given.
	Update(ctx context.Context, userID string, fn func(*model.ChatSession) error) (*model.ChatSession, error)
	Delete(ctx context.Context, userID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    30 * time.Minute,
	}
}

func (c *sessionCache) key(userID string) string {
	return "chat:session:" + userID
}

func (c *sessionCache) Update(ctx context.Context, userID string, fn func(*model.ChatSession) error) (*model.ChatSession, error) {
	key := c.key(userID)
	var updated *model.ChatSession

	txf := func(tx *redis.Tx) error {
		session := &model.ChatSession{UserID: userID}
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal(data, session); err != nil {
				return err
			}
		}
		if err := fn(session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		payload, err := json.Marshal(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := c.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionContention
}

// Get returns nil, nil when the session expired or never existed
func (c *sessionCache) Get(ctx context.Context, userID string) (*model.ChatSession, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.ChatSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}
