package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
)

// ResultCache stores ranked explore results per user. Implementations
// swallow their own errors: a cache failure is only ever a miss.
type ResultCache interface {
	Get(ctx context.Context, userID int64, key string) ([]*MatchCandidate, bool)
	Set(ctx context.Context, userID int64, key string, candidates []*MatchCandidate)
	Invalidate(ctx context.Context, userIDs ...int64)
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64, string) ([]*MatchCandidate, bool) { return nil, false }
func (NoopCache) Set(context.Context, int64, string, []*MatchCandidate) {}
func (NoopCache) Invalidate(context.Context, ...int64) {}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache keeps one hash per user, field per query, so a single DEL
// drops every cached variant for that user.
func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) ResultCache {
	return &redisCache{client: client, ttl: ttl, log: log}
}

func exploreKey(userID int64) string {
	return fmt.Sprintf("vibes:explore:%d", userID)
}

func (c *redisCache) Get(ctx context.Context, userID int64, key string) ([]*MatchCandidate, bool) {
	raw, err := c.client.HGet(ctx, exploreKey(userID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("explore cache read failed", "user_id", userID, "error", err)
		return nil, false
	}

	var candidates []*MatchCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		c.log.Warn("explore cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}
	return candidates, true
}

func (c *redisCache) Set(ctx context.Context, userID int64, key string, candidates []*MatchCandidate) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		c.log.Warn("explore cache encode failed", "user_id", userID, "error", err)
		return
	}

	hashKey := exploreKey(userID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, key, raw)
		pipe.Expire(ctx, hashKey, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn("explore cache write failed", "user_id", userID, "error", err)
	}
}

func (c *redisCache) Invalidate(ctx context.Context, userIDs ...int64) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = exploreKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("explore cache invalidation failed", "users", userIDs, "error", err)
	}
}
