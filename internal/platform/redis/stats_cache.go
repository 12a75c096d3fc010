package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "taskmgr:stats:"

// StatsCache keeps per-user task statistics as JSON strings with a TTL.
type StatsCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

var _ service.StatsCache = (*StatsCache)(nil)

// NewStatsCache returns a StatsCache whose entries expire after ttl.
func NewStatsCache(rdb redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func statsKey(userID uuid.UUID) string {
	return statsKeyPrefix + userID.String()
}

// Get returns the cached stats, or nil on a miss.
func (c *StatsCache) Get(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	b, err := c.rdb.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats store.TaskStats
	if err := json.Unmarshal(b, &stats); err != nil {
		return nil, fmt.Errorf("corrupt stats cache entry: %w", err)
	}
	return &stats, nil
}

// Set stores stats for userID.
func (c *StatsCache) Set(ctx context.Context, userID uuid.UUID, stats *store.TaskStats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey(userID), b, c.ttl).Err()
}

// Invalidate drops the cached stats for userID.
func (c *StatsCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, statsKey(userID)).Err()
}
