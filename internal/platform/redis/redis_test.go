package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	log, _ := logger.NewTestLogger()

	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0", log)
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = NewClient(context.Background(), "http://"+mr.Addr(), log)
	assert.Error(t, err)
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)

	l := NewLimiter(client, "ratelimit:")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
		now = now.Add(time.Second)
	}

	res, err := l.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	// The oldest request leaves the window one minute after it was made.
	assert.Equal(t, time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC).UnixMilli(), res.ResetAt.UnixMilli())

	other, err := l.Allow(ctx, "10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiter_RedisDown(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := NewLimiter(client, "ratelimit:").Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}

func TestStatsCache(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	ctx := context.Background()
	userID := uuid.New()
	c := NewStatsCache(client, time.Minute)

	got, err := c.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats := &store.TaskStats{
		StatusStats:   []store.StatCount{{ID: "Pending", Count: 2}},
		PriorityStats: []store.StatCount{{ID: "high", Count: 2}},
		Total:         2,
	}
	require.NoError(t, c.Set(ctx, userID, stats))
	assert.Equal(t, time.Minute, mr.TTL(statsKey(userID)))

	got, err = c.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	require.NoError(t, c.Invalidate(ctx, userID))
	assert.False(t, mr.Exists(statsKey(userID)))

	require.NoError(t, mr.Set(statsKey(userID), "{not json"))
	_, err = c.Get(ctx, userID)
	assert.ErrorContains(t, err, "corrupt stats cache entry")

	require.NoError(t, c.Set(ctx, userID, stats))
	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
