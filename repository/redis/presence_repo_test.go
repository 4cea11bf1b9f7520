package redis

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/repository"
)

// heartbeatHook refreshes a member the first time the sweep reads stale members.
type heartbeatHook struct {
	fired  atomic.Bool
	onRead func(ctx context.Context)
}

func (h *heartbeatHook) DialHook(next redislib.DialHook) redislib.DialHook { return next }

func (h *heartbeatHook) ProcessPipelineHook(next redislib.ProcessPipelineHook) redislib.ProcessPipelineHook {
	return next
}

func (h *heartbeatHook) ProcessHook(next redislib.ProcessHook) redislib.ProcessHook {
	return func(ctx context.Context, cmd redislib.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == "zrangebyscore" && h.fired.CompareAndSwap(false, true) {
			h.onRead(ctx)
		}
		return err
	}
}

func testClient(t *testing.T) *redislib.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redislib.ParseURL(url)
	require.NoError(t, err)
	client := redislib.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func newTestRepo(t *testing.T, client *redislib.Client, now time.Time) *presenceRepository {
	t.Helper()
	repo := NewPresenceRepository(client, time.Minute).(*presenceRepository)
	repo.prefix = "presence-test:" + uuid.NewString() + ":"
	repo.now = func() time.Time { return now }
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, repo.prefix+"*").Result()
		if len(keys) > 0 {
			_ = client.Del(ctx, keys...).Err()
		}
	})
	return repo
}

func TestPresenceRepository_SweepRemovesStale(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newTestRepo(t, testClient(t), now)

	req.NoError(repo.SetOnline(ctx, "co", repository.OnlineCommercial{ID: "A1", Name: "Ana", LastSeen: now.Add(-2 * time.Minute)}))
	req.NoError(repo.SetOnline(ctx, "co", repository.OnlineCommercial{ID: "A2", Name: "Bob", LastSeen: now}))

	removed, err := repo.Sweep(ctx, now.Add(-time.Minute))
	req.NoError(err)
	req.Equal(1, removed)

	online, err := repo.OnlineCommercials(ctx, "co")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Bob", online[0].Name)
}

func TestPresenceRepository_SweepKeepsNameOfRefreshedMember(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	client := testClient(t)
	repo := newTestRepo(t, client, now)
	req.NoError(repo.SetOnline(ctx, "co", repository.OnlineCommercial{ID: "A1", Name: "Ana", LastSeen: now.Add(-2 * time.Minute)}))

	// a second connection heartbeats while the sweep is between read and delete
	other := redislib.NewClient(client.Options())
	t.Cleanup(func() { _ = other.Close() })
	heartbeat := &presenceRepository{client: other, prefix: repo.prefix, ttl: repo.ttl, now: repo.now}
	hook := &heartbeatHook{onRead: func(ctx context.Context) {
		require.NoError(t, heartbeat.SetOnline(ctx, "co", repository.OnlineCommercial{ID: "A1", Name: "Ana", LastSeen: now}))
	}}
	client.AddHook(hook)

	removed, err := repo.Sweep(ctx, now.Add(-time.Minute))
	req.NoError(err)
	req.Zero(removed)
	req.True(hook.fired.Load())

	online, err := repo.OnlineCommercials(ctx, "co")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Ana", online[0].Name)
}
