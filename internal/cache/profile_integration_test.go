//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/scoring"
	"example.com/genid/internal/testsupport"
)

func TestRedisProfileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, testsupport.StartRedis(ctx, t), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisProfileCache(client, time.Minute)

	miss, err := cache.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, miss)

	profile := domain.PublicProfile{
		UserID:   "u1",
		Username: "alice",
		Stats:    scoring.Stats{TotalCredit: 120, CurrentStreak: 7},
		Badges:   []scoring.Badge{scoring.BadgeCenturion, scoring.BadgeWeekWarrior},
		AsOf:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.PutProfile(ctx, profile))

	hit, err := cache.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", hit.Username)
	require.Equal(t, 120, hit.Stats.TotalCredit)
	require.True(t, profile.AsOf.Equal(hit.AsOf))

	ttl, err := client.TTL(ctx, keyPrefix+"u1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, "u1"))
	gone, err := cache.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestRedisProfileCacheDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, testsupport.StartRedis(ctx, t), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(ctx, keyPrefix+"u2", "{not json", 0).Err())
	cache := NewRedisProfileCache(client, time.Minute)

	profile, err := cache.GetProfile(ctx, "u2")
	require.NoError(t, err)
	require.Nil(t, profile)

	exists, err := client.Exists(ctx, keyPrefix+"u2").Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}
