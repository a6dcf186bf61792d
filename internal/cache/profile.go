// Package cache stores rendered public profiles outside the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/genid/internal/domain"
)

const keyPrefix = "genid:profile:"

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisProfileCache keeps public profiles as JSON with a TTL.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProfileCache constructs a RedisProfileCache.
func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProfileCache{client: client, ttl: ttl}
}

// GetProfile returns the cached profile, or nil on a miss.
func (c *RedisProfileCache) GetProfile(ctx context.Context, userID string) (*domain.PublicProfile, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile domain.PublicProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		// Undecodable entries are dropped and treated as misses.
		_ = c.client.Del(ctx, keyPrefix+userID).Err()
		return nil, nil
	}
	return &profile, nil
}

// PutProfile stores the profile under its user id.
func (c *RedisProfileCache) PutProfile(ctx context.Context, profile domain.PublicProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+profile.UserID, raw, c.ttl).Err()
}

// Invalidate drops the user's cached profile.
func (c *RedisProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, keyPrefix+userID).Err()
}

// NoopProfileCache never stores anything.
type NoopProfileCache struct{}

// GetProfile always misses.
func (NoopProfileCache) GetProfile(context.Context, string) (*domain.PublicProfile, error) {
	return nil, nil
}

// PutProfile discards the profile.
func (NoopProfileCache) PutProfile(context.Context, domain.PublicProfile) error { return nil }

// Invalidate does nothing.
func (NoopProfileCache) Invalidate(context.Context, string) error { return nil }
