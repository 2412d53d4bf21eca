package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pingmatch/ping/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForUnreadCount generates the key for a user's unread notification count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("notif:unread:%d", userID)
}

// GetUnreadCount returns the cached unread count, or -1 on cache miss so
// callers can distinguish "no entry" from a genuine zero.
func (c *RedisCache) GetUnreadCount(ctx context.Context, userID uint64) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForUnreadCount(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return -1, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// SetUnreadCount stores the unread count with a 1h TTL.
func (c *RedisCache) SetUnreadCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForUnreadCount(userID), count, time.Hour).Err()
}

// IncrUnreadCount bumps the cached unread count if present. A missing key
// stays missing so the next read falls back to the DB.
func (c *RedisCache) IncrUnreadCount(ctx context.Context, userID uint64) {
	key := c.KeyForUnreadCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	_ = c.Client.Incr(ctx, key).Err()
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
}

// ResetUnreadCount zeroes the cached count after a mark-all-read.
func (c *RedisCache) ResetUnreadCount(ctx context.Context, userID uint64) error {
	return c.Client.Set(ctx, c.KeyForUnreadCount(userID), 0, time.Hour).Err()
}

// KeyForSwipeQuota generates the per-day swipe counter key for a user.
func (c *RedisCache) KeyForSwipeQuota(userID uint64, day time.Time) string {
	return fmt.Sprintf("swipes:count:%d:%s", userID, day.UTC().Format("2006-01-02"))
}

// IncrSwipeQuota counts a swipe against the user's daily allowance and
// returns the new total. The counter expires at the end of the UTC day.
func (c *RedisCache) IncrSwipeQuota(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	key := c.KeyForSwipeQuota(userID, now)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	midnight := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	_ = c.Client.ExpireAt(ctx, key, midnight).Err()
	return n, nil
}
