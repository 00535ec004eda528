package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache wraps the Redis client used for token revocation and batch locks
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Redis connection established")
	return &RedisCache{client: client}, nil
}

// Set stores a value in cache with expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Exists checks if a key exists in cache
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// releaseLock deletes a lock key only while it still holds the caller's token
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// WithLock runs fn while holding key. It reports false without running fn
// when another holder owns the key. A lock that expired while fn ran and was
// taken by another holder is left to that holder.
func (c *RedisCache) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error) {
	token := uuid.New().String()
	acquired, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		released, err := releaseLock.Run(context.Background(), c.client, []string{key}, token).Int()
		if err != nil {
			log.Printf("Failed to release lock %s: %v", key, err)
		} else if released == 0 {
			log.Printf("Lock %s expired before release", key)
		}
	}()
	return true, fn()
}
