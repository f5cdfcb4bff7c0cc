package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements CorroborationCache using Redis.
// It leverages Redis's native TTL for automatic expiration.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a new Redis corroboration cache from a Redis client
// and a key prefix. The prefix typically ends with a colon.
func NewRedisCache(client *redis.Client, keyPrefix string) (*RedisCache, error) {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	return &RedisCache{
		client: client,
		prefix: keyPrefix,
	}, nil
}

const defaultRedisPrefix = "huginn:corroborated:"

// RedisConfig contains configuration options for Redis.
type RedisConfig struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string

	// Password is the Redis password (empty for no auth)
	Password string

	// DB is the Redis database number (0-15)
	DB int

	// KeyPrefix is prepended to all keys (default: "huginn:corroborated:")
	KeyPrefix string
}

// NewRedisFromConfig creates a new Redis corroboration cache and checks the
// connection.
func NewRedisFromConfig(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}

	return NewRedisCache(client, cfg.KeyPrefix)
}

func (c *RedisCache) key(reportID, verifierID string) string {
	return c.prefix + reportID + ":" + verifierID
}

// Set records a corroboration with the given TTL.
func (c *RedisCache) Set(reportID, verifierID string, ttl time.Duration) error {
	ctx := context.Background()

	err := c.client.Set(ctx, c.key(reportID, verifierID), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("redis: failed to set key: %w", err)
	}
	return nil
}

// Exists returns true if the corroboration is recorded.
func (c *RedisCache) Exists(reportID, verifierID string) (bool, error) {
	ctx := context.Background()

	result, err := c.client.Exists(ctx, c.key(reportID, verifierID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check key: %w", err)
	}
	return result > 0, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
