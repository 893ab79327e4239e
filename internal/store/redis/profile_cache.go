package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skillswap/internal/domain"
)

// Options holds Redis connection configuration.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open creates a Redis client and verifies the connection.
func Open(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// ProfileCache stores cached profiles as plain string keys without expiry.
type ProfileCache struct {
	client *redis.Client
}

func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

var _ domain.ProfileCache = (*ProfileCache)(nil)

func (c *ProfileCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached profile: %w", err)
	}
	return v, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

func (c *ProfileCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cached profile: %w", err)
	}
	return nil
}
