package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores sessions as plain keys with a TTL
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to the server at url (redis://host:port/db)
func NewRedisBackend(ctx context.Context, url, prefix string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) key(id string) string {
	return b.prefix + id
}

func (b *RedisBackend) Load(ctx context.Context, id string) (string, error) {
	data, err := b.client.Get(ctx, b.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return data, err
}

func (b *RedisBackend) Store(ctx context.Context, id, data string, ttl time.Duration) error {
	return b.client.Set(ctx, b.key(id), data, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, b.key(id)).Err()
}

// Close releases the connection pool
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
