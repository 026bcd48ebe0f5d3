package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the history blob.
const DefaultRedisKey = "ghostcli:history"

// RedisBackend stores history as a JSON blob under a single key.
type RedisBackend struct {
	client redis.UniversalClient
	key    string
}

func NewRedisBackend(client redis.UniversalClient, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

// DialRedis parses redisURL and verifies connectivity.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisBackend) Get(ctx context.Context) ([]models.HistoryEntry, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.key, err)
	}
	if entries == nil {
		return []models.HistoryEntry{}, nil
	}
	return entries, nil
}

func (r *RedisBackend) Set(ctx context.Context, entries []models.HistoryEntry) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisBackend) Remove(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
