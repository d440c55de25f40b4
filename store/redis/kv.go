// Package redis implements store.KV on top of a Redis client, for deployments
// where the bridge runs server-side and session state must survive restarts.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KV implements store.KV backed by Redis.
type KV struct {
	client *redis.Client
	prefix string
}

// NewKV creates a Redis-backed KV. All keys are namespaced under prefix.
func NewKV(client *redis.Client, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

func (r *KV) key(k string) string {
	return fmt.Sprintf("%s:%s", r.prefix, k)
}

// Get returns the value for key, or "" when the key does not exist.
func (r *KV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with no expiry; session lifetime is governed by
// the backend, not the store.
func (r *KV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// MultiGet returns the present keys with their values; absent keys are
// omitted.
func (r *KV) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	values, err := r.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make(map[string]string, len(keys))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// MultiRemove deletes the keys in a single command.
func (r *KV) MultiRemove(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
