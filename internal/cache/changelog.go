// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// changelog.go provides a Valkey-backed cache for the public changelog
// payload. Grouping published events by theme category involves a manifest
// read plus several queries, so the serialized result is cached and
// invalidated on any write that could change it (installs, mapping edits,
// status or event writes, theme-setting updates).
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// publicKeyPrefix is the Valkey key prefix for cached public payloads.
	publicKeyPrefix = "public:"

	// DefaultPublicTTL is how long a cached payload stays fresh. Short on
	// purpose: correctness relies on explicit invalidation, the TTL is
	// only a backstop.
	DefaultPublicTTL = 5 * time.Minute
)

// PublicCache manages cached public JSON payloads in Valkey.
type PublicCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPublicCache creates a public payload cache backed by the given Valkey client.
func NewPublicCache(client *redis.Client, ttl time.Duration) *PublicCache {
	if ttl == 0 {
		ttl = DefaultPublicTTL
	}
	return &PublicCache{client: client, ttl: ttl}
}

// Get retrieves a cached payload. Returns false on miss.
func (pc *PublicCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, publicKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("public cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("public cache hit", "key", key)
	return val, true
}

// Set stores a serialized payload with the configured TTL.
func (pc *PublicCache) Set(ctx context.Context, key string, payload []byte) {
	if err := pc.client.Set(ctx, publicKeyPrefix+key, payload, pc.ttl).Err(); err != nil {
		slog.Warn("public cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single cached payload.
func (pc *PublicCache) Invalidate(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, publicKeyPrefix+key).Err(); err != nil {
		slog.Warn("public cache invalidate error", "key", key, "error", err)
	}
	slog.Debug("public cache invalidated", "key", key)
}

// InvalidateAll removes every cached public payload by scanning for the
// prefix. Used after a theme install, since any payload could reference
// the old manifest.
func (pc *PublicCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, publicKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("public cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("public cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("public cache fully cleared", "deleted", deleted)
	}
}

// ChangelogKey returns the cache key for the grouped public changelog.
func ChangelogKey() string {
	return "changelog"
}

// ThemeSettingsKey returns the cache key for public theme setting values.
func ThemeSettingsKey() string {
	return "theme-settings"
}
