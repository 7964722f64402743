// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "public:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestPublicCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPublicCache(client, 1*time.Minute)

	ctx := context.Background()

	// Miss.
	data, ok := pc.Get(ctx, ChangelogKey())
	if ok {
		t.Error("expected cache miss")
	}
	if data != nil {
		t.Error("expected nil data on miss")
	}

	// Set.
	payload := []byte(`{"theme_id":"aurora","categories":{}}`)
	pc.Set(ctx, ChangelogKey(), payload)

	// Hit.
	data, ok = pc.Get(ctx, ChangelogKey())
	if !ok {
		t.Error("expected cache hit")
	}
	if string(data) != string(payload) {
		t.Errorf("data mismatch: got %q, want %q", data, payload)
	}
}

func TestPublicCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPublicCache(client, 1*time.Minute)

	ctx := context.Background()

	pc.Set(ctx, ThemeSettingsKey(), []byte(`{"accent_color":"#fff"}`))

	_, ok := pc.Get(ctx, ThemeSettingsKey())
	if !ok {
		t.Fatal("expected cache hit before invalidation")
	}

	pc.Invalidate(ctx, ThemeSettingsKey())

	_, ok = pc.Get(ctx, ThemeSettingsKey())
	if ok {
		t.Error("expected cache miss after invalidation")
	}
}

func TestPublicCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPublicCache(client, 1*time.Minute)

	ctx := context.Background()

	pc.Set(ctx, ChangelogKey(), []byte("a"))
	pc.Set(ctx, ThemeSettingsKey(), []byte("b"))

	pc.InvalidateAll(ctx)

	for _, key := range []string{ChangelogKey(), ThemeSettingsKey()} {
		if _, ok := pc.Get(ctx, key); ok {
			t.Errorf("expected miss for %q after InvalidateAll", key)
		}
	}
}

func TestCacheKeys(t *testing.T) {
	if ChangelogKey() != "changelog" {
		t.Errorf("ChangelogKey: got %q, want %q", ChangelogKey(), "changelog")
	}
	if ThemeSettingsKey() != "theme-settings" {
		t.Errorf("ThemeSettingsKey: got %q, want %q", ThemeSettingsKey(), "theme-settings")
	}
}

func TestNewPublicCacheDefaultTTL(t *testing.T) {
	client := testValkeyClient(t)

	// TTL = 0 should use default.
	pc := NewPublicCache(client, 0)
	if pc.ttl != DefaultPublicTTL {
		t.Errorf("expected DefaultPublicTTL (%v), got %v", DefaultPublicTTL, pc.ttl)
	}
}
