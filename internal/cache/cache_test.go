// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tyremarket/internal/models"
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
		keys, _ := client.Keys(ctx, "tyre*").Result()
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

func sampleTyre() *models.Tyre {
	return &models.Tyre{
		ID:           uuid.New(),
		Title:        "Goodyear 195/65/R15 Winter",
		Manufacturer: models.Ref{ID: uuid.New(), Name: "Goodyear"},
		Width:        195,
		Height:       65,
		Rim:          15,
		Price:        72.5,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	db, _ := strconv.Atoi(envOr("VALKEY_TEST_DB", "15"))

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"), db)
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestTyreCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTyreCache(client, time.Minute)
	ctx := context.Background()
	tyre := sampleTyre()

	// Miss.
	if got, ok := tc.Tyre(ctx, tyre.ID); ok || got != nil {
		t.Fatal("expected cache miss")
	}

	tc.SetTyre(ctx, tyre)

	got, ok := tc.Tyre(ctx, tyre.ID)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Title != tyre.Title || got.Manufacturer != tyre.Manufacturer || !got.CreatedAt.Equal(tyre.CreatedAt) {
		t.Errorf("cached tyre mismatch: got %+v, want %+v", got, tyre)
	}
}

func TestTyreCacheListing(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTyreCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := tc.Tyres(ctx); ok {
		t.Fatal("expected listing miss")
	}

	tc.SetTyres(ctx, []models.Tyre{})
	tyres, ok := tc.Tyres(ctx)
	if !ok {
		t.Fatal("expected listing hit")
	}
	if tyres == nil || len(tyres) != 0 {
		t.Errorf("expected empty non-nil listing, got %#v", tyres)
	}
}

func TestTyreCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTyreCache(client, time.Minute)
	ctx := context.Background()
	tyre := sampleTyre()

	tc.SetTyre(ctx, tyre)
	tc.SetTyres(ctx, []models.Tyre{*tyre})

	tc.Invalidate(ctx, tyre.ID)

	if _, ok := tc.Tyre(ctx, tyre.ID); ok {
		t.Error("expected tyre miss after invalidation")
	}
	if _, ok := tc.Tyres(ctx); ok {
		t.Error("expected listing miss after invalidation")
	}
}

func TestTyreKey(t *testing.T) {
	id := uuid.MustParse("5b7f2e1c-4f0a-4d4c-9a57-0d6a3c1c2b11")
	if got := TyreKey(id); got != "tyre:5b7f2e1c-4f0a-4d4c-9a57-0d6a3c1c2b11" {
		t.Errorf("TyreKey: got %q", got)
	}
}

func TestNewTyreCacheDefaultTTL(t *testing.T) {
	client := testValkeyClient(t)

	// TTL = 0 should use default.
	tc := NewTyreCache(client, 0)
	if tc.ttl != DefaultTyreTTL {
		t.Errorf("expected DefaultTyreTTL (%v), got %v", DefaultTyreTTL, tc.ttl)
	}
}
