// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test keys.
		keys, _ := client.Keys(ctx, "session:*").Result()
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

func TestSessionCreateAndGet(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Hour)
	ctx := context.Background()

	sellerID := uuid.New()
	data := &Data{
		UserID:   uuid.New(),
		Email:    "test@session.local",
		Role:     "seller",
		SellerID: &sellerID,
	}
	id := uuid.NewString()

	if err := store.Create(ctx, id, data); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session data")
	}
	if got.UserID != data.UserID {
		t.Errorf("UserID: got %s, want %s", got.UserID, data.UserID)
	}
	if got.Email != data.Email || got.Role != data.Role {
		t.Errorf("identity mismatch: got %+v", got)
	}
	if got.SellerID == nil || *got.SellerID != sellerID {
		t.Errorf("SellerID: got %v, want %s", got.SellerID, sellerID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	ttl, err := client.TTL(ctx, keyPrefix+id).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("unexpected key TTL %v", ttl)
	}
}

func TestSessionCreateEmptyID(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0)

	if err := store.Create(context.Background(), "", &Data{}); err == nil {
		t.Error("expected error for empty id")
	}
	if store.TTL() != DefaultTTL {
		t.Errorf("TTL: got %v, want %v", store.TTL(), DefaultTTL)
	}
}

func TestSessionGetUnknown(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0)

	data, err := store.Get(context.Background(), "nonexistent-token-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data != nil {
		t.Error("expected nil data for unknown session")
	}
}

func TestSessionDestroy(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0)
	ctx := context.Background()

	id := uuid.NewString()
	if err := store.Create(ctx, id, &Data{UserID: uuid.New(), Role: "admin"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Destroy(ctx, id); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	data, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data != nil {
		t.Error("expected session to be gone after Destroy")
	}

	// Destroying twice is fine.
	if err := store.Destroy(ctx, id); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}
