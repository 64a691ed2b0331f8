// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tyre.go provides a Valkey-backed cache for tyre reads. Single tyres and
// the full title-ordered listing are stored as JSON so repeated reads skip
// PostgreSQL. Every write through the listing service invalidates the
// affected keys.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tyremarket/internal/models"
)

const (
	// tyreKeyPrefix is the Valkey key prefix for cached single tyres.
	tyreKeyPrefix = "tyre:"

	// allTyresKey holds the cached result of listing every tyre.
	allTyresKey = "tyres:all"

	// DefaultTyreTTL is how long a cached read stays valid.
	DefaultTyreTTL = 5 * time.Minute
)

// TyreCache manages tyre read caching in Valkey. Failures are logged and
// treated as misses; the cache never fails a request.
type TyreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTyreCache creates a tyre cache backed by the given Valkey client.
func NewTyreCache(client *redis.Client, ttl time.Duration) *TyreCache {
	if ttl == 0 {
		ttl = DefaultTyreTTL
	}
	return &TyreCache{client: client, ttl: ttl}
}

// TyreKey returns the cache key for a single tyre.
func TyreKey(id uuid.UUID) string {
	return tyreKeyPrefix + id.String()
}

// Tyre returns the cached tyre for id.
func (c *TyreCache) Tyre(ctx context.Context, id uuid.UUID) (*models.Tyre, bool) {
	var t models.Tyre
	if !c.get(ctx, TyreKey(id), &t) {
		return nil, false
	}
	return &t, true
}

// SetTyre caches a single tyre.
func (c *TyreCache) SetTyre(ctx context.Context, t *models.Tyre) {
	c.set(ctx, TyreKey(t.ID), t)
}

// Tyres returns the cached full listing.
func (c *TyreCache) Tyres(ctx context.Context) ([]models.Tyre, bool) {
	var tyres []models.Tyre
	if !c.get(ctx, allTyresKey, &tyres) {
		return nil, false
	}
	if tyres == nil {
		tyres = []models.Tyre{}
	}
	return tyres, true
}

// SetTyres caches the full listing.
func (c *TyreCache) SetTyres(ctx context.Context, tyres []models.Tyre) {
	c.set(ctx, allTyresKey, tyres)
}

// Invalidate drops the cached tyre and the cached listing.
func (c *TyreCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, TyreKey(id), allTyresKey).Err(); err != nil {
		slog.Warn("tyre cache invalidate error", "tyre_id", id, "error", err)
		return
	}
	slog.Debug("tyre cache invalidated", "tyre_id", id)
}

func (c *TyreCache) get(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("tyre cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("tyre cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("tyre cache hit", "key", key)
	return true
}

func (c *TyreCache) set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("tyre cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Warn("tyre cache set error", "key", key, "error", err)
	}
}
