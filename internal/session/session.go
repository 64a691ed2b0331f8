// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed token sessions. Each issued auth
// token carries a unique id (the JWT jti); the session stored under that
// id is what keeps the token valid. Logging out deletes the session, which
// revokes the token before it expires.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"
)

// Data holds the session payload stored in Valkey. It contains the
// authenticated user's identity at login time.
type Data struct {
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	SellerID  *uuid.UUID `json:"seller_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
// A zero ttl selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// TTL reports how long new sessions live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores the session under the given token id.
func (s *Store) Create(ctx context.Context, id string, data *Data) error {
	if id == "" {
		return fmt.Errorf("session create: empty id")
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Get retrieves session data for a token id. Returns nil if the session
// expired, was destroyed or never existed.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	if id == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Destroy removes the session. Destroying a missing session is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}
