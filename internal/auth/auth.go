// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth issues and verifies the HS256 tokens handed out by
// POST /auth. A token only authenticates while the session stored under
// its id (jti) exists; see package session.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/models"
)

// DefaultIssuer is the iss claim written into every token.
const DefaultIssuer = "tyremarket"

// Claims are the JWT claims carried by an auth token.
type Claims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     string     `json:"role"`
	SellerID *uuid.UUID `json:"seller_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and validates auth tokens.
type Tokens struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokens returns a token service signing with secret. Tokens expire
// after ttl.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		signingKey: []byte(secret),
		issuer:     DefaultIssuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL reports the lifetime of issued tokens.
func (s *Tokens) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for user. The returned claims hold the
// generated token id.
func (s *Tokens) Issue(user *models.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:   user.ID,
		Role:     string(user.Role),
		SellerID: user.SellerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates a token and returns its claims. Every failure is an
// apperr unauthorized error.
func (s *Tokens) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token has expired.")
		}
		return nil, apperr.Unauthorized("Invalid token.")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, apperr.Unauthorized("Invalid token.")
	}
	return claims, nil
}
