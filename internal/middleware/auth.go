// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/auth"
	"tyremarket/internal/models"
	"tyremarket/internal/session"
)

// TokenHeader is the request and response header carrying the auth token.
const TokenHeader = "x-auth-token"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// IdentityKey is the context key for the authenticated identity.
	IdentityKey contextKey = "identity"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Role     models.Role
	SellerID *uuid.UUID
	TokenID  string
}

// IsAdmin reports whether the caller has the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// TokenParser validates auth tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// SessionGetter looks up the session backing a token.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.Data, error)
}

// TokenFromRequest returns the token from the x-auth-token header or a
// bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid token whose session is
// still alive, and stores the caller's Identity in the request context.
func RequireAuth(tokens TokenParser, sessions SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.Message(err))
				return
			}

			data, err := sessions.Get(r.Context(), claims.ID)
			if err != nil {
				slog.Error("session lookup failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if data == nil || data.UserID != claims.UserID {
				writeError(w, http.StatusUnauthorized, "Session expired or revoked.")
				return
			}

			id := &Identity{
				UserID:   data.UserID,
				Email:    data.Email,
				Role:     models.Role(data.Role),
				SellerID: data.SellerID,
				TokenID:  claims.ID,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), IdentityKey, id)))
		})
	}
}

// RequireSeller returns 403 unless the caller is an admin or a seller.
// Must be applied after RequireAuth.
func RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromCtx(r.Context())
		if id == nil || !id.Role.CanSell() {
			writeError(w, http.StatusForbidden, "Access denied.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromCtx(r.Context())
		if id == nil || !id.IsAdmin() {
			writeError(w, http.StatusForbidden, "Access denied.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromCtx extracts the caller identity from the request context.
// Returns nil if the request is not authenticated.
func IdentityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(IdentityKey).(*Identity)
	return id
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}
