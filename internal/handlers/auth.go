// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tyremarket/internal/apperr"
	"tyremarket/internal/auth"
	"tyremarket/internal/metrics"
	"tyremarket/internal/middleware"
	"tyremarket/internal/models"
	"tyremarket/internal/session"
)

// invalidCredentials is returned for unknown users and wrong passwords alike.
const invalidCredentials = "Invalid email or password"

// UserFinder looks up accounts for login.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// TokenIssuer signs auth tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, *auth.Claims, error)
}

// SessionStore records and revokes the sessions backing tokens.
type SessionStore interface {
	Create(ctx context.Context, id string, data *session.Data) error
	Destroy(ctx context.Context, id string) error
}

// Auth groups the token login and logout handlers.
type Auth struct {
	users    UserFinder
	tokens   TokenIssuer
	sessions SessionStore
	metrics  *metrics.Metrics
}

// NewAuth creates a new Auth handler group.
func NewAuth(users UserFinder, tokens TokenIssuer, sessions SessionStore, m *metrics.Metrics) *Auth {
	return &Auth{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		metrics:  m,
	}
}

// Login checks the credentials and answers with a signed token, both in the
// x-auth-token header and as the plain-text body.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	f, err := bodyFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email, password := f["email"], f["password"]
	if msg := validateLogin(email, password); msg != "" {
		writeError(w, r, apperr.Validation(msg))
		return
	}

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, r, apperr.Persistence(err, "login lookup"))
		return
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		a.metrics.IncrementLoginFailures()
		writeError(w, r, apperr.Validation(invalidCredentials))
		return
	}

	token, claims, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, r, apperr.Persistence(err, "issue token"))
		return
	}

	err = a.sessions.Create(r.Context(), claims.ID, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		SellerID:  user.SellerID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, r, apperr.Persistence(err, "create session"))
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	w.Header().Set(middleware.TokenHeader, token)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(token))
}

// Logout revokes the session behind the caller's token.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		writeError(w, r, apperr.Unauthorized("Access denied. No token provided."))
		return
	}
	if err := a.sessions.Destroy(r.Context(), id.TokenID); err != nil {
		slog.Error("session destroy failed", "error", err)
		writeError(w, r, apperr.Persistence(err, "destroy session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
