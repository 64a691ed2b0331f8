// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"tyremarket/internal/auth"
	"tyremarket/internal/models"
	"tyremarket/internal/session"
)

// fakeSessions is an in-memory SessionGetter.
type fakeSessions struct {
	data map[string]*session.Data
	err  error
}

func (f *fakeSessions) Get(_ context.Context, id string) (*session.Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[id], nil
}

type authFixture struct {
	tokens   *auth.Tokens
	sessions *fakeSessions
	user     *models.User
	token    string
	tokenID  string
}

func newAuthFixture(t *testing.T, role models.Role) *authFixture {
	t.Helper()
	sellerID := uuid.New()
	user := &models.User{ID: uuid.New(), Email: "u@tyremarket.test", Role: role, SellerID: &sellerID}
	tokens := auth.NewTokens("middleware-test-secret", time.Hour)

	token, claims, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	return &authFixture{
		tokens: tokens,
		sessions: &fakeSessions{data: map[string]*session.Data{
			claims.ID: {UserID: user.ID, Email: user.Email, Role: string(role), SellerID: user.SellerID},
		}},
		user:    user,
		token:   token,
		tokenID: claims.ID,
	}
}

// identityEcho writes the identity's role and token id.
var identityEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromCtx(r.Context())
	if id == nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(string(id.Role) + " " + id.TokenID))
})

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v (%q)", err, rr.Body.String())
	}
	return body["error"]
}

func TestRequireAuth(t *testing.T) {
	f := newAuthFixture(t, models.RoleSeller)
	handler := RequireAuth(f.tokens, f.sessions)(identityEcho)

	t.Run("x-auth-token header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, f.token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rr.Code)
		}
		if rr.Body.String() != "seller "+f.tokenID {
			t.Errorf("body: got %q", rr.Body.String())
		}
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+f.token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})

	t.Run("no token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status: got %d, want 401", rr.Code)
		}
		if msg := errorMessage(t, rr); msg != "Access denied. No token provided." {
			t.Errorf("message: got %q", msg)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, "garbage")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("revoked session", func(t *testing.T) {
		revoked := newAuthFixture(t, models.RoleAdmin)
		delete(revoked.sessions.data, revoked.tokenID)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, revoked.token)
		rr := httptest.NewRecorder()
		RequireAuth(revoked.tokens, revoked.sessions)(identityEcho).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("session store failure", func(t *testing.T) {
		broken := newAuthFixture(t, models.RoleAdmin)
		broken.sessions.err = errors.New("valkey down")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, broken.token)
		rr := httptest.NewRecorder()
		RequireAuth(broken.tokens, broken.sessions)(identityEcho).ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
	})
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		role       models.Role
		wantSeller int
		wantAdmin  int
	}{
		{models.RoleAdmin, http.StatusOK, http.StatusOK},
		{models.RoleSeller, http.StatusOK, http.StatusForbidden},
		{models.RoleCustomer, http.StatusForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newAuthFixture(t, tt.role)

			for _, c := range []struct {
				name string
				mw   func(http.Handler) http.Handler
				want int
			}{
				{"seller", RequireSeller, tt.wantSeller},
				{"admin", RequireAdmin, tt.wantAdmin},
			} {
				handler := RequireAuth(f.tokens, f.sessions)(c.mw(identityEcho))
				req := httptest.NewRequest(http.MethodDelete, "/tyres/x", nil)
				req.Header.Set(TokenHeader, f.token)
				rr := httptest.NewRecorder()
				handler.ServeHTTP(rr, req)

				if rr.Code != c.want {
					t.Errorf("%s: got %d, want %d", c.name, rr.Code, c.want)
				}
			}
		})
	}
}

func TestRequireSellerWithoutIdentity(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireSeller(identityEcho).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"custom header", TokenHeader, " abc ", "abc"},
		{"bearer", "Authorization", "Bearer abc", "abc"},
		{"lowercase bearer", "Authorization", "bearer abc", "abc"},
		{"basic auth ignored", "Authorization", "Basic abc", ""},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
