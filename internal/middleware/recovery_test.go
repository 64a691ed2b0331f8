// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	panics := map[string]any{
		"string":  "something went wrong",
		"integer": 42,
		"reader":  strings.NewReader("error reader"), // arbitrary non-string panic
	}

	for name, value := range panics {
		t.Run("catches "+name+" panic", func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			})

			req := httptest.NewRequest(http.MethodGet, "/tyres", nil)
			rr := httptest.NewRecorder()

			// Should not panic; the middleware catches it.
			Recoverer(inner).ServeHTTP(rr, req)

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["error"] != "Internal Server Error" {
				t.Errorf("error: got %q", body["error"])
			}
		})
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()

	Recoverer(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRecovererNoPanic(t *testing.T) {
	var called bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Header().Set("X-Custom", "test-value")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/tyres", nil)
	rr := httptest.NewRecorder()
	Recoverer(inner).ServeHTTP(rr, req)

	if !called {
		t.Error("next handler should have been called")
	}
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("got %d %q, want 200 \"ok\"", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Custom"); got != "test-value" {
		t.Errorf("X-Custom: got %q, want %q", got, "test-value")
	}
}
