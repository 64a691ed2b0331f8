// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"
)

// fakeClock is a settable time source for limiter tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, period time.Duration, proxies TrustedProxies) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period, proxies)
	rl.mu.Lock()
	rl.now = clock.now
	rl.mu.Unlock()
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterTake(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute, nil)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.take("203.0.113.1"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, _ := rl.take("203.0.113.1"); ok {
		t.Error("4th attempt should be limited")
	}
	if ok, _ := rl.take("203.0.113.2"); !ok {
		t.Error("another client should be allowed")
	}
}

func TestRateLimiterWindowEnds(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute, nil)

	rl.take("c")
	clock.advance(20 * time.Second)
	rl.take("c")

	ok, wait := rl.take("c")
	if ok {
		t.Fatal("should be limited")
	}
	if wait != 40*time.Second {
		t.Errorf("wait: got %v, want 40s", wait)
	}

	clock.advance(40 * time.Second)
	if ok, _ := rl.take("c"); !ok {
		t.Error("should be allowed once the window ends")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute, nil)

	rl.take("old")
	clock.advance(45 * time.Second)
	rl.take("fresh")
	clock.advance(30 * time.Second)

	rl.sweep()

	rl.mu.Lock()
	_, oldKept := rl.windows["old"]
	_, freshKept := rl.windows["fresh"]
	rl.mu.Unlock()
	if oldKept {
		t.Error("finished window should be swept")
	}
	if !freshKept {
		t.Error("open window should be kept")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second, nil)
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Second, nil)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := send("192.168.1.1:12345"); rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: got status %d, want 200", i+1, rr.Code)
		}
	}

	rr := send("192.168.1.1:23456")
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After: got %q, want %q", got, "1")
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("expected JSON error body, got %q", rr.Body.String())
	}

	if rr := send("192.168.1.2:12345"); rr.Code != http.StatusOK {
		t.Errorf("other client: got status %d, want 200", rr.Code)
	}
}

// TestRateLimiterIgnoresSpoofedForwardedFor checks that a client talking
// to the server directly cannot get a fresh budget by rotating the
// X-Forwarded-For header.
func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute, nil)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for _, spoof := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		req := httptest.NewRequest(http.MethodPost, "/auth", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", spoof)
		req.Header.Set("X-Real-IP", spoof)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{200, 200, 429, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("status codes: got %v, want %v", codes, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	proxies := TrustedProxies{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("2001:db8::/32"),
	}

	tests := []struct {
		name       string
		proxies    TrustedProxies
		xff        []string
		remoteAddr string
		want       string
	}{
		{
			name:       "no proxies ignores forwarded for",
			xff:        []string{"203.0.113.9"},
			remoteAddr: "198.51.100.7:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "untrusted peer ignores forwarded for",
			proxies:    proxies,
			xff:        []string{"203.0.113.9"},
			remoteAddr: "198.51.100.7:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "trusted peer names the client",
			proxies:    proxies,
			xff:        []string{"203.0.113.9"},
			remoteAddr: "10.1.1.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "client cannot prepend a spoofed hop",
			proxies:    proxies,
			xff:        []string{"1.2.3.4, 203.0.113.9, 10.2.2.2"},
			remoteAddr: "10.1.1.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "repeated headers are one chain",
			proxies:    proxies,
			xff:        []string{"1.2.3.4", "203.0.113.9"},
			remoteAddr: "10.1.1.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "garbage hop stops the walk",
			proxies:    proxies,
			xff:        []string{"203.0.113.9, not-an-ip, 10.2.2.2"},
			remoteAddr: "10.1.1.1:1234",
			want:       "10.2.2.2",
		},
		{
			name:       "trusted peer without header",
			proxies:    proxies,
			remoteAddr: "10.1.1.1:1234",
			want:       "10.1.1.1",
		},
		{
			name:       "ipv6 peer",
			proxies:    proxies,
			xff:        []string{"2001:db9::5"},
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db9::5",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
		{
			name:       "unparseable remote addr used as is",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := tt.proxies.ClientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
