// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TrustedProxies resolves the client address of a request. X-Forwarded-For
// is only consulted when the peer is one of the listed proxies, and then
// only up to the first hop that is not itself a trusted proxy.
type TrustedProxies []netip.Prefix

func (tp TrustedProxies) trusts(addr netip.Addr) bool {
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address login attempts are counted against.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !tp.trusts(peer) {
		return peer.String()
	}

	// Walk the chain from the nearest hop outwards.
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = hop.Unmap()
		if !tp.trusts(client) {
			break
		}
	}
	return client.String()
}

func peerAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(remote); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

// window counts one client's attempts in the current period.
type window struct {
	start time.Time
	count int
}

// RateLimiter allows limit attempts per client and fixed period. Periods
// start with a client's first attempt.
type RateLimiter struct {
	mu      sync.Mutex // guards windows and now
	windows map[string]*window
	limit   int
	period  time.Duration
	proxies TrustedProxies
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter returns a limiter allowing limit attempts per period. A
// background sweep drops finished windows until Stop is called.
func NewRateLimiter(limit int, period time.Duration, proxies TrustedProxies) *RateLimiter {
	if period <= 0 {
		period = time.Minute
	}
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		proxies: proxies,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// take records an attempt for key. When the limit is reached it reports
// false and how long until the client's window ends.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[key] = &window{start: now, count: 1}
		return true, 0
	}
	if w.count >= rl.limit {
		return false, w.start.Add(rl.period).Sub(now)
	}
	w.count++
	return true, 0
}

// sweep removes windows whose period has ended.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.period {
			delete(rl.windows, key)
		}
	}
}

// Middleware rejects a client's attempts beyond the limit with a JSON 429
// and a Retry-After of the time left in its window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := rl.proxies.ClientIP(r)
		ok, wait := rl.take(client)
		if !ok {
			slog.Warn("login rate limit exceeded", "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
