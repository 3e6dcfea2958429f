package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Istiyak4099/Airdrop/pkg/errors"
)

// IPRateLimiter allows limit requests per client IP in a sliding window.
// X-Forwarded-For is only honoured when trustProxy is set.
type IPRateLimiter struct {
	ips        map[string][]time.Time
	mu         sync.Mutex
	limit      int
	window     time.Duration
	trustProxy bool
	lastSweep  time.Time
	now        func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration, trustProxy bool) *IPRateLimiter {
	return &IPRateLimiter{
		ips:        make(map[string][]time.Time),
		limit:      limit,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

// Allow records a request from ip and reports whether it is within the limit.
func (l *IPRateLimiter) Allow(ip string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	valid := l.ips[ip][:0]
	for _, t := range l.ips[ip] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.limit {
		l.ips[ip] = valid
		return false
	}
	l.ips[ip] = append(valid, now)
	return true
}

// sweep drops clients whose requests have all left the window.
func (l *IPRateLimiter) sweep(windowStart time.Time) {
	for ip, times := range l.ips {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(l.ips, ip)
		}
	}
}

func (l *IPRateLimiter) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r, l.trustProxy)) {
			apperrors.HandleError(w, apperrors.New(apperrors.ErrRateLimited, "Rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address, or the first X-Forwarded-For hop when
// the service sits behind a proxy that sets it.
func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
