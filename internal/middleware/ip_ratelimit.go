package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cardquery/internal/httputil"
)

// IPStore hands out one token bucket per client IP and forgets idle clients.
type IPStore struct {
	mu           sync.Mutex
	entries      map[string]*ipEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type ipEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type IPStoreOption func(*IPStore)

func WithIdleTTL(d time.Duration) IPStoreOption {
	return func(s *IPStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) IPStoreOption {
	return func(s *IPStore) { s.cleanupEvery = d }
}

func NewIPStore(rps float64, burst int, opts ...IPStoreOption) *IPStore {
	if burst < 1 {
		burst = 1
	}
	s := &IPStore{
		entries:      make(map[string]*ipEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether ip may make a request now.
func (s *IPStore) Allow(ip string) bool {
	now := s.now()

	s.mu.Lock()
	ent, ok := s.entries[ip]
	if !ok {
		ent = &ipEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[ip] = ent
	}
	ent.lastSeen = now
	s.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// Cleanup drops clients idle for longer than idleTTL.
func (s *IPStore) Cleanup() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (s *IPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor runs Cleanup periodically until ctx is cancelled.
func (s *IPStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// IPRateLimit rejects clients that exceed their token bucket with 429.
// X-Forwarded-For is honoured only when trustXFF is set.
func IPRateLimit(store *IPStore, trustXFF bool) func(http.Handler) http.Handler {
	retryAfter := "1"
	if store.rps > 0 {
		retryAfter = strconv.Itoa(int(max(1, 1/float64(store.rps))))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Allow(clientIP(r, trustXFF)) {
				w.Header().Set("Retry-After", retryAfter)
				httputil.RespondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
