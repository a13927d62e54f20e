// Package ratelimit enforces per-identity request quotas over fixed windows.
//
// Each identity gets a window record created lazily on its first request.
// The record is replaced wholesale once its reset time passes, and a
// background sweep drops records that have been expired for longer than one
// extra window, bounding memory without per-identity timers.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cardquery/internal/domain/models"
)

const (
	// DefaultMax is the number of requests admitted per window.
	DefaultMax = 60
	// DefaultWindow is the window length.
	DefaultWindow = time.Hour
	// DefaultSweepEvery is how often stale records are collected.
	DefaultSweepEvery = 30 * time.Minute
)

// ErrIdentityRequired is returned by Admit for an empty identity.
var ErrIdentityRequired = errors.New("identity required")

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter keyed by identity. It is safe for
// concurrent use.
type Limiter struct {
	max        int
	window     time.Duration
	sweepEvery time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu      sync.Mutex
	entries map[string]*window

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMax sets the requests admitted per window.
func WithMax(n int) Option {
	return func(l *Limiter) { l.max = n }
}

// WithWindow sets the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

// WithSweepEvery sets the sweep period. Zero disables the background sweeper.
func WithSweepEvery(d time.Duration) Option {
	return func(l *Limiter) { l.sweepEvery = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter. The sweeper is not running until Start is called.
func New(logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		max:        DefaultMax,
		window:     DefaultWindow,
		sweepEvery: DefaultSweepEvery,
		now:        time.Now,
		logger:     logger,
		entries:    make(map[string]*window),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured maximum per window.
func (l *Limiter) Limit() int { return l.max }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Admit consumes one request slot for identity. A rejected decision leaves
// the record untouched and reports the current reset time.
func (l *Limiter) Admit(identity string) (models.QuotaDecision, error) {
	now := l.now()
	if identity == "" {
		return l.fresh(now), ErrIdentityRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[identity]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.entries[identity] = w
	}

	if w.count >= l.max {
		return models.QuotaDecision{
			Allowed:   false,
			Limit:     l.max,
			Remaining: 0,
			ResetAt:   w.resetAt,
		}, nil
	}

	w.count++
	return models.QuotaDecision{
		Allowed:   true,
		Limit:     l.max,
		Remaining: l.max - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Peek reports identity's quota without consuming a slot. Unknown or expired
// identities report a full fresh window.
func (l *Limiter) Peek(identity string) models.QuotaDecision {
	now := l.now()
	if identity == "" {
		return l.fresh(now)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[identity]
	if !ok || !now.Before(w.resetAt) {
		return l.fresh(now)
	}
	remaining := l.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return models.QuotaDecision{
		Allowed:   remaining > 0,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}
}

func (l *Limiter) fresh(now time.Time) models.QuotaDecision {
	return models.QuotaDecision{
		Allowed:   true,
		Limit:     l.max,
		Remaining: l.max,
		ResetAt:   now.Add(l.window),
	}
}

// Sweep deletes records whose reset time is more than one window in the past
// and returns how many were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, w := range l.entries {
		if w.resetAt.Before(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Start runs the periodic sweep until ctx is cancelled or Close is called.
func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.sweepEvery <= 0 {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	ticker := time.NewTicker(l.sweepEvery)
	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stop:
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.logger.Debug("rate limit sweep", "removed", n, "remaining", l.Len())
				}
			}
		}
	}()
}

// Close stops the sweeper started by Start and waits for it to exit.
func (l *Limiter) Close() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()

	l.stopOnce.Do(func() { close(l.stop) })
	if started {
		<-l.done
	}
}
