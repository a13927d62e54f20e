package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cardquery/internal/domain/models"
	"cardquery/internal/domain/services"
	"cardquery/internal/utils"
)

// DefaultTTL is how long a fetched catalog is served before refreshing.
const DefaultTTL = 24 * time.Hour

// ErrCatalogUnavailable is returned when the catalog source cannot be read.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Cache holds the set catalog with a time-to-live. A stale or empty cache is
// refreshed from the source on the next read. Refreshes replace the snapshot
// wholesale; a failed refresh leaves the previous snapshot in place but is
// still reported to the caller.
//
// Concurrent refreshes are not deduplicated: two readers that both observe a
// stale snapshot will both fetch, and the last writer wins.
type Cache struct {
	source  services.CatalogSource
	aliases []models.Set
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.RWMutex
	data      []models.Set
	fetchedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithAliases sets the curated alias entries appended to every refresh.
func WithAliases(aliases []models.Set) CacheOption {
	return func(c *Cache) { c.aliases = aliases }
}

// NewCache creates an empty catalog cache over source.
func NewCache(source services.CatalogSource, logger *slog.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the cached catalog, fetching it first when the cache is
// empty or older than the TTL. The returned slice is shared and must not be
// modified.
func (c *Cache) Catalog(ctx context.Context) ([]models.Set, error) {
	now := c.now()

	c.mu.RLock()
	data, fetchedAt := c.data, c.fetchedAt
	c.mu.RUnlock()

	if data != nil && now.Sub(fetchedAt) < c.ttl {
		return data, nil
	}

	raw, err := c.source.FetchSets(ctx)
	if err != nil {
		c.logger.Warn("catalog refresh failed", "error", err, "cached_sets", len(data))
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	fresh := make([]models.Set, 0, len(raw)+len(c.aliases))
	for _, r := range raw {
		code := normalizeCode(r.Code)
		if code == "" || r.Name == "" {
			continue
		}
		fresh = append(fresh, models.Set{
			Code:           code,
			Name:           r.Name,
			NormalizedName: utils.Normalize(r.Name),
			ReleasedAt:     r.ReleasedAt,
		})
	}
	fresh = append(fresh, c.aliases...)

	c.mu.Lock()
	c.data = fresh
	c.fetchedAt = now
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", "sets", len(raw), "aliases", len(c.aliases))
	return fresh, nil
}

// Invalidate marks the snapshot stale so the next read refetches. The
// snapshot itself stays until a refresh succeeds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Stats reports the size and age of the current snapshot.
func (c *Cache) Stats() services.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return services.CatalogStats{Sets: len(c.data), FetchedAt: c.fetchedAt}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
