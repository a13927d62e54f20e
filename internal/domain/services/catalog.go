package services

import (
	"context"
	"time"

	"cardquery/internal/domain/models"
)

// RawSet is a set entry as delivered by the external catalog source.
type RawSet struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ReleasedAt string `json:"released_at"`
}

// CatalogSource fetches the full set list from an external provider.
type CatalogSource interface {
	FetchSets(ctx context.Context) ([]RawSet, error)
}

// CatalogProvider returns the current set catalog, refreshing as needed.
type CatalogProvider interface {
	Catalog(ctx context.Context) ([]models.Set, error)
}

// CatalogStats describes the cached catalog snapshot.
type CatalogStats struct {
	Sets      int       `json:"sets"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CatalogAdmin exposes cache maintenance for admin routes and health checks.
type CatalogAdmin interface {
	CatalogProvider
	Invalidate()
	Stats() CatalogStats
}
