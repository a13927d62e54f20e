package repositories

import (
	"context"

	"cardquery/internal/domain/models"
)

// IdentityStore defines data access for provisioned licenses
type IdentityStore interface {
	// IsValid reports whether key belongs to an active license
	IsValid(ctx context.Context, key string) (bool, error)

	// Add stores a new license. Returns false (and no error) when the key
	// already exists or another active license already holds the email.
	Add(ctx context.Context, license *models.License) (bool, error)

	// FindByEmail returns the key provisioned for email, or "" when none exists
	FindByEmail(ctx context.Context, email string) (string, error)

	// FindBySession returns the key provisioned by a checkout session, or ""
	FindBySession(ctx context.Context, sessionID string) (string, error)

	// LinkSession records that a checkout session resolved to an existing key
	LinkSession(ctx context.Context, sessionID, key string) error

	// Count returns the number of active licenses
	Count(ctx context.Context) (int, error)

	// Ping checks connectivity to the backing store
	Ping(ctx context.Context) error
}
