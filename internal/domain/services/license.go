package services

import (
	"context"

	"cardquery/internal/domain/models"
)

// IdentityValidator answers whether an identity is licensed.
type IdentityValidator interface {
	Validate(ctx context.Context, identity string) (bool, error)
}

// LicenseService manages identities and payment-driven provisioning.
type LicenseService interface {
	IdentityValidator

	// BySession returns the identity provisioned for a checkout session.
	// Returns domain.ErrNotFound when no identity exists yet.
	BySession(ctx context.Context, sessionID string) (string, error)

	// Provision creates (or returns the existing) license for an email.
	Provision(ctx context.Context, email, sessionID string) (*models.License, error)

	// HandleWebhook verifies and processes a raw payment-provider event.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error

	// Health reports active identity count and store connectivity.
	Health(ctx context.Context) (int, error)
}

// Mailer delivers license keys to payers.
type Mailer interface {
	SendLicense(ctx context.Context, license *models.License) error
}
