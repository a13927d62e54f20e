package auth

import "cardquery/internal/domain/models"

// TokenVerifier verifies operator bearer tokens for the admin routes.
type TokenVerifier interface {
	// VerifyToken validates a JWT and returns its claims. Any failure is
	// reported as domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.AdminClaims, error)

	// Close releases resources held by the verifier.
	Close() error
}
