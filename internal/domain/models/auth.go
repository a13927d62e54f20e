package models

import "github.com/golang-jwt/jwt/v5"

// AdminClaims represents the JWT claims carried by operator tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetUserID returns the operator ID from the JWT subject claim.
func (c *AdminClaims) GetUserID() string {
	return c.Subject
}
