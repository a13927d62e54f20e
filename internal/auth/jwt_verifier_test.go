package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cardquery/internal/domain"
	"cardquery/internal/domain/models"
)

func newTestVerifier(t *testing.T) (*JWKSVerifier, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	kf := func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	return NewVerifierWithKeyfunc(kf, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims models.AdminClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func adminClaims(sub, role string, exp time.Time) models.AdminClaims {
	return models.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}
}

func TestVerifyToken(t *testing.T) {
	v, key := newTestVerifier(t)
	_, otherKey := newTestVerifier(t)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid admin", signToken(t, key, adminClaims("op-1", AdminRole, future)), nil},
		{"non-admin role", signToken(t, key, adminClaims("op-1", "member", future)), domain.ErrForbidden},
		{"missing subject", signToken(t, key, adminClaims("", AdminRole, future)), domain.ErrUnauthorized},
		{"expired", signToken(t, key, adminClaims("op-1", AdminRole, time.Now().Add(-time.Minute))), domain.ErrUnauthorized},
		{"wrong key", signToken(t, otherKey, adminClaims("op-1", AdminRole, future)), domain.ErrUnauthorized},
		{"garbage", "not.a.jwt", domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.VerifyToken(tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if claims.GetUserID() != "op-1" {
					t.Errorf("subject = %q", claims.GetUserID())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyToken_RejectsHMAC(t *testing.T) {
	v, _ := newTestVerifier(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims("op-1", AdminRole, time.Now().Add(time.Hour))).
		SignedString([]byte("shared"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.VerifyToken(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("HS256 token accepted: %v", err)
	}
}

func TestNewJWTVerifier_RequiresURL(t *testing.T) {
	if _, err := NewJWTVerifier(t.Context(), "", slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for empty JWKS URL")
	}
}
