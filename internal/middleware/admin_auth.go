package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cardquery/internal/auth"
	"cardquery/internal/domain"
	"cardquery/internal/httputil"
)

// AdminAuth requires a bearer token carrying the admin role.
func AdminAuth(verifier auth.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					httputil.RespondError(w, http.StatusForbidden, "forbidden")
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			logger.Debug("admin request", "admin", claims.GetUserID(), "path", r.URL.Path)
			next.ServeHTTP(w, httputil.WithAdminSubject(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
