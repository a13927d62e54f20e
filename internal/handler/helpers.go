package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cardquery/internal/domain"
	"cardquery/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Upstream causes are
// logged and never rendered.
func handleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	handleErrorAt(w, err, logger, time.Now())
}

// handleErrorAt is handleError with resetSeconds measured from now.
func handleErrorAt(w http.ResponseWriter, err error, logger *slog.Logger, now time.Time) {
	var (
		quotaErr    *domain.QuotaExceededError
		upstreamErr *domain.UpstreamError
	)

	switch {
	case errors.As(err, &quotaErr):
		httputil.RespondErrorWithExtras(w, http.StatusTooManyRequests, quotaErr.Error(), map[string]interface{}{
			"limit":        quotaErr.Limit,
			"resetSeconds": quotaErr.ResetSeconds(now),
		})
	case errors.As(err, &upstreamErr):
		logger.Error("upstream failure", "op", upstreamErr.Op, "error", upstreamErr.Err)
		httputil.RespondError(w, http.StatusBadGateway, domain.ErrUpstreamUnavailable.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSignatureInvalid):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// statusOf returns the status handleError would write for err.
func statusOf(err error) int {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	return http.StatusInternalServerError
}
