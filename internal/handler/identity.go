package handler

import (
	"log/slog"
	"net/http"

	"cardquery/internal/domain/services"
	"cardquery/internal/httputil"
)

// IdentityHandler handles license lookups from the extension
type IdentityHandler struct {
	licenseService services.LicenseService
	logger         *slog.Logger
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(licenseService services.LicenseService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		licenseService: licenseService,
		logger:         logger,
	}
}

// ValidateIdentity reports whether a license key is valid
// POST /validate-identity
func (h *IdentityHandler) ValidateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	valid, err := h.licenseService.Validate(r.Context(), req.Identity)
	if err != nil {
		h.logger.Error("identity validation failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "service unavailable")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// BySession recovers the key provisioned by a completed checkout
// GET /identity/by-session?sessionId=
func (h *IdentityHandler) BySession(w http.ResponseWriter, r *http.Request) {
	key, err := h.licenseService.BySession(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"identity": key})
}
