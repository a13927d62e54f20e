package handler

import (
	"log/slog"
	"net/http"

	"cardquery/internal/domain/services"
	"cardquery/internal/httputil"
)

// HealthHandler reports liveness and backing-store connectivity
type HealthHandler struct {
	licenseService services.LicenseService
	catalog        services.CatalogAdmin
	logger         *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(licenseService services.LicenseService, catalog services.CatalogAdmin, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		licenseService: licenseService,
		catalog:        catalog,
		logger:         logger,
	}
}

type healthResponse struct {
	Status           string                `json:"status"`
	ActiveIdentities int                   `json:"activeIdentities"`
	Store            string                `json:"store"`
	Catalog          services.CatalogStats `json:"catalog"`
}

// Health returns 200 when the identity store answers, 503 otherwise
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Store:   "connected",
		Catalog: h.catalog.Stats(),
	}

	n, err := h.licenseService.Health(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unreachable"
		httputil.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.ActiveIdentities = n
	httputil.RespondJSON(w, http.StatusOK, resp)
}
