package handler

import (
	"log/slog"
	"net/http"

	"cardquery/internal/domain/services"
	"cardquery/internal/httputil"
)

// AdminHandler handles operator routes behind admin JWT auth
type AdminHandler struct {
	catalog        services.CatalogAdmin
	licenseService services.LicenseService
	logger         *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(catalog services.CatalogAdmin, licenseService services.LicenseService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:        catalog,
		licenseService: licenseService,
		logger:         logger,
	}
}

// RefreshCatalog drops the cached catalog and fetches a new one
// POST /admin/catalog/refresh
func (h *AdminHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	h.catalog.Invalidate()
	if _, err := h.catalog.Catalog(r.Context()); err != nil {
		h.logger.Error("catalog refresh failed", "error", err, "admin", httputil.GetAdminSubject(r))
		httputil.RespondError(w, http.StatusBadGateway, "service unavailable")
		return
	}

	h.logger.Info("catalog refreshed", "admin", httputil.GetAdminSubject(r))
	httputil.RespondJSON(w, http.StatusOK, h.catalog.Stats())
}

// ProvisionIdentity issues (or returns) a license for an email by hand
// POST /admin/identities
func (h *AdminHandler) ProvisionIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	license, err := h.licenseService.Provision(r.Context(), req.Email, "")
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	h.logger.Info("license provisioned by admin", "email", license.Email, "admin", httputil.GetAdminSubject(r))
	httputil.RespondJSON(w, http.StatusCreated, map[string]string{
		"identity": license.Key,
		"email":    license.Email,
	})
}
