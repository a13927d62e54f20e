package handler

import (
	"log/slog"
	"net/http"

	"cardquery/internal/config"
	"cardquery/internal/domain/services"
	"cardquery/internal/httputil"
)

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment-provider callbacks
type WebhookHandler struct {
	licenseService services.LicenseService
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(licenseService services.LicenseService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		licenseService: licenseService,
		logger:         logger,
	}
}

// PaymentCompleted verifies the raw body and provisions a license
// POST /webhook/payment-completed
func (h *WebhookHandler) PaymentCompleted(w http.ResponseWriter, r *http.Request) {
	payload, err := httputil.ReadRawBody(w, r, config.MaxWebhookBodyBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.licenseService.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
