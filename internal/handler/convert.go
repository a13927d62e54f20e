package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardquery/internal/domain"
	"cardquery/internal/domain/models"
	"cardquery/internal/domain/services"
	"cardquery/internal/httputil"
)

// Rate-limit observability headers, set on every /convert response.
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
)

// ConvertHandler handles conversion requests
type ConvertHandler struct {
	convertService services.ConvertService
	limiter        services.QuotaLimiter
	now            func() time.Time
	logger         *slog.Logger
}

// NewConvertHandler creates a new convert handler
func NewConvertHandler(convertService services.ConvertService, limiter services.QuotaLimiter, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		convertService: convertService,
		limiter:        limiter,
		now:            time.Now,
		logger:         logger,
	}
}

type convertResponse struct {
	Syntax string `json:"syntax"`
}

// Convert translates a natural-language query into search syntax
// POST /convert
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req services.ConvertRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		h.setQuotaHeaders(w, h.limiter.Peek(""))
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.convertService.Convert(r.Context(), &req)
	if err != nil {
		// Nothing was consumed: 401 reports a fresh window, the rest the
		// identity's current state.
		if statusOf(err) == http.StatusUnauthorized {
			h.setQuotaHeaders(w, h.limiter.Peek(""))
		} else {
			h.setQuotaHeaders(w, h.limiter.Peek(strings.TrimSpace(req.Identity)))
		}
		handleErrorAt(w, err, h.logger, h.now())
		return
	}

	h.setQuotaHeaders(w, result.Quota)
	httputil.RespondJSON(w, http.StatusOK, convertResponse{Syntax: result.Syntax})
}

func (h *ConvertHandler) setQuotaHeaders(w http.ResponseWriter, q models.QuotaDecision) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(q.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(q.Remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.Itoa(domain.SecondsUntil(h.now(), q.ResetAt)))
}
