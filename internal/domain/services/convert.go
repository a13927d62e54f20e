package services

import (
	"context"

	"cardquery/internal/domain/models"
)

// ConvertRequest is a natural-language search to translate.
type ConvertRequest struct {
	Query    string `json:"query"`
	Identity string `json:"identity"`
}

// ConvertResult carries the generated syntax plus the quota state after admission.
type ConvertResult struct {
	Syntax string
	Quota  models.QuotaDecision
	// Codes are the set codes offered to the model (explicit or resolved).
	Codes []string
}

// ConvertService turns natural-language queries into search syntax.
type ConvertService interface {
	Convert(ctx context.Context, req *ConvertRequest) (*ConvertResult, error)
}

// QuotaLimiter admits requests per identity within fixed windows.
type QuotaLimiter interface {
	// Admit consumes one slot for identity, or reports rejection.
	Admit(identity string) (models.QuotaDecision, error)

	// Peek reports the identity's quota without consuming a slot.
	Peek(identity string) models.QuotaDecision
}
