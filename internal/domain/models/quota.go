package models

import "time"

// QuotaDecision is the outcome of a rate-limit admission check.
type QuotaDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
