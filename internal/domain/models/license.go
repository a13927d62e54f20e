package models

import "time"

// License is a provisioned identity: an opaque key tied to the payer's email.
type License struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id,omitempty"` // payment checkout session that produced it
	CreatedAt time.Time `json:"created_at"`
}
