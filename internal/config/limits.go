package config

const (
	// MaxQueryLength is the maximum length of a natural-language query.
	// Queries are single search requests; anything longer is not a search.
	MaxQueryLength = 500

	// MaxIdentityLength is the maximum length of a license key.
	// Generated keys are 36 characters; the headroom covers legacy keys.
	MaxIdentityLength = 128

	// MaxEmailLength bounds provisioning requests, matching VARCHAR(320).
	MaxEmailLength = 320

	// MaxWebhookBodyBytes bounds the raw payment webhook payload.
	MaxWebhookBodyBytes = 64 << 10
)
