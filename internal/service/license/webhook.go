package license

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"cardquery/internal/domain"
)

// EventCheckoutCompleted is the only event type that provisions a license.
const EventCheckoutCompleted = stripe.EventTypeCheckoutSessionCompleted

// HandleWebhook verifies payload against signatureHeader and provisions a
// license for completed checkouts. Other event types are acknowledged and
// ignored.
func (s *licenseService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := s.verify(payload, signatureHeader); err != nil {
		if !s.allowUnsigned {
			s.logger.Warn("webhook rejected", "error", err)
			return err
		}
		s.logger.Warn("webhook signature not verified, accepting unsigned event", "error", err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return &domain.ValidationError{Message: "invalid webhook payload"}
	}

	if event.Type != EventCheckoutCompleted {
		s.logger.Debug("webhook event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return &domain.ValidationError{Message: "checkout event has no session"}
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return &domain.ValidationError{Message: "invalid checkout session"}
	}

	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		return &domain.ValidationError{Message: "checkout session has no customer email"}
	}

	if _, err := s.Provision(ctx, email, session.ID); err != nil {
		return err
	}
	return nil
}

// verify checks the Stripe-Signature header against the shared secret,
// rejecting timestamps older than the configured tolerance.
func (s *licenseService) verify(payload []byte, header string) error {
	if s.secret == "" {
		return &domain.SignatureInvalidError{Reason: "webhook secret not configured"}
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, header, s.secret, s.tolerance); err != nil {
		return &domain.SignatureInvalidError{Reason: err.Error()}
	}
	return nil
}
