package license

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"cardquery/internal/domain"
	"cardquery/internal/domain/services"
	"cardquery/internal/repository/memory"
)

const testSecret = "whsec_test"

func checkoutPayload(sessionID, email string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": %q, "customer_details": {"email": %q}}}
	}`, sessionID, email))
}

func signedHeader(payload []byte, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: at,
	}).Header
}

func signature(payload []byte, at time.Time) string {
	return fmt.Sprintf("%x", webhook.ComputeSignature(at, payload, testSecret))
}

func newWebhookService(opts ...Option) (services.LicenseService, *recordingMailer) {
	mailer := &recordingMailer{}
	opts = append([]Option{
		WithWebhookSecret(testSecret),
	}, opts...)
	return NewService(memory.NewIdentityStore(), mailer, discardLogger(), opts...), mailer
}

func TestHandleWebhook_ProvisionsOnVerifiedCheckout(t *testing.T) {
	svc, mailer := newWebhookService()
	payload := checkoutPayload("cs_42", "payer@example.com")

	if err := svc.HandleWebhook(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	key, err := svc.BySession(context.Background(), "cs_42")
	if err != nil || key == "" {
		t.Fatalf("BySession = %q, %v", key, err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Email != "payer@example.com" {
		t.Errorf("mail not sent to payer: %+v", mailer.sent)
	}
}

func TestHandleWebhook_SignatureFailures(t *testing.T) {
	payload := checkoutPayload("cs_1", "payer@example.com")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "garbage"},
		{"bad timestamp", "t=abc,v1=00"},
		{"wrong signature", "t=" + strconv.FormatInt(time.Now().Unix(), 10) + ",v1=deadbeef"},
		{"too old", signedHeader(payload, time.Now().Add(-6*time.Minute))},
		{"other secret", "t=" + strconv.FormatInt(time.Now().Unix(), 10) + ",v1=" + fmt.Sprintf("%x", webhook.ComputeSignature(time.Now(), payload, "whsec_other"))},
		{"tampered body", signedHeader(checkoutPayload("cs_1", "thief@example.com"), time.Now())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mailer := newWebhookService()
			err := svc.HandleWebhook(context.Background(), payload, tt.header)
			if !errors.Is(err, domain.ErrSignatureInvalid) {
				t.Fatalf("expected ErrSignatureInvalid, got %v", err)
			}
			if len(mailer.sent) != 0 {
				t.Error("rejected event provisioned a license")
			}
		})
	}
}

func TestHandleWebhook_WithinTolerance(t *testing.T) {
	svc, _ := newWebhookService()
	payload := checkoutPayload("cs_1", "payer@example.com")

	if err := svc.HandleWebhook(context.Background(), payload, signedHeader(payload, time.Now().Add(-4*time.Minute))); err != nil {
		t.Fatalf("expected acceptance within tolerance, got %v", err)
	}
}

func TestHandleWebhook_AcceptsAnyMatchingV1(t *testing.T) {
	svc, _ := newWebhookService()
	payload := checkoutPayload("cs_1", "payer@example.com")
	now := time.Now()
	header := "t=" + strconv.FormatInt(now.Unix(), 10) + ",v1=0000,v1=" + signature(payload, now)

	if err := svc.HandleWebhook(context.Background(), payload, header); err != nil {
		t.Fatalf("expected second v1 to verify, got %v", err)
	}
}

func TestHandleWebhook_UnsignedFallback(t *testing.T) {
	payload := checkoutPayload("cs_9", "payer@example.com")

	svc, _ := newWebhookService(WithUnsignedWebhooks(true))
	if err := svc.HandleWebhook(context.Background(), payload, ""); err != nil {
		t.Fatalf("unsigned fallback should accept, got %v", err)
	}
	if _, err := svc.BySession(context.Background(), "cs_9"); err != nil {
		t.Errorf("unsigned event not processed: %v", err)
	}

	noSecret := NewService(memory.NewIdentityStore(), nil, discardLogger())
	if err := noSecret.HandleWebhook(context.Background(), payload, ""); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Errorf("missing secret without fallback must reject, got %v", err)
	}
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	svc, mailer := newWebhookService()
	payload := []byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)

	if err := svc.HandleWebhook(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("non-checkout event provisioned a license")
	}
}

func TestHandleWebhook_BadPayload(t *testing.T) {
	svc, _ := newWebhookService()

	for _, payload := range [][]byte{
		[]byte(`{not json`),
		[]byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`),
	} {
		err := svc.HandleWebhook(context.Background(), payload, signedHeader(payload, time.Now()))
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("payload %s: expected validation error, got %v", payload, err)
		}
	}
}

func TestHandleWebhook_FallsBackToCustomerEmail(t *testing.T) {
	svc, mailer := newWebhookService()
	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_5","customer_email":"legacy@example.com"}}}`)

	if err := svc.HandleWebhook(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Email != "legacy@example.com" {
		t.Errorf("sent = %+v", mailer.sent)
	}
}

func TestHandleWebhook_CustomTolerance(t *testing.T) {
	payload := checkoutPayload("cs_3", "payer@example.com")
	header := signedHeader(payload, time.Now().Add(-2*time.Minute))

	strict, _ := newWebhookService(WithTolerance(time.Minute))
	if err := strict.HandleWebhook(context.Background(), payload, header); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected rejection outside a one-minute tolerance, got %v", err)
	}

	lenient, _ := newWebhookService()
	if err := lenient.HandleWebhook(context.Background(), payload, header); err != nil {
		t.Fatalf("expected acceptance within the default tolerance, got %v", err)
	}
}
