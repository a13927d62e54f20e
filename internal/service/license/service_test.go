package license

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"cardquery/internal/domain"
	"cardquery/internal/domain/models"
	"cardquery/internal/repository/memory"
)

type recordingMailer struct {
	sent []models.License
	err  error
}

func (m *recordingMailer) SendLicense(ctx context.Context, license *models.License) error {
	m.sent = append(m.sent, *license)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
}

func TestValidate(t *testing.T) {
	svc := NewService(memory.NewIdentityStore("good"), nil, discardLogger())
	ctx := context.Background()

	tests := []struct {
		identity string
		want     bool
	}{
		{"good", true},
		{"  good  ", true},
		{"bad", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := svc.Validate(ctx, tt.identity)
		if err != nil {
			t.Fatalf("Validate(%q): %v", tt.identity, err)
		}
		if got != tt.want {
			t.Errorf("Validate(%q) = %v, want %v", tt.identity, got, tt.want)
		}
	}
}

func TestProvision_IdempotentPerEmail(t *testing.T) {
	mailer := &recordingMailer{}
	store := memory.NewIdentityStore()
	svc := NewService(store, mailer, discardLogger(), WithKeyGenerator(sequentialKeys()))
	ctx := context.Background()

	first, err := svc.Provision(ctx, " Buyer@Example.com ", "cs_1")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if first.Key != "key-1" || first.Email != "buyer@example.com" {
		t.Errorf("first license = %+v", first)
	}

	second, err := svc.Provision(ctx, "buyer@example.com", "cs_2")
	if err != nil {
		t.Fatalf("Provision again: %v", err)
	}
	if second.Key != first.Key {
		t.Errorf("second provision created a new key %q", second.Key)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("sent %d emails, want 1", len(mailer.sent))
	}

	for _, session := range []string{"cs_1", "cs_2"} {
		key, err := svc.BySession(ctx, session)
		if err != nil || key != first.Key {
			t.Errorf("BySession(%s) = %q, %v", session, key, err)
		}
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("store holds %d licenses, want 1", n)
	}
}

func TestProvision_MailFailureIsNotFatal(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := NewService(memory.NewIdentityStore(), mailer, discardLogger())

	lic, err := svc.Provision(context.Background(), "a@example.com", "")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if ok, _ := svc.Validate(context.Background(), lic.Key); !ok {
		t.Error("provisioned key should validate")
	}
}

func TestProvision_RejectsBadEmail(t *testing.T) {
	svc := NewService(memory.NewIdentityStore(), nil, discardLogger())

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Provision(context.Background(), email, "")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Provision(%q): expected validation error, got %v", email, err)
		}
	}
}

func TestProvision_RetriesKeyCollision(t *testing.T) {
	store := memory.NewIdentityStore("key-1")
	svc := NewService(store, nil, discardLogger(), WithKeyGenerator(sequentialKeys()))

	lic, err := svc.Provision(context.Background(), "a@example.com", "")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if lic.Key != "key-2" {
		t.Errorf("key = %q, want key-2", lic.Key)
	}
}

func TestBySession(t *testing.T) {
	svc := NewService(memory.NewIdentityStore(), nil, discardLogger())

	if _, err := svc.BySession(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty session: got %v", err)
	}
	if _, err := svc.BySession(context.Background(), "cs_unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown session: got %v", err)
	}
}

type failingStore struct {
	*memory.IdentityStore
}

func (failingStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	svc := NewService(memory.NewIdentityStore("a", "b"), nil, discardLogger())
	n, err := svc.Health(context.Background())
	if err != nil || n != 2 {
		t.Errorf("Health = %d, %v", n, err)
	}

	broken := NewService(failingStore{memory.NewIdentityStore().(*memory.IdentityStore)}, nil, discardLogger())
	if _, err := broken.Health(context.Background()); err == nil {
		t.Error("expected error from unreachable store")
	}
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(discardLogger())
	if err := m.SendLicense(context.Background(), &models.License{Email: "a@example.com", Key: "k"}); err != nil {
		t.Fatalf("SendLicense: %v", err)
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestProvision_StampsCreatedAt(t *testing.T) {
	svc := NewService(memory.NewIdentityStore(), nil, discardLogger(),
		WithClock(func() time.Time { return fixedNow }))

	lic, err := svc.Provision(context.Background(), "a@example.com", "")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if !lic.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", lic.CreatedAt, fixedNow)
	}
}

// staleEmailStore hides existing emails from the first lookup, the way a
// concurrent delivery of the same checkout sees the store before the other
// insert commits.
type staleEmailStore struct {
	*memory.IdentityStore
	lookups int
}

func (s *staleEmailStore) FindByEmail(ctx context.Context, email string) (string, error) {
	s.lookups++
	if s.lookups == 1 {
		return "", nil
	}
	return s.IdentityStore.FindByEmail(ctx, email)
}

func TestProvision_ConcurrentDeliveryReusesWinner(t *testing.T) {
	ctx := context.Background()
	base := memory.NewIdentityStore().(*memory.IdentityStore)
	if _, err := base.Add(ctx, &models.License{Key: "winner", Email: "buyer@example.com", SessionID: "cs_1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mailer := &recordingMailer{}
	svc := NewService(&staleEmailStore{IdentityStore: base}, mailer, discardLogger(), WithKeyGenerator(sequentialKeys()))

	lic, err := svc.Provision(ctx, "buyer@example.com", "cs_2")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if lic.Key != "winner" {
		t.Errorf("key = %q, want the existing key", lic.Key)
	}
	if n, _ := base.Count(ctx); n != 1 {
		t.Errorf("store holds %d licenses, want 1", n)
	}
	if key, _ := base.FindBySession(ctx, "cs_2"); key != "winner" {
		t.Errorf("second session linked to %q", key)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("losing delivery sent %d emails", len(mailer.sent))
	}
}

type brokenSessionStore struct {
	*memory.IdentityStore
}

func (brokenSessionStore) FindBySession(ctx context.Context, sessionID string) (string, error) {
	return "", errors.New("connection reset")
}

func TestBySession_StoreFailureIsUpstream(t *testing.T) {
	svc := NewService(brokenSessionStore{memory.NewIdentityStore().(*memory.IdentityStore)}, nil, discardLogger())

	_, err := svc.BySession(context.Background(), "cs_1")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
