package license

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"cardquery/internal/config"
	"cardquery/internal/domain"
	"cardquery/internal/domain/models"
	"cardquery/internal/domain/repositories"
	"cardquery/internal/domain/services"
)

// DefaultTolerance is the allowed clock skew for signed webhook timestamps.
const DefaultTolerance = 5 * time.Minute

// licenseService implements the LicenseService interface
type licenseService struct {
	store         repositories.IdentityStore
	mailer        services.Mailer
	secret        string
	allowUnsigned bool
	tolerance     time.Duration
	now           func() time.Time
	newKey        func() string
	logger        *slog.Logger
}

// Option configures the license service.
type Option func(*licenseService)

// WithWebhookSecret sets the shared secret used to verify webhook signatures.
func WithWebhookSecret(secret string) Option {
	return func(s *licenseService) { s.secret = secret }
}

// WithUnsignedWebhooks accepts events that fail verification. Never enable in
// production.
func WithUnsignedWebhooks(allow bool) Option {
	return func(s *licenseService) { s.allowUnsigned = allow }
}

// WithTolerance sets the allowed webhook timestamp skew.
func WithTolerance(d time.Duration) Option {
	return func(s *licenseService) { s.tolerance = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *licenseService) { s.now = now }
}

// WithKeyGenerator replaces the uuid key generator, for tests.
func WithKeyGenerator(gen func() string) Option {
	return func(s *licenseService) { s.newKey = gen }
}

// NewService creates a new license service
func NewService(
	store repositories.IdentityStore,
	mailer services.Mailer,
	logger *slog.Logger,
	opts ...Option,
) services.LicenseService {
	s := &licenseService{
		store:     store,
		mailer:    mailer,
		tolerance: DefaultTolerance,
		now:       time.Now,
		newKey:    uuid.NewString,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate reports whether identity is a licensed key. An empty identity is
// simply not valid.
func (s *licenseService) Validate(ctx context.Context, identity string) (bool, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || len(identity) > config.MaxIdentityLength {
		return false, nil
	}
	ok, err := s.store.IsValid(ctx, identity)
	if err != nil {
		return false, fmt.Errorf("validate identity: %w", err)
	}
	return ok, nil
}

// BySession returns the key a checkout session provisioned
func (s *licenseService) BySession(ctx context.Context, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", &domain.ValidationError{Message: "sessionId required"}
	}

	key, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		return "", &domain.UpstreamError{Op: "find session", Err: err}
	}
	if key == "" {
		return "", &domain.NotFoundError{Message: "no identity for session"}
	}
	return key, nil
}

// Provision returns the existing license for email or creates a new one and
// mails it. Mail failures are logged and do not fail provisioning.
func (s *licenseService) Provision(ctx context.Context, email, sessionID string) (*models.License, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email,
		validation.Required.Error("email required"),
		validation.Length(0, config.MaxEmailLength),
		is.EmailFormat,
	); err != nil {
		return nil, &domain.ValidationError{Message: "email: " + err.Error()}
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "find license", Err: err}
	}
	if existing != "" {
		return s.reuse(ctx, existing, email, sessionID)
	}

	license := &models.License{
		Email:     email,
		SessionID: sessionID,
		CreatedAt: s.now().UTC(),
	}

	// Add reports false when the email was taken concurrently or the key
	// collided; the first reuses the winner, the second retries.
	for attempt := 0; attempt < 3; attempt++ {
		license.Key = s.newKey()
		added, err := s.store.Add(ctx, license)
		if err != nil {
			return nil, &domain.UpstreamError{Op: "add license", Err: err}
		}
		if added {
			s.logger.Info("license provisioned", "email", email, "session_id", sessionID)
			s.notify(ctx, license)
			return license, nil
		}

		winner, err := s.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, &domain.UpstreamError{Op: "find license", Err: err}
		}
		if winner != "" {
			return s.reuse(ctx, winner, email, sessionID)
		}
	}
	return nil, fmt.Errorf("add license: key collision after retries")
}

// reuse links sessionID to an email's existing key.
func (s *licenseService) reuse(ctx context.Context, key, email, sessionID string) (*models.License, error) {
	if sessionID != "" {
		if err := s.store.LinkSession(ctx, sessionID, key); err != nil {
			return nil, &domain.UpstreamError{Op: "link session", Err: err}
		}
	}
	s.logger.Info("license reused", "email", email, "session_id", sessionID)
	return &models.License{Key: key, Email: email, SessionID: sessionID}, nil
}

func (s *licenseService) notify(ctx context.Context, license *models.License) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendLicense(ctx, license); err != nil {
		s.logger.Error("failed to send license email",
			"email", license.Email,
			"error", err,
		)
	}
}

// Health returns the active license count, or an error when the store is
// unreachable.
func (s *licenseService) Health(ctx context.Context) (int, error) {
	if err := s.store.Ping(ctx); err != nil {
		return 0, fmt.Errorf("identity store: %w", err)
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("identity store: %w", err)
	}
	return n, nil
}
