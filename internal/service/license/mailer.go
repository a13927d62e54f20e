package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cardquery/internal/domain/models"
)

const (
	// DefaultResendBaseURL is the Resend email API endpoint
	DefaultResendBaseURL = "https://api.resend.com/emails"
	// DefaultResendTimeout is the HTTP timeout for Resend requests
	DefaultResendTimeout = 10 * time.Second
)

// LogMailer logs license deliveries instead of sending mail. Used when no
// email provider is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendLicense(ctx context.Context, license *models.License) error {
	m.logger.Info("license email (not sent)", "email", license.Email)
	return nil
}

// ResendMailer delivers license keys through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

// NewResendMailer creates a Resend mailer with default endpoint and timeout.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return NewResendMailerWithConfig(apiKey, from, DefaultResendBaseURL, DefaultResendTimeout)
}

// NewResendMailerWithConfig creates a Resend mailer with custom configuration.
func NewResendMailerWithConfig(apiKey, from, baseURL string, timeout time.Duration) *ResendMailer {
	return &ResendMailer{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *ResendMailer) SendLicense(ctx context.Context, license *models.License) error {
	body, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{license.Email},
		Subject: "Your license key",
		Text: fmt.Sprintf("Thanks for your purchase!\n\nYour license key: %s\n\n"+
			"Paste it into the extension settings to start converting searches.\n", license.Key),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}
