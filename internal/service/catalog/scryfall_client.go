package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cardquery/internal/domain/services"
)

const (
	// DefaultScryfallBaseURL is the default Scryfall API endpoint
	DefaultScryfallBaseURL = "https://api.scryfall.com"
	// DefaultScryfallTimeout is the default HTTP timeout for catalog requests
	DefaultScryfallTimeout = 15 * time.Second

	userAgent = "cardquery/1.0"
)

// ScryfallClient implements services.CatalogSource against the Scryfall sets API.
type ScryfallClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewScryfallClient creates a catalog source with default settings.
func NewScryfallClient() *ScryfallClient {
	return NewScryfallClientWithConfig(DefaultScryfallBaseURL, DefaultScryfallTimeout)
}

// NewScryfallClientWithConfig creates a catalog source with custom configuration.
func NewScryfallClientWithConfig(baseURL string, timeout time.Duration) *ScryfallClient {
	return &ScryfallClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type scryfallSetList struct {
	Object string            `json:"object"`
	Data   []services.RawSet `json:"data"`
}

// FetchSets implements services.CatalogSource.
func (c *ScryfallClient) FetchSets(ctx context.Context) ([]services.RawSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sets", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var list scryfallSetList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return list.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
