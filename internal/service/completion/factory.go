package completion

import (
	"fmt"
	"log/slog"
	"time"

	llmanthropic "github.com/haowjy/meridian-llm-go/providers/anthropic"

	"cardquery/internal/config"
	"cardquery/internal/domain/services"
	"cardquery/internal/service/completion/adapters"
	"cardquery/internal/service/completion/providers/anthropic"
	"cardquery/internal/service/completion/providers/lorem"
)

// NewCompleter returns the completer selected by cfg.CompletionProvider,
// wrapped in the outbound throttle when cfg.CompletionRPS is positive.
//
// Supported providers:
//   - "anthropic" - Claude models via the meridian-llm-go provider
//   - "anthropic-sdk" - Claude models via the Anthropic SDK, one HTTP attempt per call
//   - "lorem" - mock provider for development (no API key required)
func NewCompleter(cfg *config.Config, logger *slog.Logger) (services.Completer, error) {
	var (
		completer services.Completer
		err       error
	)

	switch cfg.CompletionProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		provider, perr := llmanthropic.NewProvider(cfg.AnthropicAPIKey)
		if perr != nil {
			return nil, fmt.Errorf("failed to create Anthropic provider: %w", perr)
		}
		completer, err = adapters.NewLLMAdapter(provider, adapters.Config{
			Model:     cfg.CompletionModel,
			MaxTokens: cfg.CompletionMaxTokens,
			Timeout:   cfg.CompletionTimeout,
		})
		if err != nil {
			return nil, err
		}
	case "anthropic-sdk":
		completer, err = anthropic.NewProvider(anthropic.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.CompletionModel,
			MaxTokens: cfg.CompletionMaxTokens,
			Timeout:   cfg.CompletionTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
		}
	case "lorem":
		completer = lorem.NewProvider(250 * time.Millisecond)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.CompletionProvider)
	}

	logger.Info("completion provider available",
		"name", completer.Name(),
		"model", cfg.CompletionModel,
		"rps", cfg.CompletionRPS,
	)

	if cfg.CompletionRPS > 0 {
		completer = NewThrottled(completer, cfg.CompletionRPS, cfg.CompletionBurst)
	}
	return completer, nil
}
