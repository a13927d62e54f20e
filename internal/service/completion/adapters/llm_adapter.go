package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// DefaultMaxTokens caps the reply when Config.MaxTokens is unset.
const DefaultMaxTokens = 512

const (
	roleUser      = "user"
	blockTypeText = "text"
)

// generator is the part of llmprovider.Provider the adapter calls.
type generator interface {
	GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error)
}

// Config holds the per-request settings the adapter applies.
type Config struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LLMAdapter wraps a library provider and implements services.Completer.
// Each Complete is a single GenerateResponse call; failures are returned,
// never retried.
type LLMAdapter struct {
	name      string
	provider  generator
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewLLMAdapter creates an adapter over provider, rejecting models the
// provider does not serve.
func NewLLMAdapter(provider llmprovider.Provider, cfg Config) (*LLMAdapter, error) {
	if !provider.SupportsModel(cfg.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by %s provider", cfg.Model, provider.Name().String())
	}
	return newLLMAdapter(provider.Name().String(), provider, cfg), nil
}

func newLLMAdapter(name string, provider generator, cfg Config) *LLMAdapter {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &LLMAdapter{
		name:      name,
		provider:  provider,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
	}
}

// Name returns the library provider's name.
func (a *LLMAdapter) Name() string {
	return a.name
}

// Complete sends instructions as the system prompt and userText as the only
// user message, returning the concatenated text blocks of the reply.
func (a *LLMAdapter) Complete(ctx context.Context, instructions, userText string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.provider.GenerateResponse(ctx, a.buildRequest(instructions, userText))
	if err != nil {
		return "", fmt.Errorf("%s generate failed: %w", a.name, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%s response had no text content (stop reason %q)", a.name, resp.StopReason)
	}
	return text, nil
}

func (a *LLMAdapter) buildRequest(instructions, userText string) *llmprovider.GenerateRequest {
	maxTokens := a.maxTokens
	return &llmprovider.GenerateRequest{
		Model: a.model,
		Messages: []llmprovider.Message{
			{
				Role: roleUser,
				Blocks: []*llmprovider.Block{
					{BlockType: blockTypeText, Sequence: 0, TextContent: &userText},
				},
			},
		},
		Params: &llmprovider.RequestParams{
			MaxTokens: &maxTokens,
			System:    &instructions,
		},
	}
}

func responseText(resp *llmprovider.GenerateResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		sb.WriteString(*block.TextContent)
	}
	return sb.String()
}
