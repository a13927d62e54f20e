package lorem

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"
)

var directiveCode = regexp.MustCompile(`e:([a-z0-9]{2,5})`)

// Provider is a mock completer that produces plausible-looking search syntax
// from lorem ipsum words. Used for development without API keys.
type Provider struct {
	mu        sync.Mutex
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewProvider creates a new lorem provider that answers after delay.
func NewProvider(delay time.Duration) *Provider {
	return &Provider{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// Complete returns a fake query. When the instructions carry a set
// directive, the first code it names is kept so the directive path can be
// exercised end to end.
func (p *Provider) Complete(ctx context.Context, instructions, userText string) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	p.mu.Lock()
	word := p.generator.Word(4, 8)
	phrase := p.generator.Sentence(2, 3)
	p.mu.Unlock()

	parts := []string{
		"t:" + strings.ToLower(word),
		fmt.Sprintf("o:%q", strings.TrimSuffix(strings.ToLower(phrase), ".")),
	}
	if m := directiveCode.FindStringSubmatch(directivePart(instructions)); m != nil {
		parts = append(parts, "e:"+m[1])
	}
	return "  " + strings.Join(parts, " ") + "\n", nil
}

// directivePart returns the text after the base instructions, where the set
// directive (if any) lives.
func directivePart(instructions string) string {
	if i := strings.LastIndex(instructions, "SET "); i >= 0 {
		return instructions[i:]
	}
	return ""
}
