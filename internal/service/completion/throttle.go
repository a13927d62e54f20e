package completion

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"cardquery/internal/domain/services"
)

// Throttled caps the aggregate rate of upstream completion calls across all
// identities. Callers wait for a token; a cancelled context aborts the wait.
type Throttled struct {
	next    services.Completer
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of rps and burst.
func NewThrottled(next services.Completer, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider's name.
func (t *Throttled) Name() string {
	return t.next.Name()
}

// Complete waits for a token, then delegates.
func (t *Throttled) Complete(ctx context.Context, instructions, userText string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("completion throttle: %w", err)
	}
	return t.next.Complete(ctx, instructions, userText)
}
