package services

import "context"

// Completer is the language-model collaborator: given fixed instructions and
// the user's text it returns free text. Implementations own their timeouts.
type Completer interface {
	Complete(ctx context.Context, instructions, userText string) (string, error)

	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string
}
