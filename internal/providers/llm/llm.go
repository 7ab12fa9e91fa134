package llm

import "context"

// Provider generates one completion for a prompt.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Close() error
}
