package ai

import "context"

// Generator turns a full prompt into generated text with a single call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
