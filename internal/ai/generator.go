// Package ai talks to the external text-generation service behind the chat
// assistant.
package ai

import "context"

// TextGenerator turns a prompt into generated text. An empty string with a
// nil error means the service answered but produced nothing usable.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
