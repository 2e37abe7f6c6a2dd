// Package completion abstracts the text-generation collaborator. Callers
// get raw text back and must parse it defensively; there is no structured
// output guarantee.
package completion

import (
	"context"
	"errors"
	"strings"
)

// ErrCompletionUnavailable means the text-generation collaborator failed
// or returned nothing usable.
var ErrCompletionUnavailable = errors.New("completion unavailable")

// Completer sends one prompt and returns the raw response text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// CleanResponse strips markdown fences and surrounding whitespace that
// models produce despite instructions not to.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
