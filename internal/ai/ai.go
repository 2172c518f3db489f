package ai

import (
	"context"
	"time"
)

type CompleteOptions struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ImageRef is either a resolvable URL or raw inline bytes, never both.
type ImageRef struct {
	URL         string
	Data        []byte
	ContentType string
}

type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

type VisionCompleter interface {
	CompleteWithImage(ctx context.Context, prompt string, image ImageRef, opts CompleteOptions) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client bundles the three generative capabilities behind one handle so the
// wiring in cmd/server can swap the whole set for the mock at once.
type Client interface {
	Completer
	VisionCompleter
	Embedder
}
