// Package ai talks to an on-device language model through an
// OpenAI-compatible HTTP server and wraps every call with a deterministic
// fallback so callers never see a raw failure.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a Model that has no reachable backend.
var ErrUnavailable = errors.New("ai: model unavailable")

// Request is a single prompt to the model.
type Request struct {
	System      string
	Prompt      string
	Temperature float64

	// ImageURL, when set, is sent as an image content part (data: URL or https).
	ImageURL string
}

// Model is the raw capability. Implementations may fail on any call.
type Model interface {
	Available(ctx context.Context) bool
	Complete(ctx context.Context, req Request) (string, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Offline is a Model with no backend; every call reports ErrUnavailable.
type Offline struct{}

func (Offline) Available(context.Context) bool { return false }

func (Offline) Complete(context.Context, Request) (string, error) { return "", ErrUnavailable }

func (Offline) Transcribe(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}
