// Package aitest provides a scripted ai.Model for tests.
package aitest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hpungsan/focusflow/internal/ai"
)

// ErrScripted is returned for prompts the stub was told to fail.
var ErrScripted = errors.New("aitest: scripted failure")

// Stub answers prompts from a rule list. The first rule whose Contains
// substring appears in the prompt wins; unmatched prompts get Default.
type Stub struct {
	Offline bool
	Rules   []Rule
	Default string

	// Transcript is returned by Transcribe; empty means failure.
	Transcript string

	// Block, when non-nil, is waited on (or ctx cancellation) before answering.
	Block chan struct{}

	calls atomic.Int64

	mu      sync.Mutex
	prompts []string
}

// Rule maps a prompt substring to a reply or a failure.
type Rule struct {
	Contains string
	Reply    string
	Fail     bool
}

func (s *Stub) Available(context.Context) bool { return !s.Offline }

func (s *Stub) Complete(ctx context.Context, req ai.Request) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()

	if s.Offline {
		return "", ai.ErrUnavailable
	}
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for _, r := range s.Rules {
		if strings.Contains(req.Prompt, r.Contains) {
			if r.Fail {
				return "", ErrScripted
			}
			return r.Reply, nil
		}
	}
	if s.Default == "" {
		return "", ErrScripted
	}
	return s.Default, nil
}

func (s *Stub) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	s.calls.Add(1)
	if s.Offline {
		return "", ai.ErrUnavailable
	}
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Transcript == "" {
		return "", ErrScripted
	}
	return s.Transcript, nil
}

// Calls reports how many model calls were made.
func (s *Stub) Calls() int { return int(s.calls.Load()) }

// Prompts returns a copy of every prompt received, in order.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
