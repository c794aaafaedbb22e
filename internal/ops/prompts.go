package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/errors"
)

// PromptKinds lists the daily prompt kinds in display order.
var PromptKinds = []string{"focus", "motivation", "reflection"}

var promptContexts = map[string]string{
	"focus":      "Generate a thought-provoking question to help someone focus on their most important task today",
	"motivation": "Create an inspiring and motivational message to energize someone for their day",
	"reflection": "Suggest a reflective question to help someone learn from their recent experiences",
}

// PromptOutput contains the result of the DailyPrompt operation.
type PromptOutput struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

// DailyPrompt generates a focus question, motivational message or reflection
// prompt. kind defaults to focus.
func DailyPrompt(ctx context.Context, assistant *ai.Assistant, kind string) (*PromptOutput, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "focus"
	}
	instruction, ok := promptContexts[kind]
	if !ok {
		return nil, errors.NewInvalidRequest("kind must be one of: " + strings.Join(PromptKinds, ", "))
	}
	return &PromptOutput{Kind: kind, Prompt: assistant.Generate(ctx, instruction)}, nil
}
