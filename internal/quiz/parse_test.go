package quiz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hpungsan/focusflow/internal/ai"
)

func quizJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Q%d?", "options": ["a", "b", "c", "d"], "correctAnswer": %d}`, i+1, i%4)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestParseQuestions_Bare(t *testing.T) {
	qs, err := ParseQuestions(quizJSON(5))
	if err != nil {
		t.Fatalf("ParseQuestions() error = %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("len = %d, want 5", len(qs))
	}
	seen := map[string]bool{}
	for i, q := range qs {
		if q.Question != fmt.Sprintf("Q%d?", i+1) {
			t.Errorf("qs[%d].Question = %q", i, q.Question)
		}
		if q.CorrectAnswer != i%4 {
			t.Errorf("qs[%d].CorrectAnswer = %d", i, q.CorrectAnswer)
		}
		if q.ID == "" || seen[q.ID] {
			t.Errorf("qs[%d].ID = %q, want unique non-empty", i, q.ID)
		}
		seen[q.ID] = true
	}
}

func TestParseQuestions_FencedWithChatter(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"fenced", "Sure! Here is your quiz:\n```json\n" + quizJSON(5) + "\n```\nGood luck [really]."},
		{"bracketed count first", "Here are [5] questions:\n" + quizJSON(5)},
		{"string array first", `Topics ["a", "b"] covered:` + "\n" + quizJSON(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := ParseQuestions(tt.text)
			if err != nil {
				t.Fatalf("ParseQuestions() error = %v", err)
			}
			if len(qs) != 5 {
				t.Errorf("len = %d, want 5", len(qs))
			}
		})
	}
}

func TestParseQuestions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		index int
	}{
		{"no array", "I cannot write a quiz today.", -1},
		{"too few", quizJSON(4), -1},
		{"too many", quizJSON(6), -1},
		{"three options", strings.Replace(quizJSON(5), `["a", "b", "c", "d"]`, `["a", "b", "c"]`, 1), 0},
		{"blank option", strings.Replace(quizJSON(5), `"c", "d"], "correctAnswer": 1`, `"c", " "], "correctAnswer": 1`, 1), 1},
		{"answer out of range", strings.Replace(quizJSON(5), `"correctAnswer": 2`, `"correctAnswer": 4`, 1), 2},
		{"blank question", strings.Replace(quizJSON(5), `"Q4?"`, `""`, 1), 3},
		{"missing answer", strings.Replace(quizJSON(5), `, "correctAnswer": 0}`, `}`, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions(tt.text)
			if !errors.Is(err, ai.ErrMalformedOutput) {
				t.Fatalf("error = %v, want ErrMalformedOutput", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if pe.Index != tt.index {
				t.Errorf("Index = %d, want %d (%v)", pe.Index, tt.index, err)
			}
		})
	}
}

func TestQuizPromptMentionsShape(t *testing.T) {
	p := quizPrompt("- review chapter 2")
	for _, want := range []string{"exactly 5", "correctAnswer", "- review chapter 2"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
