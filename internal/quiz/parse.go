package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/note"
)

// QuestionsPerQuiz is the number of questions every quiz must have.
const QuestionsPerQuiz = 5

// ParseError describes why a model answer could not be used as a quiz.
// Index is the offending question, or -1 when the whole answer is unusable.
type ParseError struct {
	Index  int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return "quiz: " + e.Reason
	}
	return fmt.Sprintf("quiz: question %d: %s", e.Index+1, e.Reason)
}

func (e *ParseError) Unwrap() error { return ai.ErrMalformedOutput }

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
}

// ParseQuestions pulls the first JSON array of question objects out of a
// model answer (fenced or bare) and validates it as a quiz. Other arrays in
// the surrounding prose are skipped. Each question gets a fresh id.
func ParseQuestions(text string) ([]note.Question, error) {
	var raw []rawQuestion
	_, err := ai.ExtractJSONFunc(text, '[', func(b []byte) bool {
		var qs []rawQuestion
		if json.Unmarshal(b, &qs) != nil || len(qs) == 0 {
			return false
		}
		raw = qs
		return true
	})
	if err != nil {
		return nil, &ParseError{Index: -1, Reason: "no JSON array of questions in answer"}
	}
	if len(raw) != QuestionsPerQuiz {
		return nil, &ParseError{Index: -1, Reason: fmt.Sprintf("got %d questions, want %d", len(raw), QuestionsPerQuiz)}
	}

	out := make([]note.Question, 0, len(raw))
	for i, r := range raw {
		q := strings.TrimSpace(r.Question)
		if q == "" {
			return nil, &ParseError{Index: i, Reason: "empty question"}
		}
		if len(r.Options) != note.OptionsPerQuestion {
			return nil, &ParseError{Index: i, Reason: fmt.Sprintf("got %d options, want %d", len(r.Options), note.OptionsPerQuestion)}
		}
		opts := make([]string, len(r.Options))
		for j, o := range r.Options {
			opts[j] = strings.TrimSpace(o)
			if opts[j] == "" {
				return nil, &ParseError{Index: i, Reason: fmt.Sprintf("option %d is empty", j)}
			}
		}
		if r.CorrectAnswer == nil {
			return nil, &ParseError{Index: i, Reason: "missing correctAnswer"}
		}
		if *r.CorrectAnswer < 0 || *r.CorrectAnswer >= note.OptionsPerQuestion {
			return nil, &ParseError{Index: i, Reason: fmt.Sprintf("correctAnswer %d out of range", *r.CorrectAnswer)}
		}
		out = append(out, note.Question{
			ID:            uuid.NewString(),
			Question:      q,
			Options:       opts,
			CorrectAnswer: *r.CorrectAnswer,
		})
	}
	return out, nil
}

const systemQuiz = "You write multiple-choice study quizzes. Reply with a JSON array only."

func quizPrompt(actions string) string {
	return fmt.Sprintf(`Create exactly %d multiple-choice questions that test understanding of these study actions. `+
		`Respond with a JSON array where each item is {"question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": <index 0-3>}. `+
		`Each question must have exactly %d options. Actions: %s`, QuestionsPerQuiz, note.OptionsPerQuestion, actions)
}
