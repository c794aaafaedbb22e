package quiz

import (
	"fmt"
	"testing"

	"github.com/hpungsan/focusflow/internal/note"
)

func fixedQuestions(correct ...int) []note.Question {
	qs := make([]note.Question, len(correct))
	for i, c := range correct {
		qs[i] = note.Question{
			ID:            fmt.Sprintf("q%d", i),
			Question:      fmt.Sprintf("Q%d?", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: c,
		}
	}
	return qs
}

func answerMap(answers ...int) map[string]int {
	m := make(map[string]int)
	for i, a := range answers {
		if a != note.Unanswered {
			m[fmt.Sprintf("q%d", i)] = a
		}
	}
	return m
}

func TestScore_IndexEqualMatches(t *testing.T) {
	qs := fixedQuestions(0, 1, 1, 3, 2)
	if got := Score(qs, answerMap(0, 1, 2, 3, 0)); got != 3 {
		t.Errorf("Score() = %d, want 3", got)
	}
}

func TestScore_UnansweredNeverCounts(t *testing.T) {
	qs := fixedQuestions(0, 0, 0, 0, 0)
	answers := answerMap(0, note.Unanswered, note.Unanswered, 0, note.Unanswered)
	if got := Score(qs, answers); got != 2 {
		t.Errorf("Score() = %d, want 2", got)
	}

	// An explicit -1 is treated the same as a missing answer.
	answers["q1"] = note.Unanswered
	if got := Score(qs, answers); got != 2 {
		t.Errorf("Score() with explicit -1 = %d, want 2", got)
	}
}

func TestGrade(t *testing.T) {
	qs := fixedQuestions(0, 1, 1, 3, 2)
	graded := Grade(qs, answerMap(0, 1, 2, 3, note.Unanswered))

	if len(graded) != 5 {
		t.Fatalf("len = %d, want 5", len(graded))
	}
	wantCorrect := []bool{true, true, false, true, false}
	for i, g := range graded {
		if g.IsCorrect != wantCorrect[i] {
			t.Errorf("graded[%d].IsCorrect = %v, want %v", i, g.IsCorrect, wantCorrect[i])
		}
		if g.ID != qs[i].ID || g.CorrectAnswer != qs[i].CorrectAnswer {
			t.Errorf("graded[%d] lost its question: %+v", i, g)
		}
	}
	if graded[4].UserAnswer != note.Unanswered {
		t.Errorf("graded[4].UserAnswer = %d, want -1", graded[4].UserAnswer)
	}
}
