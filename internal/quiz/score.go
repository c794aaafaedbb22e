package quiz

import "github.com/hpungsan/focusflow/internal/note"

// answerFor returns the recorded answer for q, or note.Unanswered.
func answerFor(answers map[string]int, q note.Question) int {
	if a, ok := answers[q.ID]; ok {
		return a
	}
	return note.Unanswered
}

// Score counts questions whose recorded answer equals the correct index.
// Unanswered questions never count.
func Score(questions []note.Question, answers map[string]int) int {
	score := 0
	for _, q := range questions {
		a := answerFor(answers, q)
		if a != note.Unanswered && a == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Grade freezes each question together with the user's answer.
func Grade(questions []note.Question, answers map[string]int) []note.GradedQuestion {
	out := make([]note.GradedQuestion, len(questions))
	for i, q := range questions {
		a := answerFor(answers, q)
		out[i] = note.GradedQuestion{
			Question:   q,
			UserAnswer: a,
			IsCorrect:  a != note.Unanswered && a == q.CorrectAnswer,
		}
	}
	return out
}
