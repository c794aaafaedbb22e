package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/quiz"
)

// ProgressOutput contains the result of the QuizProgress operation.
type ProgressOutput struct {
	NoteID        string     `json:"note_id"`
	Stats         quiz.Stats `json:"stats"`
	SuggestRetake bool       `json:"suggest_retake"`
}

// QuizProgress reports score statistics over a note's stored quiz results.
func QuizProgress(ctx context.Context, database *sql.DB, noteID string) (*ProgressOutput, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	n, err := db.GetNote(ctx, database, noteID)
	if err != nil {
		return nil, err
	}
	st := quiz.Progress(n)
	return &ProgressOutput{
		NoteID:        n.ID,
		Stats:         st,
		SuggestRetake: st.Attempts > 0 && st.LatestBand.SuggestRetake(),
	}, nil
}

// QuizReview returns one stored quiz result with its graded questions.
func QuizReview(ctx context.Context, database *sql.DB, noteID, resultID string) (*quiz.ReviewView, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	n, err := db.GetNote(ctx, database, noteID)
	if err != nil {
		return nil, err
	}
	return quiz.Review(n, resultID)
}
