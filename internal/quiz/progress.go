package quiz

import (
	"strings"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// Band buckets a percentage score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandReview    Band = "review"
)

// BandFor returns the band for a percentage score.
func BandFor(percent int) Band {
	switch {
	case percent >= 80:
		return BandExcellent
	case percent >= 60:
		return BandGood
	default:
		return BandReview
	}
}

// SuggestRetake reports whether the score is low enough to recommend another attempt.
func (b Band) SuggestRetake() bool { return b == BandReview }

// Trend compares the latest attempt with the one before it.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendSteady    Trend = "steady"
)

// Stats summarizes a note's stored quiz history.
type Stats struct {
	Attempts     int   `json:"attempts"`
	AverageScore int   `json:"average_score"`
	Best         int   `json:"best"`
	Latest       int   `json:"latest"`
	LatestBand   Band  `json:"latest_band,omitempty"`
	Trend        Trend `json:"trend,omitempty"`

	// History holds percentages oldest first, for charting.
	History []int `json:"history"`
}

// Progress computes stats over n's quiz results.
func Progress(n *note.Note) Stats {
	st := Stats{Attempts: len(n.QuizResults), History: []int{}}
	if st.Attempts == 0 {
		return st
	}

	var sum float64
	for i := len(n.QuizResults) - 1; i >= 0; i-- {
		r := n.QuizResults[i]
		p := r.Percent()
		st.History = append(st.History, p)
		if p > st.Best {
			st.Best = p
		}
		if r.TotalQuestions > 0 {
			sum += float64(r.Score) / float64(r.TotalQuestions)
		}
	}
	st.AverageScore = int(sum/float64(st.Attempts)*100 + 0.5)
	st.Latest = n.QuizResults[0].Percent()
	st.LatestBand = BandFor(st.Latest)

	if st.Attempts > 1 {
		prev := n.QuizResults[1].Percent()
		switch {
		case st.Latest > prev:
			st.Trend = TrendImproving
		case st.Latest < prev:
			st.Trend = TrendDeclining
		default:
			st.Trend = TrendSteady
		}
	}
	return st
}

// ReviewView is a read-only rendering of one stored result.
type ReviewView struct {
	NoteID  string          `json:"note_id"`
	Result  note.QuizResult `json:"result"`
	Percent int             `json:"percent"`
	Band    Band            `json:"band"`
	Missed  int             `json:"missed"`
}

// Review returns the stored result with the given id. Nothing is modified.
func Review(n *note.Note, resultID string) (*ReviewView, error) {
	if strings.TrimSpace(resultID) == "" {
		return nil, errors.NewInvalidRequest("result id is required")
	}
	r := n.FindQuizResult(resultID)
	if r == nil {
		return nil, errors.NewResultNotFound(n.ID, resultID)
	}
	p := r.Percent()
	return &ReviewView{
		NoteID:  n.ID,
		Result:  *r,
		Percent: p,
		Band:    BandFor(p),
		Missed:  r.TotalQuestions - r.Score,
	}, nil
}
