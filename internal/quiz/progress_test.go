package quiz

import (
	"testing"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		percent int
		want    Band
	}{
		{100, BandExcellent},
		{80, BandExcellent},
		{79, BandGood},
		{60, BandGood},
		{59, BandReview},
		{0, BandReview},
	}
	for _, tt := range tests {
		if got := BandFor(tt.percent); got != tt.want {
			t.Errorf("BandFor(%d) = %s, want %s", tt.percent, got, tt.want)
		}
	}
	if !BandReview.SuggestRetake() || BandGood.SuggestRetake() {
		t.Error("only the review band should suggest a retake")
	}
}

func TestProgress(t *testing.T) {
	n := &note.Note{ID: "n1", QuizResults: []note.QuizResult{
		{ID: "r3", Score: 4, TotalQuestions: 5},
		{ID: "r2", Score: 2, TotalQuestions: 5},
		{ID: "r1", Score: 3, TotalQuestions: 5},
	}}

	st := Progress(n)
	if st.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", st.Attempts)
	}
	if st.AverageScore != 60 {
		t.Errorf("AverageScore = %d, want 60", st.AverageScore)
	}
	if st.Best != 80 || st.Latest != 80 {
		t.Errorf("Best = %d, Latest = %d, want 80/80", st.Best, st.Latest)
	}
	if st.LatestBand != BandExcellent {
		t.Errorf("LatestBand = %s", st.LatestBand)
	}
	if st.Trend != TrendImproving {
		t.Errorf("Trend = %s, want improving", st.Trend)
	}
	want := []int{60, 40, 80}
	for i := range want {
		if st.History[i] != want[i] {
			t.Errorf("History = %v, want %v", st.History, want)
			break
		}
	}
}

func TestProgress_Empty(t *testing.T) {
	st := Progress(&note.Note{ID: "n1"})
	if st.Attempts != 0 || st.Trend != "" || len(st.History) != 0 {
		t.Errorf("Progress(empty) = %+v", st)
	}
}

func TestReview(t *testing.T) {
	n := &note.Note{ID: "n1", QuizResults: []note.QuizResult{
		{ID: "r1", Score: 2, TotalQuestions: 5},
	}}

	v, err := Review(n, "r1")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if v.Percent != 40 || v.Band != BandReview || v.Missed != 3 {
		t.Errorf("Review() = %+v", v)
	}

	if _, err := Review(n, "nope"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Review(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := Review(n, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Review(\"\") error = %v, want INVALID_REQUEST", err)
	}
}
