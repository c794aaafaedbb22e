package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// SessionInput contains parameters for the RecordSession operation.
type SessionInput struct {
	Duration int // seconds, required
	Notes    string

	// Motivate asks the model for an encouraging message, stored as the
	// session notes when Notes is empty.
	Motivate bool
}

// SessionOutput contains the result of the RecordSession operation.
type SessionOutput struct {
	Session       note.TimerSession `json:"session"`
	SessionsToday int               `json:"sessions_today"`
	Motivation    string            `json:"motivation,omitempty"`
}

// RecordSession stores a completed focus session.
func RecordSession(ctx context.Context, database *sql.DB, assistant *ai.Assistant, input SessionInput) (*SessionOutput, error) {
	if input.Duration <= 0 {
		return nil, errors.NewInvalidRequest("duration must be positive")
	}
	now := time.Now()

	today, err := db.ListSessions(ctx, database, startOfDay(now).Unix(), 0)
	if err != nil {
		return nil, err
	}
	count := len(today) + 1

	s := note.TimerSession{
		ID:          newID(now),
		Duration:    input.Duration,
		CompletedAt: now.Unix(),
		Notes:       strings.TrimSpace(input.Notes),
	}
	out := &SessionOutput{SessionsToday: count}
	if input.Motivate {
		out.Motivation = motivationFor(ctx, assistant, count)
		if s.Notes == "" {
			s.Notes = out.Motivation
		}
	}

	if err := db.PutSession(ctx, database, &s); err != nil {
		return nil, err
	}
	out.Session = s
	return out, nil
}

// SessionsInput contains parameters for the ListSessions operation.
type SessionsInput struct {
	Since int64 // unix seconds; 0 lists everything
	Limit int
}

// SessionsOutput contains the result of the ListSessions operation.
type SessionsOutput struct {
	Items []note.TimerSession `json:"items"`
}

// ListSessions returns sessions newest first.
func ListSessions(ctx context.Context, database *sql.DB, input SessionsInput) (*SessionsOutput, error) {
	if input.Since < 0 {
		return nil, errors.NewInvalidRequest("since must not be negative")
	}
	limit := clampLimit(input.Limit, DefaultSessionsLimit, MaxSessionsLimit)
	items, err := db.ListSessions(ctx, database, input.Since, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []note.TimerSession{}
	}
	return &SessionsOutput{Items: items}, nil
}

// StatsOutput contains the result of the SessionStats operation.
type StatsOutput struct {
	TodayCount   int `json:"today_count"`
	TodaySeconds int `json:"today_seconds"`
	TotalCount   int `json:"total_count"`
	TotalSeconds int `json:"total_seconds"`
}

// SessionStats totals focus time for today (local time) and overall.
func SessionStats(ctx context.Context, database *sql.DB, now time.Time) (*StatsOutput, error) {
	all, err := db.ListSessions(ctx, database, 0, 0)
	if err != nil {
		return nil, err
	}
	dayStart := startOfDay(now).Unix()
	out := &StatsOutput{}
	for _, s := range all {
		out.TotalCount++
		out.TotalSeconds += s.Duration
		if s.CompletedAt >= dayStart {
			out.TodayCount++
			out.TodaySeconds += s.Duration
		}
	}
	return out, nil
}

// MotivationOutput contains the result of the Motivation operation.
type MotivationOutput struct {
	Message string `json:"message"`
	Session int    `json:"session"`
}

// Motivation returns an encouraging message for the next session today.
func Motivation(ctx context.Context, database *sql.DB, assistant *ai.Assistant) (*MotivationOutput, error) {
	today, err := db.ListSessions(ctx, database, startOfDay(time.Now()).Unix(), 0)
	if err != nil {
		return nil, err
	}
	n := len(today) + 1
	return &MotivationOutput{Message: motivationFor(ctx, assistant, n), Session: n}, nil
}

func motivationFor(ctx context.Context, assistant *ai.Assistant, n int) string {
	return assistant.Generate(ctx, fmt.Sprintf("Generate a motivational message for completing %d focus sessions today", n))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
