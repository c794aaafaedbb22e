package db

import (
	"context"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// PutSession stores a completed timer session.
func PutSession(ctx context.Context, q Querier, s *note.TimerSession) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sessions (id, duration, completed_at, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			duration = excluded.duration,
			completed_at = excluded.completed_at,
			notes = excluded.notes
	`, s.ID, s.Duration, s.CompletedAt, s.Notes)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListSessions returns sessions completed at or after since, newest first.
func ListSessions(ctx context.Context, q Querier, since int64, limit int) ([]note.TimerSession, error) {
	query := `SELECT id, duration, completed_at, notes FROM sessions WHERE completed_at >= ? ORDER BY completed_at DESC, id DESC`
	args := []any{since}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var sessions []note.TimerSession
	for rows.Next() {
		var s note.TimerSession
		if err := rows.Scan(&s.ID, &s.Duration, &s.CompletedAt, &s.Notes); err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return sessions, nil
}
