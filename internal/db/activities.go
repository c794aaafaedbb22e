package db

import (
	"context"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// AppendActivity adds an entry to a note's AI activity log.
func AppendActivity(ctx context.Context, q Querier, a *note.AIActivity) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ai_activities (
			id, note_id, action, original_text, result_text, explanation, language, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.NoteID, string(a.Action), a.OriginalText, a.ResultText, a.Explanation, a.Language, a.Timestamp)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListActivities returns a note's activity log, newest first.
func ListActivities(ctx context.Context, q Querier, noteID string) ([]note.AIActivity, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, note_id, action, original_text, result_text, explanation, language, created_at
		FROM ai_activities
		WHERE note_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, noteID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []note.AIActivity
	for rows.Next() {
		var a note.AIActivity
		var action string
		if err := rows.Scan(&a.ID, &a.NoteID, &action, &a.OriginalText, &a.ResultText, &a.Explanation, &a.Language, &a.Timestamp); err != nil {
			return nil, errors.NewInternal(err)
		}
		a.Action = note.Action(action)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// ClearActivities removes a note's activity log and reports how many entries went.
func ClearActivities(ctx context.Context, q Querier, noteID string) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM ai_activities WHERE note_id = ?`, noteID)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}
