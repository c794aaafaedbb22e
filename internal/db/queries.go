package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

const noteColumns = `id, title, topic, tags_json, content, images_json,
	summaries_json, quiz_results_json, created_at, updated_at`

// ListFilters narrows ListNotes. Empty fields match everything.
type ListFilters struct {
	Topic string
	Tag   string
}

// PutNote inserts or replaces a note by id.
func PutNote(ctx context.Context, q Querier, n *note.Note) error {
	tagsJSON, err := marshalNullable(n.Tags, len(n.Tags))
	if err != nil {
		return errors.NewInternal(err)
	}
	imagesJSON, err := marshalNullable(n.Images, len(n.Images))
	if err != nil {
		return errors.NewInternal(err)
	}
	summariesJSON, err := marshalNullable(n.Summaries, len(n.Summaries))
	if err != nil {
		return errors.NewInternal(err)
	}
	quizJSON, err := marshalNullable(n.QuizResults, len(n.QuizResults))
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO notes (
			id, title, topic, tags_json, content, images_json,
			summaries_json, quiz_results_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			topic = excluded.topic,
			tags_json = excluded.tags_json,
			content = excluded.content,
			images_json = excluded.images_json,
			summaries_json = excluded.summaries_json,
			quiz_results_json = excluded.quiz_results_json,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err = q.ExecContext(ctx, query,
		n.ID, n.Title, n.Topic, tagsJSON, n.Content, imagesJSON,
		summariesJSON, quizJSON, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetNote retrieves a note by id.
func GetNote(ctx context.Context, q Querier, id string) (*note.Note, error) {
	row := q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return n, nil
}

// ListNotes returns notes ordered by updated_at descending.
// A limit of 0 returns every matching note.
func ListNotes(ctx context.Context, q Querier, filters ListFilters, limit, offset int) ([]note.Note, int, error) {
	where, args := buildFilterClause(filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM notes` + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + noteColumns + ` FROM notes` + where + ` ORDER BY updated_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var notes []note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return notes, total, nil
}

// buildFilterClause matches tags against the JSON array via json_each.
func buildFilterClause(f ListFilters) (string, []any) {
	var conds []string
	var args []any
	if f.Topic != "" {
		if f.Topic == note.UncategorizedTopic {
			conds = append(conds, `(topic = ? OR TRIM(topic) = '')`)
		} else {
			conds = append(conds, `topic = ?`)
		}
		args = append(args, f.Topic)
	}
	if f.Tag != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM json_each(notes.tags_json) WHERE json_each.value = ?)`)
		args = append(args, f.Tag)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// DeleteNote hard-deletes a note together with its activity log.
func DeleteNote(ctx context.Context, q Querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(id)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM ai_activities WHERE note_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CountNotes returns the total number of stored notes.
func CountNotes(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*note.Note, error) {
	var n note.Note
	var tagsJSON, imagesJSON, summariesJSON, quizJSON sql.NullString

	err := row.Scan(
		&n.ID, &n.Title, &n.Topic, &tagsJSON, &n.Content, &imagesJSON,
		&summariesJSON, &quizJSON, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalNullable(tagsJSON, &n.Tags); err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	if err := unmarshalNullable(imagesJSON, &n.Images); err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	if err := unmarshalNullable(summariesJSON, &n.Summaries); err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	if err := unmarshalNullable(quizJSON, &n.QuizResults); err != nil {
		return nil, fmt.Errorf("quiz results: %w", err)
	}
	return &n, nil
}

func marshalNullable(v any, n int) (sql.NullString, error) {
	if n == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNullable(ns sql.NullString, dst any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}
