package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// SaveInput contains parameters for the SaveNote operation.
// With an empty ID a note is created; otherwise the note is updated and nil
// fields keep their stored values.
type SaveInput struct {
	ID      string
	Title   *string
	Topic   *string
	Tags    []string // nil keeps existing tags; an empty slice clears them
	Content *string  // required on create
	Images  []note.Image
}

// SaveOutput contains the result of the SaveNote operation.
type SaveOutput struct {
	ID        string `json:"id"`
	Created   bool   `json:"created"`
	Chars     int    `json:"chars"`
	UpdatedAt int64  `json:"updated_at"`
}

// SaveNote creates a note or updates an existing one. Summaries and quiz
// results are never touched by a save.
func SaveNote(ctx context.Context, database *sql.DB, cfg *config.Config, input SaveInput) (*SaveOutput, error) {
	now := time.Now()
	id := strings.TrimSpace(input.ID)

	var n *note.Note
	created := id == ""
	if created {
		if input.Content == nil || strings.TrimSpace(*input.Content) == "" {
			return nil, errors.NewInvalidRequest("content is required")
		}
		n = &note.Note{ID: newID(now), CreatedAt: now.Unix()}
	} else {
		existing, err := db.GetNote(ctx, database, id)
		if err != nil {
			return nil, err
		}
		n = existing
	}

	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, errors.NewInvalidRequest("content must not be empty")
		}
		n.Content = *input.Content
	}
	if input.Title != nil {
		n.Title = strings.TrimSpace(*input.Title)
	}
	if input.Topic != nil {
		n.Topic = strings.TrimSpace(*input.Topic)
	}
	if input.Tags != nil {
		n.Tags = cleanTags(input.Tags)
	}
	for _, img := range input.Images {
		if strings.TrimSpace(img.Data) == "" {
			return nil, errors.NewInvalidRequest("image data is required")
		}
		if img.ID == "" {
			img.ID = uuid.NewString()
		}
		n.Images = append(n.Images, img)
	}

	chars := note.CountChars(n.Content)
	if chars > cfg.NoteMaxChars {
		return nil, errors.NewNoteTooLarge(cfg.NoteMaxChars, chars)
	}

	n.UpdatedAt = now.Unix()
	if err := db.PutNote(ctx, database, n); err != nil {
		return nil, err
	}

	return &SaveOutput{ID: n.ID, Created: created, Chars: chars, UpdatedAt: n.UpdatedAt}, nil
}

// cleanTags trims tags and drops blanks. Order and repeats are kept: tags are
// a path below the topic, so algebra/algebra is its own bucket.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// GetOutput is a note together with its AI activity log.
type GetOutput struct {
	*note.Note
	DisplayTitle string            `json:"display_title"`
	Chars        int               `json:"chars"`
	Activities   []note.AIActivity `json:"activities"`
}

// GetNote loads a note and its activity log, newest activity first.
func GetNote(ctx context.Context, database *sql.DB, id string) (*GetOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	n, err := db.GetNote(ctx, database, id)
	if err != nil {
		return nil, err
	}
	acts, err := db.ListActivities(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if acts == nil {
		acts = []note.AIActivity{}
	}
	return &GetOutput{
		Note:         n,
		DisplayTitle: note.DisplayTitle(n),
		Chars:        note.CountChars(n.Content),
		Activities:   acts,
	}, nil
}

// ListInput contains parameters for the ListNotes operation.
type ListInput struct {
	Topic  string
	Tag    string
	Limit  int
	Offset int
}

// NoteItem is the list view of a note, without content.
type NoteItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Topic       string   `json:"topic"`
	Tags        []string `json:"tags,omitempty"`
	Chars       int      `json:"chars"`
	Summaries   int      `json:"summaries"`
	QuizResults int      `json:"quiz_results"`
	UpdatedAt   int64    `json:"updated_at"`
}

// ListOutput contains the result of the ListNotes operation.
type ListOutput struct {
	Items      []NoteItem `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ListNotes returns notes most recently updated first.
func ListNotes(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)

	filters := db.ListFilters{Topic: strings.TrimSpace(input.Topic), Tag: strings.TrimSpace(input.Tag)}
	notes, total, err := db.ListNotes(ctx, database, filters, limit, input.Offset)
	if err != nil {
		return nil, err
	}

	items := make([]NoteItem, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		items = append(items, NoteItem{
			ID:          n.ID,
			Title:       note.DisplayTitle(n),
			Topic:       note.TopicOrDefault(n),
			Tags:        n.Tags,
			Chars:       note.CountChars(n.Content),
			Summaries:   len(n.Summaries),
			QuizResults: len(n.QuizResults),
			UpdatedAt:   n.UpdatedAt,
		})
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// DeleteOutput contains the result of the DeleteNote operation.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteNote removes a note and its activity log. Deletion is permanent.
func DeleteNote(ctx context.Context, database *sql.DB, id string) (*DeleteOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := db.DeleteNote(ctx, database, id); err != nil {
		return nil, err
	}
	return &DeleteOutput{ID: id, Deleted: true}, nil
}
