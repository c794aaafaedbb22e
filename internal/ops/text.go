package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// TextInput selects the text an AI tool works on. With a NoteID and no Text
// the whole note content is used; with both, Text must appear in the note
// and only its first occurrence is replaced.
type TextInput struct {
	NoteID   string
	Text     string
	Tone     string // rewrite
	Language string // translate
}

// TextOutput contains the result of a text tool.
type TextOutput struct {
	Original    string `json:"original"`
	Result      string `json:"result"`
	Explanation string `json:"explanation,omitempty"`
	Language    string `json:"language,omitempty"`

	// Applied is true when the result was written back into the note.
	Applied    bool   `json:"applied"`
	NoteID     string `json:"note_id,omitempty"`
	ActivityID string `json:"activity_id,omitempty"`
}

// Rewrite rewrites the selection in the given tone (default: professional).
func Rewrite(ctx context.Context, database *sql.DB, cfg *config.Config, assistant *ai.Assistant, input TextInput) (*TextOutput, error) {
	text, err := resolveSelection(ctx, database, input)
	if err != nil {
		return nil, err
	}
	rw := assistant.Rewrite(ctx, text, input.Tone)
	out := &TextOutput{Original: text, Result: rw.Result, Explanation: rw.Explanation}
	if err := applyResult(ctx, database, cfg, input.NoteID, note.ActionRewrite, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Translate translates the selection into one of the supported languages.
func Translate(ctx context.Context, database *sql.DB, cfg *config.Config, assistant *ai.Assistant, input TextInput) (*TextOutput, error) {
	lang := strings.ToLower(strings.TrimSpace(input.Language))
	if !ai.SupportedLanguage(lang) {
		return nil, errors.NewInvalidRequest("unsupported language: " + input.Language)
	}
	text, err := resolveSelection(ctx, database, input)
	if err != nil {
		return nil, err
	}
	out := &TextOutput{
		Original:    text,
		Result:      assistant.Translate(ctx, text, lang),
		Explanation: "Translated to " + strings.ToUpper(lang),
		Language:    lang,
	}
	if err := applyResult(ctx, database, cfg, input.NoteID, note.ActionTranslate, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clean tidies pasted or OCR text.
func Clean(ctx context.Context, database *sql.DB, cfg *config.Config, assistant *ai.Assistant, input TextInput) (*TextOutput, error) {
	text, err := resolveSelection(ctx, database, input)
	if err != nil {
		return nil, err
	}
	out := &TextOutput{
		Original:    text,
		Result:      assistant.CleanText(ctx, text),
		Explanation: "Cleaned and formatted text",
	}
	if err := applyResult(ctx, database, cfg, input.NoteID, note.ActionClean, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DetectOutput contains the result of the DetectLanguage operation.
type DetectOutput struct {
	Detected   bool    `json:"detected"`
	Language   string  `json:"language,omitempty"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// DetectLanguage guesses the language of the selection. Short text and model
// failures report Detected=false.
func DetectLanguage(ctx context.Context, database *sql.DB, assistant *ai.Assistant, input TextInput) (*DetectOutput, error) {
	text, err := resolveSelection(ctx, database, input)
	if err != nil {
		return nil, err
	}
	d := assistant.DetectLanguage(ctx, text)
	if d == nil {
		return &DetectOutput{}, nil
	}
	return &DetectOutput{
		Detected:   true,
		Language:   d.Language,
		Name:       ai.LanguageName(d.Language),
		Confidence: d.Confidence,
	}, nil
}

func resolveSelection(ctx context.Context, database *sql.DB, input TextInput) (string, error) {
	noteID := strings.TrimSpace(input.NoteID)
	if noteID == "" {
		if strings.TrimSpace(input.Text) == "" {
			return "", errors.NewInvalidRequest("text or note id is required")
		}
		return input.Text, nil
	}

	n, err := db.GetNote(ctx, database, noteID)
	if err != nil {
		return "", err
	}
	if input.Text == "" {
		if strings.TrimSpace(n.Content) == "" {
			return "", errors.NewInvalidRequest("note has no content")
		}
		return n.Content, nil
	}
	if !strings.Contains(n.Content, input.Text) {
		return "", errors.NewInvalidRequest("selected text not found in note")
	}
	return input.Text, nil
}

// applyResult substitutes out.Result for out.Original in the note and logs
// the activity, in one transaction. Free text and unchanged results are left
// alone.
func applyResult(ctx context.Context, database *sql.DB, cfg *config.Config, noteID string, action note.Action, out *TextOutput) error {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" || out.Result == out.Original || strings.TrimSpace(out.Result) == "" {
		return nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := db.GetNote(ctx, tx, noteID)
	if err != nil {
		return err
	}
	// The note may have been edited while the model was answering.
	if !strings.Contains(n.Content, out.Original) {
		return errors.NewConflict("note changed while the text tool was running")
	}
	n.Content = strings.Replace(n.Content, out.Original, out.Result, 1)
	if chars := note.CountChars(n.Content); chars > cfg.NoteMaxChars {
		return errors.NewNoteTooLarge(cfg.NoteMaxChars, chars)
	}

	now := time.Now().Unix()
	n.UpdatedAt = now
	if err := db.PutNote(ctx, tx, n); err != nil {
		return err
	}

	act := &note.AIActivity{
		ID:           uuid.NewString(),
		NoteID:       n.ID,
		Timestamp:    now,
		Action:       action,
		OriginalText: out.Original,
		ResultText:   out.Result,
		Explanation:  out.Explanation,
		Language:     out.Language,
	}
	if err := db.AppendActivity(ctx, tx, act); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}

	out.Applied = true
	out.NoteID = n.ID
	out.ActivityID = act.ID
	return nil
}
