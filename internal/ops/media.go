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
	"github.com/hpungsan/focusflow/internal/textfmt"
)

// MediaInput carries an uploaded image or recording.
type MediaInput struct {
	NoteID string // optional; when set the result is appended to the note
	Name   string
	Data   []byte
}

// MediaOutput contains the result of ExtractImage or TranscribeAudio.
type MediaOutput struct {
	Text string `json:"text"`

	// Extracted is false when the model was unavailable or failed and Text
	// is a fallback message.
	Extracted  bool   `json:"extracted"`
	Applied    bool   `json:"applied"`
	NoteID     string `json:"note_id,omitempty"`
	ImageID    string `json:"image_id,omitempty"`
	ActivityID string `json:"activity_id,omitempty"`
}

func validateMedia(input MediaInput) error {
	if len(input.Data) == 0 {
		return errors.NewInvalidRequest("file is empty")
	}
	if len(input.Data) > MaxUploadBytes {
		return errors.NewFileTooLarge(MaxUploadBytes, int64(len(input.Data)))
	}
	return nil
}

// ExtractImage reads the text out of an image. With a NoteID the image is
// attached to the note and the cleaned text appended below its content.
func ExtractImage(ctx context.Context, database *sql.DB, cfg *config.Config, assistant *ai.Assistant, input MediaInput) (*MediaOutput, error) {
	if err := validateMedia(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "image"
	}

	raw := assistant.ExtractFromImage(ctx, input.Data, name)
	extracted := raw != ai.FallbackImageUnavailable && raw != ai.FallbackImageFailed
	text := raw
	if extracted {
		text = textfmt.MarkdownToPlain(textfmt.CleanOCR(raw))
	}
	out := &MediaOutput{Text: text, Extracted: extracted}

	if strings.TrimSpace(input.NoteID) == "" {
		return out, nil
	}

	img := note.Image{ID: uuid.NewString(), Data: ai.DataURL(input.Data), Name: name}
	block := "\n\nImage: " + name + "\n"
	if extracted {
		block += "[Add a title above this line]\n\n" + text + "\n\n---\n"
	}
	err := appendToNote(ctx, database, cfg, input.NoteID, block, &img, note.ActionImageOCR, raw, text, extracted, out)
	if err != nil {
		return nil, err
	}
	out.ImageID = img.ID
	return out, nil
}

// TranscribeAudio turns a recording into text, appending it to the note
// when a NoteID is given.
func TranscribeAudio(ctx context.Context, database *sql.DB, cfg *config.Config, assistant *ai.Assistant, input MediaInput) (*MediaOutput, error) {
	if err := validateMedia(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "recording.webm"
	}

	text := assistant.ExtractFromAudio(ctx, input.Data, name)
	extracted := text != ai.FallbackAudioUnavailable && text != ai.FallbackAudioFailed
	out := &MediaOutput{Text: text, Extracted: extracted}

	if strings.TrimSpace(input.NoteID) == "" || !extracted {
		return out, nil
	}

	block := "\n\n" + strings.TrimSpace(text) + "\n"
	if err := appendToNote(ctx, database, cfg, input.NoteID, block, nil, note.ActionTranscribe, "", text, true, out); err != nil {
		return nil, err
	}
	return out, nil
}

// appendToNote adds block (and img, if any) to the note and, when logActivity
// is set, records the extraction in the activity log.
func appendToNote(ctx context.Context, database *sql.DB, cfg *config.Config, noteID, block string, img *note.Image,
	action note.Action, original, result string, logActivity bool, out *MediaOutput) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := db.GetNote(ctx, tx, strings.TrimSpace(noteID))
	if err != nil {
		return err
	}
	n.Content += block
	if img != nil {
		n.Images = append(n.Images, *img)
	}
	if chars := note.CountChars(n.Content); chars > cfg.NoteMaxChars {
		return errors.NewNoteTooLarge(cfg.NoteMaxChars, chars)
	}

	now := time.Now().Unix()
	n.UpdatedAt = now
	if err := db.PutNote(ctx, tx, n); err != nil {
		return err
	}

	if logActivity {
		act := &note.AIActivity{
			ID:           uuid.NewString(),
			NoteID:       n.ID,
			Timestamp:    now,
			Action:       action,
			OriginalText: original,
			ResultText:   result,
		}
		if err := db.AppendActivity(ctx, tx, act); err != nil {
			return err
		}
		out.ActivityID = act.ID
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	out.Applied = true
	out.NoteID = n.ID
	return nil
}
