package ops

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// MarkdownInput contains parameters for the ExportMarkdown operation.
type MarkdownInput struct {
	Dir   string // optional, default: ~/.focusflow/exports
	Topic string
	Tag   string
}

// MarkdownOutput contains the result of the ExportMarkdown operation.
type MarkdownOutput struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

type frontMatter struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Topic   string   `yaml:"topic"`
	Tags    []string `yaml:"tags,omitempty"`
	Created string   `yaml:"created"`
	Updated string   `yaml:"updated"`
	Quizzes int      `yaml:"quizzes,omitempty"`
}

// ExportMarkdown writes each note as <id>.md with YAML front matter. The
// latest summary, if any, is appended below the content.
func ExportMarkdown(ctx context.Context, database *sql.DB, cfg *config.Config, input MarkdownInput) (*MarkdownOutput, error) {
	dir := input.Dir
	if dir == "" {
		d, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := ValidateDir(dir, cfg); err != nil {
		return nil, err
	}

	notes, _, err := db.ListNotes(ctx, database, db.ListFilters{Topic: input.Topic, Tag: input.Tag}, 0, 0)
	if err != nil {
		return nil, err
	}

	out := &MarkdownOutput{Dir: dir, Files: []string{}}
	for i := range notes {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("markdown export")
		}
		n := &notes[i]
		doc, err := RenderMarkdown(n)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		path := filepath.Join(dir, SanitizeForFilename(n.ID)+".md")
		err = writeFileAtomic(path, func(w io.Writer) error {
			_, err := w.Write(doc)
			return err
		})
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
	}
	return out, nil
}

// RenderMarkdown serializes a note as front matter followed by its content.
func RenderMarkdown(n *note.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(frontMatter{
		ID:      n.ID,
		Title:   note.DisplayTitle(n),
		Topic:   note.TopicOrDefault(n),
		Tags:    n.Tags,
		Created: time.Unix(n.CreatedAt, 0).UTC().Format(time.RFC3339),
		Updated: time.Unix(n.UpdatedAt, 0).UTC().Format(time.RFC3339),
		Quizzes: len(n.QuizResults),
	})
	if err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	if s := n.LatestSummary(); s != nil {
		buf.WriteString("\n\n## Summary\n\n" + s.Summary)
		buf.WriteString("\n\n## Key insights\n\n" + s.Insights)
		buf.WriteString("\n\n## Next actions\n\n" + s.Actions)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
