package ops

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// MaxImportBytes caps a single import file.
const MaxImportBytes = 64 * 1024 * 1024

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	// Path is a file or a glob such as ~/backups/notes-2026-*.json.
	Path string
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Files    []string `json:"files"`
	Imported int      `json:"imported"`
	Replaced int      `json:"replaced"`
}

// Import reads one or more export documents and stores every note they
// contain. A note whose id already exists is overwritten. All files are
// applied in a single transaction: one bad file imports nothing.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	files, err := expandImportPath(input.Path)
	if err != nil {
		return nil, err
	}

	var docs [][]note.Note
	for _, f := range files {
		if err := ValidatePath(f, ExtJSON, PathCheckRead, cfg); err != nil {
			return nil, err
		}
		notes, err := readExportFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, notes)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := &ImportOutput{Files: files}
	now := time.Now()
	for _, notes := range docs {
		for i := range notes {
			n := &notes[i]
			normalizeImported(n, now)

			if _, err := db.GetNote(ctx, tx, n.ID); err == nil {
				out.Replaced++
			} else if !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
			if err := db.PutNote(ctx, tx, n); err != nil {
				return nil, err
			}
			out.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// expandImportPath resolves a glob to the matching files, sorted. A plain
// path is returned as is so a missing file reports FILE_NOT_FOUND.
func expandImportPath(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePathPattern(filepath.ToSlash(pattern)) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid glob: %s", pattern))
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid glob: %v", err))
	}
	if len(matches) == 0 {
		return nil, errors.NewFileNotFound(pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// exportEnvelope is decoded first so that only the notes key is validated.
type exportEnvelope struct {
	Notes json.RawMessage `json:"notes"`
}

func readExportFile(path string) ([]note.Note, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewFileTooLarge(MaxImportBytes, int64(len(data)))
	}
	return ParseExport(data)
}

// ParseExport decodes an export document. The only structural requirement is
// a "notes" key holding an array.
func ParseExport(data []byte) ([]note.Note, error) {
	var env exportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid export file: %v", err))
	}
	raw := bytes.TrimSpace(env.Notes)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.NewInvalidRequest("invalid export file: notes must be an array")
	}
	var notes []note.Note
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid export file: %v", err))
	}
	return notes, nil
}

// normalizeImported fills in what an older or hand-edited export may lack
// and enforces the per-note history caps.
func normalizeImported(n *note.Note, now time.Time) {
	if strings.TrimSpace(n.ID) == "" {
		n.ID = newID(now)
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = now.Unix()
	}
	if n.UpdatedAt == 0 {
		n.UpdatedAt = n.CreatedAt
	}
	if len(n.Summaries) > note.MaxSummaries {
		n.Summaries = n.Summaries[:note.MaxSummaries]
	}
	if len(n.QuizResults) > note.MaxQuizResults {
		n.QuizResults = n.QuizResults[:note.MaxQuizResults]
	}
}
