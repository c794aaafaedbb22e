package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path  string // optional, default: ~/.focusflow/exports/notes-<timestamp>.json
	Topic string // optional filter
	Tag   string // optional filter
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportDate string `json:"export_date"`
}

// Export writes every note (with summaries and quiz results) to a single
// JSON document.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now().UTC()

	exportPath := input.Path
	if exportPath == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, fmt.Sprintf("notes-%s.json", now.Format("2006-01-02T150405")))
	}
	if err := ValidatePath(exportPath, ExtJSON, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	notes, _, err := db.ListNotes(ctx, database, db.ListFilters{Topic: input.Topic, Tag: input.Tag}, 0, 0)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []note.Note{}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("export")
	}

	doc := note.ExportDocument{
		Notes:      notes,
		ExportDate: now.Format(time.RFC3339),
		Version:    note.ExportVersion,
	}
	err = writeFileAtomic(exportPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
	if err != nil {
		return nil, err
	}

	return &ExportOutput{Path: exportPath, Count: len(notes), ExportDate: doc.ExportDate}, nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it over path, so a failed write leaves any existing file intact.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := write(bw); err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewInternal(err)
	}
	if err := bw.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("destination is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewConflict("destination already exists; overwriting is not supported on Windows")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize file: %w", err))
	}

	success = true
	return nil
}
