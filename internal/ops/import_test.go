package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestImport_RoundTrip(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()
	id := saveNote(t, database, cfg, "Math", "algebra", "x + 1")

	path := filepath.Join(dir, "backup.json")
	if _, err := Export(ctx, database, cfg, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	fresh, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	defer fresh.Close()

	out, err := Import(ctx, fresh, cfg, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 1 || out.Replaced != 0 {
		t.Errorf("out = %+v", out)
	}
	n, err := db.GetNote(ctx, fresh, id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if n.Topic != "Math" || n.Content != "x + 1" || len(n.Tags) != 1 {
		t.Errorf("imported note = %+v", n)
	}

	// Importing the same file again overwrites by id.
	again, err := Import(ctx, fresh, cfg, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if again.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", again.Replaced)
	}
	if count, _ := db.CountNotes(ctx, fresh); count != 1 {
		t.Errorf("CountNotes = %d, want 1", count)
	}
}

func TestImport_NormalizesNotes(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()

	var summaries, quizzes []string
	for i := 0; i < 7; i++ {
		summaries = append(summaries, fmt.Sprintf(`{"id":"s%d","summary":"v%d"}`, i, i))
	}
	for i := 0; i < 12; i++ {
		quizzes = append(quizzes, fmt.Sprintf(`{"id":"q%d","score":1,"totalQuestions":5}`, i))
	}
	body := fmt.Sprintf(`{"notes":[{"content":"no id","summaries":[%s],"quizResults":[%s]}]}`,
		strings.Join(summaries, ","), strings.Join(quizzes, ","))
	path := filepath.Join(dir, "legacy.json")
	writeFile(t, path, body)

	if _, err := Import(ctx, database, cfg, ImportInput{Path: path}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	notes, _, err := db.ListNotes(ctx, database, db.ListFilters{}, 0, 0)
	if err != nil || len(notes) != 1 {
		t.Fatalf("ListNotes = %d notes, err %v", len(notes), err)
	}
	n := notes[0]
	if n.ID == "" || n.CreatedAt == 0 || n.UpdatedAt != n.CreatedAt {
		t.Errorf("identity not filled in: %+v", n)
	}
	if len(n.Summaries) != note.MaxSummaries || n.Summaries[0].ID != "s0" {
		t.Errorf("summaries = %d, first %q", len(n.Summaries), n.Summaries[0].ID)
	}
	if len(n.QuizResults) != note.MaxQuizResults {
		t.Errorf("quiz results = %d, want %d", len(n.QuizResults), note.MaxQuizResults)
	}
}

func TestImport_Glob(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(dir, "notes-a.json"), `{"notes":[{"id":"a","content":"A"}]}`)
	writeFile(t, filepath.Join(dir, "notes-b.json"), `{"notes":[{"id":"b","content":"B"}]}`)
	writeFile(t, filepath.Join(dir, "other.json"), `{"notes":[{"id":"c","content":"C"}]}`)

	out, err := Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "notes-*.json")})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 || len(out.Files) != 2 {
		t.Fatalf("out = %+v", out)
	}
	if filepath.Base(out.Files[0]) != "notes-a.json" {
		t.Errorf("files not sorted: %v", out.Files)
	}

	if _, err := Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "none-*.json")}); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("no matches error = %v", err)
	}
}

func TestImport_BadFileImportsNothing(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(dir, "1-good.json"), `{"notes":[{"id":"good","content":"ok"}]}`)
	writeFile(t, filepath.Join(dir, "2-bad.json"), `{"notes":{"id":"bad"}}`)

	_, err := Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "*.json")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
	if count, _ := db.CountNotes(ctx, database); count != 0 {
		t.Errorf("CountNotes = %d, want 0", count)
	}
}

func TestParseExport(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
		ok    bool
	}{
		{"empty array", `{"notes": []}`, 0, true},
		{"extra keys ignored", `{"notes": [{"id": "x"}], "exportDate": "2026-01-01", "app": "other"}`, 1, true},
		{"notes missing", `{"exportDate": "x"}`, 0, false},
		{"notes null", `{"notes": null}`, 0, false},
		{"notes object", `{"notes": {}}`, 0, false},
		{"not json", `notes`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := ParseExport([]byte(tt.input))
			if tt.ok {
				if err != nil {
					t.Fatalf("ParseExport failed: %v", err)
				}
				if len(notes) != tt.count {
					t.Errorf("len = %d, want %d", len(notes), tt.count)
				}
				return
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestImport_MissingFile(t *testing.T) {
	database, cfg, dir := setup(t)
	_, err := Import(context.Background(), database, cfg, ImportInput{Path: filepath.Join(dir, "gone.json")})
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
