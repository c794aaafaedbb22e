package ops

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

func TestExport_WritesDocument(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()
	saveNote(t, database, cfg, "Math", "algebra", "x + 1")
	saveNote(t, database, cfg, "History", "", "1066")

	path := filepath.Join(dir, "backup.json")
	out, err := Export(ctx, database, cfg, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 || out.Path != path {
		t.Errorf("out = %+v", out)
	}
	if _, err := time.Parse(time.RFC3339, out.ExportDate); err != nil {
		t.Errorf("ExportDate %q is not RFC3339: %v", out.ExportDate, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var doc note.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(doc.Notes) != 2 || doc.Version != note.ExportVersion || doc.ExportDate != out.ExportDate {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.Contains(string(data), "\n  \"notes\"") {
		t.Error("export should be indented")
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestExport_Filtered(t *testing.T) {
	database, cfg, dir := setup(t)
	saveNote(t, database, cfg, "Math", "algebra", "a")
	saveNote(t, database, cfg, "Math", "geometry", "b")

	out, err := Export(context.Background(), database, cfg, ExportInput{Path: filepath.Join(dir, "math.json"), Tag: "geometry"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestExport_EmptyStore(t *testing.T) {
	database, cfg, dir := setup(t)
	path := filepath.Join(dir, "empty.json")
	if _, err := Export(context.Background(), database, cfg, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"notes": []`) {
		t.Errorf("empty export = %s", data)
	}
}

func TestExport_PathRejected(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()

	cases := map[string]string{
		"outside allowlist": filepath.Join(t.TempDir(), "notes.json"),
		"wrong extension":   filepath.Join(dir, "notes.txt"),
		"traversal":         dir + "/../notes.json",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Export(ctx, database, cfg, ExportInput{Path: path}); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestExport_OverwritesExisting(t *testing.T) {
	database, cfg, dir := setup(t)
	path := filepath.Join(dir, "notes.json")
	if err := os.WriteFile(path, []byte("stale"), 0600); err != nil {
		t.Fatal(err)
	}
	saveNote(t, database, cfg, "", "", "fresh")
	if _, err := Export(context.Background(), database, cfg, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "fresh") {
		t.Errorf("file not replaced: %s", data)
	}
}

func TestRenderMarkdown(t *testing.T) {
	n := &note.Note{
		ID:        "01NOTE",
		Title:     "Cells",
		Topic:     "Biology",
		Tags:      []string{"mitosis"},
		Content:   "Prophase, metaphase.",
		CreatedAt: 0,
		UpdatedAt: 60,
		Summaries: []note.SummaryRecord{
			{ID: "s2", Summary: "newest", Insights: "ins", Actions: "act"},
			{ID: "s1", Summary: "older"},
		},
	}
	doc, err := RenderMarkdown(n)
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	text := string(doc)
	if !strings.HasPrefix(text, "---\n") {
		t.Fatalf("missing front matter: %q", text)
	}
	parts := strings.SplitN(text[4:], "---\n", 2)
	if len(parts) != 2 {
		t.Fatalf("unterminated front matter: %q", text)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(parts[0]), &fm); err != nil {
		t.Fatalf("front matter is not YAML: %v", err)
	}
	if fm.ID != "01NOTE" || fm.Title != "Cells" || fm.Topic != "Biology" || len(fm.Tags) != 1 {
		t.Errorf("front matter = %+v", fm)
	}
	if fm.Updated != "1970-01-01T00:01:00Z" {
		t.Errorf("Updated = %q", fm.Updated)
	}

	body := parts[1]
	for _, want := range []string{"Prophase, metaphase.", "## Summary\n\nnewest", "## Key insights\n\nins", "## Next actions\n\nact"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "older") {
		t.Error("only the latest summary should be rendered")
	}
}

func TestExportMarkdown(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()
	id := saveNote(t, database, cfg, "", "", "plain note")

	out, err := ExportMarkdown(ctx, database, cfg, MarkdownInput{Dir: dir})
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	if len(out.Files) != 1 || out.Files[0] != filepath.Join(dir, id+".md") {
		t.Fatalf("Files = %v", out.Files)
	}
	data, _ := os.ReadFile(out.Files[0])
	if !strings.Contains(string(data), "topic: "+note.UncategorizedTopic) {
		t.Errorf("markdown = %s", data)
	}

	if _, err := ExportMarkdown(ctx, database, cfg, MarkdownInput{Dir: t.TempDir()}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("disallowed dir error = %v", err)
	}
}
