package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/hierarchy"
	"github.com/hpungsan/focusflow/internal/note"
)

func stringPtr(s string) *string { return &s }

// setup opens a fresh store and a config whose allowed_paths holds a temp dir.
func setup(t *testing.T) (*sql.DB, *config.Config, string) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return database, cfg, dir
}

func offline() *ai.Assistant {
	return ai.NewAssistant(ai.Offline{}, config.DefaultConfig().AI, nil)
}

func saveNote(t *testing.T, database *sql.DB, cfg *config.Config, topic, tags, content string) string {
	t.Helper()
	out, err := SaveNote(context.Background(), database, cfg, SaveInput{
		Topic:   stringPtr(topic),
		Tags:    note.ParseTags(tags),
		Content: stringPtr(content),
	})
	if err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}
	return out.ID
}

func TestSaveNote_CreateAndUpdate(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()

	created, err := SaveNote(ctx, database, cfg, SaveInput{
		Title:   stringPtr("  Quadratics "),
		Topic:   stringPtr("Math"),
		Tags:    []string{"algebra", " ", "algebra", "ch1"},
		Content: stringPtr("x^2 + 2x + 1 = 0"),
	})
	if err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}
	if !created.Created || len(created.ID) != 26 {
		t.Errorf("created = %+v, want new ULID", created)
	}

	n, err := db.GetNote(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if n.Title != "Quadratics" || n.Topic != "Math" {
		t.Errorf("Title/Topic = %q/%q", n.Title, n.Topic)
	}
	if strings.Join(n.Tags, ",") != "algebra,algebra,ch1" {
		t.Errorf("Tags = %v, want [algebra algebra ch1]", n.Tags)
	}

	// Summaries survive an update; untouched fields keep their values.
	n.Summaries = []note.SummaryRecord{{ID: "s1", Summary: "sum", Timestamp: 1}}
	if err := db.PutNote(ctx, database, n); err != nil {
		t.Fatalf("PutNote failed: %v", err)
	}

	updated, err := SaveNote(ctx, database, cfg, SaveInput{ID: created.ID, Content: stringPtr("new content")})
	if err != nil {
		t.Fatalf("SaveNote(update) failed: %v", err)
	}
	if updated.Created {
		t.Error("update reported Created")
	}
	n, _ = db.GetNote(ctx, database, created.ID)
	if n.Content != "new content" || n.Title != "Quadratics" || len(n.Tags) != 3 {
		t.Errorf("after update: %+v", n)
	}
	if len(n.Summaries) != 1 {
		t.Errorf("Summaries = %d, want 1", len(n.Summaries))
	}

	// Empty tag slice clears tags.
	if _, err := SaveNote(ctx, database, cfg, SaveInput{ID: created.ID, Tags: []string{}}); err != nil {
		t.Fatalf("SaveNote(clear tags) failed: %v", err)
	}
	n, _ = db.GetNote(ctx, database, created.ID)
	if len(n.Tags) != 0 {
		t.Errorf("Tags = %v, want none", n.Tags)
	}
}

func TestSaveNote_RepeatedTagsFormDeeperPath(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()

	id := saveNote(t, database, cfg, "Math", "algebra, algebra", "Nested")
	n, err := db.GetNote(ctx, database, id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if strings.Join(n.Tags, ",") != "algebra,algebra" {
		t.Fatalf("Tags = %v, want [algebra algebra]", n.Tags)
	}

	root := hierarchy.Build([]note.Note{*n})
	leaf := hierarchy.Find(root, "Math", "algebra", "algebra")
	if leaf == nil || len(leaf.Notes) != 1 || leaf.Notes[0].ID != id {
		t.Fatalf("note not at Math/algebra/algebra")
	}
	if mid := hierarchy.Find(root, "Math", "algebra"); len(mid.Notes) != 0 {
		t.Errorf("Math/algebra holds %d notes, want 0", len(mid.Notes))
	}
}

func TestSaveNote_Validation(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()
	cfg.NoteMaxChars = 10

	_, err := SaveNote(ctx, database, cfg, SaveInput{Content: stringPtr("  ")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank content error = %v", err)
	}

	_, err = SaveNote(ctx, database, cfg, SaveInput{Content: stringPtr("ééééééééééé")})
	if !errors.Is(err, errors.ErrNoteTooLarge) {
		t.Errorf("11 runes error = %v, want NOTE_TOO_LARGE", err)
	}
	if _, err := SaveNote(ctx, database, cfg, SaveInput{Content: stringPtr("éééééééééé")}); err != nil {
		t.Errorf("10 runes error = %v, want nil", err)
	}

	_, err = SaveNote(ctx, database, cfg, SaveInput{ID: "missing", Content: stringPtr("x")})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("update missing error = %v", err)
	}

	_, err = SaveNote(ctx, database, cfg, SaveInput{Content: stringPtr("x"), Images: []note.Image{{Name: "a.png"}}})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty image error = %v", err)
	}
}

func TestGetNote_WithActivities(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()
	id := saveNote(t, database, cfg, "", "", "first line\nsecond")

	act := &note.AIActivity{ID: "a1", NoteID: id, Timestamp: 5, Action: note.ActionRewrite, OriginalText: "x", ResultText: "y"}
	if err := db.AppendActivity(ctx, database, act); err != nil {
		t.Fatalf("AppendActivity failed: %v", err)
	}

	out, err := GetNote(ctx, database, id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if out.DisplayTitle != "first line" {
		t.Errorf("DisplayTitle = %q", out.DisplayTitle)
	}
	if len(out.Activities) != 1 || out.Activities[0].ID != "a1" {
		t.Errorf("Activities = %+v", out.Activities)
	}

	if _, err := GetNote(ctx, database, " "); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank id error = %v", err)
	}
}

func TestListNotes_FiltersAndPagination(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()
	saveNote(t, database, cfg, "Math", "algebra", "a")
	saveNote(t, database, cfg, "Math", "geometry", "b")
	saveNote(t, database, cfg, "", "", "c")

	all, err := ListNotes(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if all.Pagination.Total != 3 || len(all.Items) != 3 || all.Pagination.Limit != DefaultListLimit {
		t.Errorf("all = %+v", all.Pagination)
	}

	math, _ := ListNotes(ctx, database, ListInput{Topic: "Math", Limit: 1})
	if math.Pagination.Total != 2 || len(math.Items) != 1 || !math.Pagination.HasMore {
		t.Errorf("math page = %+v", math.Pagination)
	}

	unc, _ := ListNotes(ctx, database, ListInput{Topic: note.UncategorizedTopic})
	if len(unc.Items) != 1 || unc.Items[0].Topic != note.UncategorizedTopic {
		t.Errorf("uncategorized = %+v", unc.Items)
	}

	geo, _ := ListNotes(ctx, database, ListInput{Tag: "geometry"})
	if len(geo.Items) != 1 {
		t.Errorf("tag filter = %+v", geo.Items)
	}

	big, _ := ListNotes(ctx, database, ListInput{Limit: 1000})
	if big.Pagination.Limit != MaxListLimit {
		t.Errorf("limit = %d, want clamp to %d", big.Pagination.Limit, MaxListLimit)
	}

	if _, err := ListNotes(ctx, database, ListInput{Offset: -1}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative offset error = %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	database, cfg, _ := setup(t)
	ctx := context.Background()
	id := saveNote(t, database, cfg, "Math", "", "x")

	out, err := DeleteNote(ctx, database, id)
	if err != nil || !out.Deleted {
		t.Fatalf("DeleteNote = %+v, %v", out, err)
	}
	if _, err := DeleteNote(ctx, database, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete error = %v, want NOT_FOUND", err)
	}
}
