package summarize

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/ai/aitest"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/note"
)

func setup(t *testing.T, model ai.Model) (*sql.DB, *Pipeline) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	p := New(database, ai.NewAssistant(model, config.DefaultConfig().AI, nil), nil)
	return database, p
}

func putNote(t *testing.T, database *sql.DB, id, content string) {
	t.Helper()
	n := &note.Note{ID: id, Topic: "Math", Content: content, CreatedAt: 1, UpdatedAt: 1}
	if err := db.PutNote(context.Background(), database, n); err != nil {
		t.Fatalf("PutNote() error = %v", err)
	}
}

func scripted() *aitest.Stub {
	return &aitest.Stub{Rules: []aitest.Rule{
		{Contains: "Summarize this text", Reply: "the summary"},
		{Contains: "Extract key insights", Reply: "- insight"},
		{Contains: "Suggest next actions", Reply: "- action"},
	}}
}

func TestSummarize_CacheMissThenHit(t *testing.T) {
	stub := scripted()
	database, p := setup(t, stub)
	putNote(t, database, "n1", "Quadratic equations have two roots.")
	ctx := context.Background()

	first, err := p.Summarize(ctx, "n1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if first.Cached {
		t.Error("first call reported Cached")
	}
	if first.Record.Summary != "the summary" || first.Record.Insights != "- insight" || first.Record.Actions != "- action" {
		t.Errorf("record = %+v", first.Record)
	}
	if stub.Calls() != 3 {
		t.Fatalf("model calls = %d, want 3", stub.Calls())
	}

	second, err := p.Summarize(ctx, "n1")
	if err != nil {
		t.Fatalf("second Summarize() error = %v", err)
	}
	if !second.Cached || second.Record.ID != first.Record.ID {
		t.Errorf("second = %+v, want cached copy of first", second)
	}
	if stub.Calls() != 3 {
		t.Errorf("model calls after cache hit = %d, want 3", stub.Calls())
	}

	stored, err := db.GetNote(ctx, database, "n1")
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if len(stored.Summaries) != 1 {
		t.Errorf("stored summaries = %d, want 1", len(stored.Summaries))
	}
}

func TestSummarize_ContentEditDoesNotInvalidate(t *testing.T) {
	stub := scripted()
	database, p := setup(t, stub)
	putNote(t, database, "n1", "v1")
	ctx := context.Background()

	if _, err := p.Summarize(ctx, "n1"); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	n, _ := db.GetNote(ctx, database, "n1")
	n.Content = "v2 completely different"
	if err := db.PutNote(ctx, database, n); err != nil {
		t.Fatalf("PutNote() error = %v", err)
	}

	res, err := p.Summarize(ctx, "n1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !res.Cached {
		t.Error("edit invalidated the cached summary")
	}
}

func TestForceRegenerate_CapsAtFive(t *testing.T) {
	stub := scripted()
	database, p := setup(t, stub)
	putNote(t, database, "n1", "content")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 7; i++ {
		p.now = func() time.Time { return time.Unix(int64(100+i), 0) }
		res, err := p.ForceRegenerate(ctx, "n1")
		if err != nil {
			t.Fatalf("ForceRegenerate() #%d error = %v", i, err)
		}
		if res.Cached {
			t.Errorf("ForceRegenerate() #%d returned cached", i)
		}
		ids = append(ids, res.Record.ID)
	}
	if stub.Calls() != 21 {
		t.Errorf("model calls = %d, want 21", stub.Calls())
	}

	n, err := db.GetNote(ctx, database, "n1")
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if len(n.Summaries) != note.MaxSummaries {
		t.Fatalf("summaries = %d, want %d", len(n.Summaries), note.MaxSummaries)
	}
	for i := 0; i < note.MaxSummaries; i++ {
		if n.Summaries[i].ID != ids[6-i] {
			t.Errorf("Summaries[%d] = %s, want %s", i, n.Summaries[i].ID, ids[6-i])
		}
	}
	if n.UpdatedAt != 106 {
		t.Errorf("UpdatedAt = %d, want 106", n.UpdatedAt)
	}
}

func TestSummarize_PartialFailureDegradesOneField(t *testing.T) {
	stub := &aitest.Stub{Rules: []aitest.Rule{
		{Contains: "Summarize this text", Reply: "the summary"},
		{Contains: "Extract key insights", Fail: true},
		{Contains: "Suggest next actions", Reply: "- action"},
	}}
	database, p := setup(t, stub)
	putNote(t, database, "n1", "content")

	res, err := p.Summarize(context.Background(), "n1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if res.Record.Summary != "the summary" || res.Record.Actions != "- action" {
		t.Errorf("record = %+v", res.Record)
	}
	if res.Record.Insights != ai.FallbackPrompt {
		t.Errorf("Insights = %q, want fallback", res.Record.Insights)
	}
}

func TestSummarize_Offline(t *testing.T) {
	database, p := setup(t, ai.Offline{})
	content := strings.Repeat("abc ", 40)
	putNote(t, database, "n1", content)

	res, err := p.Summarize(context.Background(), "n1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if res.Record.Summary != ai.SummaryFallback(content) {
		t.Errorf("Summary = %q", res.Record.Summary)
	}
	if res.Record.Actions != ai.FallbackPrompt {
		t.Errorf("Actions = %q", res.Record.Actions)
	}
}

func TestSummarize_ConcurrentCallsGenerateOnce(t *testing.T) {
	stub := scripted()
	database, p := setup(t, stub)
	putNote(t, database, "n1", "content")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Summarize(context.Background(), "n1"); err != nil {
				t.Errorf("Summarize() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if stub.Calls() != 3 {
		t.Errorf("model calls = %d, want 3", stub.Calls())
	}
	if n := lockEntries(p); n != 0 {
		t.Errorf("lock entries = %d after all callers returned, want 0", n)
	}
}

func lockEntries(p *Pipeline) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

func TestSummarize_LockReleasedForManyNotes(t *testing.T) {
	database, p := setup(t, scripted())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("n%d", i)
		putNote(t, database, id, "content")
		if _, err := p.Summarize(ctx, id); err != nil {
			t.Fatalf("Summarize(%s) error = %v", id, err)
		}
	}
	if _, err := p.Summarize(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("missing note error = %v", err)
	}
	if n := lockEntries(p); n != 0 {
		t.Errorf("lock entries = %d, want 0", n)
	}
}

func TestSummarize_Errors(t *testing.T) {
	database, p := setup(t, scripted())
	ctx := context.Background()

	if _, err := p.Summarize(ctx, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty id error = %v", err)
	}
	if _, err := p.Summarize(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing note error = %v", err)
	}
	putNote(t, database, "blank", "   ")
	if _, err := p.Summarize(ctx, "blank"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank content error = %v", err)
	}
}

func TestSummarizeAll(t *testing.T) {
	stub := scripted()
	database, p := setup(t, stub)
	for i := 0; i < 3; i++ {
		putNote(t, database, fmt.Sprintf("n%d", i), fmt.Sprintf("note %d", i))
	}

	res, err := p.SummarizeAll(context.Background(), db.ListFilters{})
	if err != nil {
		t.Fatalf("SummarizeAll() error = %v", err)
	}
	if res.Notes != 3 || res.Persisted {
		t.Errorf("result = %+v", res)
	}
	found := false
	for _, prompt := range stub.Prompts() {
		if strings.HasPrefix(prompt, "Extract key insights from today's notes: ") && strings.HasSuffix(prompt, "note 2\n\nnote 1\n\nnote 0") {
			found = true
		}
	}
	if !found {
		t.Errorf("digest prompt not issued; prompts = %q", stub.Prompts())
	}

	n, _ := db.GetNote(context.Background(), database, "n0")
	if len(n.Summaries) != 0 {
		t.Error("digest was stored on a note")
	}
}
