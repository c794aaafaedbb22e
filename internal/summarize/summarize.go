// Package summarize produces and caches per-note summaries with key insights
// and action items.
package summarize

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/note"
)

// Result is what callers see for a note's summary.
type Result struct {
	NoteID    string             `json:"note_id,omitempty"`
	Record    note.SummaryRecord `json:"record"`
	Cached    bool               `json:"cached"`
	Persisted bool               `json:"persisted"`

	// Notes is the number of notes folded into a digest.
	Notes int `json:"notes,omitempty"`
}

// Pipeline runs the three model calls and owns the summary cache policy:
// a stored summary is reused until the user forces a new one.
type Pipeline struct {
	db        *sql.DB
	assistant *ai.Assistant
	log       *logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*noteLock
}

// noteLock serializes work on one note. refs counts holders and waiters; the
// entry leaves the map when it drops to zero.
type noteLock struct {
	mu   sync.Mutex
	refs int
}

// New builds a Pipeline.
func New(database *sql.DB, assistant *ai.Assistant, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		db:        database,
		assistant: assistant,
		log:       log.With("component", "summarize"),
		now:       time.Now,
		locks:     make(map[string]*noteLock),
	}
}

// Summarize returns the note's most recent summary, generating one only
// when none is stored.
func (p *Pipeline) Summarize(ctx context.Context, noteID string) (*Result, error) {
	return p.run(ctx, noteID, false)
}

// ForceRegenerate always generates a fresh summary.
func (p *Pipeline) ForceRegenerate(ctx context.Context, noteID string) (*Result, error) {
	return p.run(ctx, noteID, true)
}

func (p *Pipeline) run(ctx context.Context, noteID string, force bool) (*Result, error) {
	if strings.TrimSpace(noteID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	// One generation per note at a time, so two callers cannot both miss the cache.
	defer p.lockNote(noteID)()

	n, err := db.GetNote(ctx, p.db, noteID)
	if err != nil {
		return nil, err
	}

	if !force {
		if latest := n.LatestSummary(); latest != nil {
			return &Result{NoteID: n.ID, Record: *latest, Cached: true, Persisted: true}, nil
		}
	}

	if strings.TrimSpace(n.Content) == "" {
		return nil, errors.NewInvalidRequest("note has no content to summarize")
	}

	rec, err := p.generate(ctx, n.Content, "")
	if err != nil {
		return nil, err
	}

	note.PrependSummary(n, rec)
	n.UpdatedAt = rec.Timestamp
	if err := db.PutNote(ctx, p.db, n); err != nil {
		return nil, err
	}

	p.log.Info("summary stored", "note_id", n.ID, "forced", force, "kept", len(n.Summaries))
	return &Result{NoteID: n.ID, Record: rec, Persisted: true}, nil
}

// SummarizeAll digests every note's content in one pass. The digest is not
// stored on any note.
func (p *Pipeline) SummarizeAll(ctx context.Context, filters db.ListFilters) (*Result, error) {
	notes, _, err := db.ListNotes(ctx, p.db, filters, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, errors.NewInvalidRequest("no notes to summarize")
	}

	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		if strings.TrimSpace(n.Content) != "" {
			parts = append(parts, n.Content)
		}
	}
	rec, err := p.generate(ctx, strings.Join(parts, "\n\n"), "today's notes")
	if err != nil {
		return nil, err
	}
	return &Result{Record: rec, Notes: len(notes)}, nil
}

// generate issues the summary, insights and actions calls concurrently.
// Each call degrades to its own fallback; none aborts the others.
func (p *Pipeline) generate(ctx context.Context, content, scope string) (note.SummaryRecord, error) {
	insightsPrompt := "Extract key insights from: " + content
	actionsPrompt := "Suggest next actions based on: " + content
	if scope != "" {
		insightsPrompt = "Extract key insights from " + scope + ": " + content
		actionsPrompt = "Suggest next actions based on " + scope + ": " + content
	}

	var summary, insights, actions string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = p.assistant.Summarize(gctx, content)
		return nil
	})
	g.Go(func() error {
		insights = p.assistant.Generate(gctx, insightsPrompt)
		return nil
	})
	g.Go(func() error {
		actions = p.assistant.Generate(gctx, actionsPrompt)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return note.SummaryRecord{}, errors.NewCancelled("summarize")
	}

	return note.SummaryRecord{
		ID:        uuid.NewString(),
		Summary:   summary,
		Insights:  insights,
		Actions:   actions,
		Timestamp: p.now().Unix(),
	}, nil
}

// lockNote blocks until the caller holds the note's lock and returns the
// matching unlock.
func (p *Pipeline) lockNote(id string) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &noteLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}
