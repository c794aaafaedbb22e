package quiz

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/note"
)

// attempt is one live quiz on a note.
type attempt struct {
	noteID    string
	actions   string
	state     State
	questions []note.Question
	index     int
	answers   map[string]int
	result    *note.QuizResult

	// cancel stops the generation call while state is Generating.
	cancel context.CancelFunc
}

// QuestionView is a question as shown to the user, without its answer key.
type QuestionView struct {
	ID       string   `json:"id"`
	Number   int      `json:"number"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Selected int      `json:"selected"`
}

// View is a snapshot of a note's quiz.
type View struct {
	NoteID   string           `json:"note_id"`
	State    State            `json:"state"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Answered int              `json:"answered"`
	Question *QuestionView    `json:"question,omitempty"`
	Result   *note.QuizResult `json:"result,omitempty"`
	Percent  int              `json:"percent,omitempty"`
	Band     Band             `json:"band,omitempty"`
}

// Engine keeps at most one live attempt per note.
type Engine struct {
	db        *sql.DB
	assistant *ai.Assistant
	log       *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	attempts map[string]*attempt
}

// NewEngine builds an Engine.
func NewEngine(database *sql.DB, assistant *ai.Assistant, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		db:        database,
		assistant: assistant,
		log:       log.With("component", "quiz"),
		now:       time.Now,
		attempts:  make(map[string]*attempt),
	}
}

// Start generates a quiz from the note's latest action items. A Start while
// an earlier generation for the same note is running cancels that one.
func (e *Engine) Start(ctx context.Context, noteID string) (*View, error) {
	if strings.TrimSpace(noteID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	n, err := db.GetNote(ctx, e.db, noteID)
	if err != nil {
		return nil, err
	}
	latest := n.LatestSummary()
	if latest == nil || strings.TrimSpace(latest.Actions) == "" {
		return nil, errors.NewInvalidRequest("note has no action items; summarize it first")
	}

	e.mu.Lock()
	state := Idle
	if prev := e.attempts[noteID]; prev != nil {
		state = prev.state
	}
	if _, err := Transition(state, EventStart); err != nil {
		e.mu.Unlock()
		return nil, errors.NewIllegalState(state.String(), "start a quiz")
	}
	a, genCtx := e.beginLocked(ctx, noteID, latest.Actions)
	e.mu.Unlock()

	return e.generate(genCtx, a)
}

// Retake discards a completed attempt and generates new questions from the
// same action items.
func (e *Engine) Retake(ctx context.Context, noteID string) (*View, error) {
	e.mu.Lock()
	prev := e.attempts[noteID]
	state := Idle
	if prev != nil {
		state = prev.state
	}
	if _, err := Transition(state, EventRetake); err != nil {
		e.mu.Unlock()
		return nil, errors.NewIllegalState(state.String(), "retake")
	}
	a, genCtx := e.beginLocked(ctx, noteID, prev.actions)
	e.mu.Unlock()

	return e.generate(genCtx, a)
}

// beginLocked replaces any attempt on noteID with a new Generating one.
func (e *Engine) beginLocked(ctx context.Context, noteID, actions string) (*attempt, context.Context) {
	if prev := e.attempts[noteID]; prev != nil && prev.cancel != nil {
		prev.cancel()
	}
	genCtx, cancel := context.WithCancel(ctx)
	a := &attempt{noteID: noteID, actions: actions, state: Generating, cancel: cancel}
	e.attempts[noteID] = a
	return a, genCtx
}

func (e *Engine) generate(ctx context.Context, a *attempt) (*View, error) {
	text, err := e.assistant.Ask(ctx, systemQuiz, quizPrompt(a.actions))
	var questions []note.Question
	if err == nil {
		questions, err = ParseQuestions(text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	a.cancel()
	a.cancel = nil

	if e.attempts[a.noteID] != a {
		// Superseded or closed while the model was answering.
		return nil, errors.NewCancelled("quiz generation")
	}

	if err != nil {
		a.state, _ = Transition(a.state, EventGenerateFailed)
		delete(e.attempts, a.noteID)
		if stderrors.Is(err, context.Canceled) {
			return nil, errors.NewCancelled("quiz generation")
		}
		e.log.Warn("quiz generation failed", "note_id", a.noteID, "error", err)
		return nil, errors.NewQuizUnavailable(unavailableReason(err))
	}

	a.state, _ = Transition(a.state, EventGenerated)
	a.questions = questions
	a.index = 0
	a.answers = make(map[string]int, len(questions))
	e.log.Debug("quiz ready", "note_id", a.noteID, "questions", len(questions))
	return a.view(), nil
}

func unavailableReason(err error) string {
	switch {
	case stderrors.Is(err, ai.ErrUnavailable):
		return "model offline"
	case stderrors.Is(err, ai.ErrMalformedOutput):
		return "model answer was not a valid quiz"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "model timed out"
	default:
		return "model request failed"
	}
}

// Answer records option for the current question. Answers can be changed
// until the quiz is finished.
func (e *Engine) Answer(noteID string, option int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.stepLocked(noteID, EventAnswer, "answer")
	if err != nil {
		return nil, err
	}
	if option < 0 || option >= note.OptionsPerQuestion {
		return nil, errors.NewInvalidRequest("option must be between 0 and 3")
	}
	a.answers[a.questions[a.index].ID] = option
	return a.view(), nil
}

// Next moves to the following question. On the last question it scores the
// attempt and stores the result on the note. The store write runs without
// the engine lock; the attempt sits in Scoring meanwhile, which rejects every
// other action on that note.
func (e *Engine) Next(ctx context.Context, noteID string) (*View, error) {
	e.mu.Lock()
	a, err := e.stepLocked(noteID, EventNext, "go to the next question")
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if _, ok := a.answers[a.questions[a.index].ID]; !ok {
		e.mu.Unlock()
		return nil, errors.NewInvalidRequest("answer the current question first")
	}
	if a.index < len(a.questions)-1 {
		a.index++
		v := a.view()
		e.mu.Unlock()
		return v, nil
	}
	a.state, _ = Transition(a.state, EventFinish)
	res := note.QuizResult{
		ID:             uuid.NewString(),
		Score:          Score(a.questions, a.answers),
		TotalQuestions: len(a.questions),
		Timestamp:      e.now().Unix(),
		Questions:      Grade(a.questions, a.answers),
	}
	e.mu.Unlock()

	err = e.persist(ctx, noteID, res)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempts[noteID] != a || a.state != Scoring {
		return nil, errors.NewCancelled("quiz scoring")
	}
	if err != nil {
		// Back to the last question so the user can finish again.
		a.state = InProgress
		return nil, err
	}
	a.result = &res
	a.state, _ = Transition(a.state, EventScored)
	e.log.Info("quiz scored", "note_id", noteID, "score", res.Score, "total", res.TotalQuestions)
	return a.view(), nil
}

// persist prepends res to the note's quiz history.
func (e *Engine) persist(ctx context.Context, noteID string, res note.QuizResult) error {
	n, err := db.GetNote(ctx, e.db, noteID)
	if err != nil {
		return err
	}
	note.PrependQuizResult(n, res)
	n.UpdatedAt = res.Timestamp
	return db.PutNote(ctx, e.db, n)
}

// Previous moves back one question.
func (e *Engine) Previous(noteID string) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.stepLocked(noteID, EventPrevious, "go to the previous question")
	if err != nil {
		return nil, err
	}
	if a.index == 0 {
		return nil, errors.NewInvalidRequest("already at the first question")
	}
	a.index--
	return a.view(), nil
}

// Close abandons the note's attempt, cancelling a running generation.
// Closing a note with no attempt is a no-op.
func (e *Engine) Close(noteID string) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.attempts[noteID]
	if a == nil {
		return &View{NoteID: noteID, State: Idle}, nil
	}
	next, err := Transition(a.state, EventClose)
	if err != nil {
		return nil, errors.NewIllegalState(a.state.String(), "close")
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.state = next
	delete(e.attempts, noteID)
	return &View{NoteID: noteID, State: Idle}, nil
}

// Current returns the note's live attempt, or an Idle view.
func (e *Engine) Current(noteID string) *View {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a := e.attempts[noteID]; a != nil {
		return a.view()
	}
	return &View{NoteID: noteID, State: Idle}
}

func (e *Engine) stepLocked(noteID string, ev Event, action string) (*attempt, error) {
	a := e.attempts[noteID]
	state := Idle
	if a != nil {
		state = a.state
	}
	if _, err := Transition(state, ev); err != nil {
		return nil, errors.NewIllegalState(state.String(), action)
	}
	return a, nil
}

func (a *attempt) view() *View {
	v := &View{
		NoteID:   a.noteID,
		State:    a.state,
		Index:    a.index,
		Total:    len(a.questions),
		Answered: len(a.answers),
	}
	if a.state == InProgress && a.index < len(a.questions) {
		q := a.questions[a.index]
		v.Question = &QuestionView{
			ID:       q.ID,
			Number:   a.index + 1,
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
			Selected: answerFor(a.answers, q),
		}
	}
	if a.result != nil {
		v.Result = a.result
		v.Percent = a.result.Percent()
		v.Band = BandFor(v.Percent)
	}
	return v
}
