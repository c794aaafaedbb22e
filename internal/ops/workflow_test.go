package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/ai/aitest"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/quiz"
	"github.com/hpungsan/focusflow/internal/summarize"
)

func workflowModel() *aitest.Stub {
	items := make([]string, quiz.QuestionsPerQuiz)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Q%d?", "options": ["a", "b", "c", "d"], "correctAnswer": %d}`, i+1, i%4)
	}
	return &aitest.Stub{Rules: []aitest.Rule{
		{Contains: "Summarize this text", Reply: "Roots of quadratics."},
		{Contains: "Extract key insights", Reply: "- the discriminant decides"},
		{Contains: "Suggest next actions", Reply: "- practice factoring"},
		{Contains: "multiple-choice questions", Reply: "[" + strings.Join(items, ",") + "]"},
		{Contains: "Rewrite this text", Reply: "Quadratic equations have two roots."},
	}}
}

// TestFullWorkflow walks one note through its lifecycle:
// save → rewrite → summarize → quiz → export → delete → import → get
func TestFullWorkflow(t *testing.T) {
	database, cfg, dir := setup(t)
	ctx := context.Background()
	assistant := ai.NewAssistant(workflowModel(), config.DefaultConfig().AI, nil)

	// 1. Save
	saved, err := SaveNote(ctx, database, cfg, SaveInput{
		Topic:   stringPtr("Math"),
		Tags:    []string{"algebra"},
		Content: stringPtr("quadratics got 2 roots"),
	})
	require.NoError(t, err)
	require.True(t, saved.Created)
	id := saved.ID

	// 2. Rewrite the whole note
	rw, err := Rewrite(ctx, database, cfg, assistant, TextInput{NoteID: id})
	require.NoError(t, err)
	require.True(t, rw.Applied)

	// 3. Summarize
	pipeline := summarize.New(database, assistant, nil)
	sum, err := pipeline.Summarize(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "- practice factoring", sum.Record.Actions)

	// 4. Quiz, answering every question correctly
	engine := quiz.NewEngine(database, assistant, nil)
	v, err := engine.Start(ctx, id)
	require.NoError(t, err)
	for i := 0; i < quiz.QuestionsPerQuiz; i++ {
		_, err = engine.Answer(id, i%4)
		require.NoError(t, err)
		v, err = engine.Next(ctx, id)
		require.NoError(t, err)
	}
	require.Equal(t, quiz.Complete, v.State)
	require.Equal(t, 100, v.Percent)

	// 5. Export
	path := filepath.Join(dir, "workflow.json")
	exp, err := Export(ctx, database, cfg, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, exp.Count)

	// 6. Delete
	_, err = DeleteNote(ctx, database, id)
	require.NoError(t, err)
	_, err = GetNote(ctx, database, id)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// 7. Import restores content, summary and quiz history
	imp, err := Import(ctx, database, cfg, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, imp.Imported)

	got, err := GetNote(ctx, database, id)
	require.NoError(t, err)
	require.Equal(t, "Quadratic equations have two roots.", got.Content)
	require.Len(t, got.Summaries, 1)
	require.Len(t, got.QuizResults, 1)
	require.Equal(t, quiz.QuestionsPerQuiz, got.QuizResults[0].Score)

	// Activities are not part of the export.
	require.Empty(t, got.Activities)

	count, err := db.CountNotes(ctx, database)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
