package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/ops"
	"github.com/hpungsan/focusflow/internal/quiz"
	"github.com/hpungsan/focusflow/internal/summarize"
)

// Handlers holds dependencies for MCP tool handlers. The summarization
// pipeline and quiz engine live for the whole server so their per-note
// locks and attempts are shared across calls.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	assistant *ai.Assistant
	log       *logger.Logger
	summaries *summarize.Pipeline
	quizzes   *quiz.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg *config.Config, assistant *ai.Assistant, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	if assistant == nil {
		assistant = ai.NewAssistant(ai.Offline{}, cfg.AI, log)
	}
	return &Handlers{
		db:        database,
		cfg:       cfg,
		assistant: assistant,
		log:       log.With("component", "mcp"),
		summaries: summarize.New(database, assistant, log),
		quizzes:   quiz.NewEngine(database, assistant, log),
	}
}

// Request types

// NoteSaveRequest represents the arguments for note_save.
type NoteSaveRequest struct {
	ID      string    `json:"id,omitempty"`
	Title   *string   `json:"title,omitempty"`
	Topic   *string   `json:"topic,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Content *string   `json:"content,omitempty"`
}

// IDRequest is shared by every tool addressing a single note.
type IDRequest struct {
	ID string `json:"id"`
}

// FilterRequest narrows a tool to one topic or tag.
type FilterRequest struct {
	Topic string `json:"topic,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// NoteListRequest represents the arguments for note_list.
type NoteListRequest struct {
	FilterRequest
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// NoteTreeRequest represents the arguments for note_tree.
type NoteTreeRequest struct {
	FilterRequest
	PNGPath string `json:"png_path,omitempty"`
}

// NoteExportRequest represents the arguments for note_export.
type NoteExportRequest struct {
	FilterRequest
	Path string `json:"path,omitempty"`
}

// NoteImportRequest represents the arguments for note_import.
type NoteImportRequest struct {
	Path string `json:"path"`
}

// NoteExportMarkdownRequest represents the arguments for note_export_markdown.
type NoteExportMarkdownRequest struct {
	FilterRequest
	Dir string `json:"dir,omitempty"`
}

// SummaryGenerateRequest represents the arguments for summary_generate.
type SummaryGenerateRequest struct {
	ID    string `json:"id"`
	Force bool   `json:"force,omitempty"`
}

// QuizAnswerRequest represents the arguments for quiz_answer.
type QuizAnswerRequest struct {
	ID     string `json:"id"`
	Option *int   `json:"option"`
}

// QuizReviewRequest represents the arguments for quiz_review.
type QuizReviewRequest struct {
	ID       string `json:"id"`
	ResultID string `json:"result_id"`
}

// TextRequest represents the arguments for the text_* tools.
type TextRequest struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Language string `json:"language,omitempty"`
}

// UploadRequest represents the arguments for text_extract_image and
// text_transcribe_audio.
type UploadRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Data string `json:"data"`
}

// SessionRecordRequest represents the arguments for session_record.
type SessionRecordRequest struct {
	Duration int    `json:"duration"`
	Notes    string `json:"notes,omitempty"`
	Motivate bool   `json:"motivate,omitempty"`
}

// SessionListRequest represents the arguments for session_list.
type SessionListRequest struct {
	Since int64 `json:"since,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

// SessionPromptRequest represents the arguments for session_prompt.
type SessionPromptRequest struct {
	Kind string `json:"kind,omitempty"`
}

// Note handlers

// HandleNoteSave handles the note_save tool call.
func (h *Handlers) HandleNoteSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var tags []string
	if input.Tags != nil {
		tags = *input.Tags
		if tags == nil {
			tags = []string{}
		}
	}
	return respond(ops.SaveNote(ctx, h.db, h.cfg, ops.SaveInput{
		ID:      input.ID,
		Title:   input.Title,
		Topic:   input.Topic,
		Tags:    tags,
		Content: input.Content,
	}))
}

// HandleNoteGet handles the note_get tool call.
func (h *Handlers) HandleNoteGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.GetNote(ctx, h.db, input.ID))
}

// HandleNoteList handles the note_list tool call.
func (h *Handlers) HandleNoteList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ListNotes(ctx, h.db, ops.ListInput{
		Topic:  input.Topic,
		Tag:    input.Tag,
		Limit:  input.Limit,
		Offset: input.Offset,
	}))
}

// HandleNoteDelete handles the note_delete tool call. Any quiz attempt on the
// note is closed first.
func (h *Handlers) HandleNoteDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.DeleteNote(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	_, _ = h.quizzes.Close(input.ID)
	return successResult(result)
}

// HandleNoteTree handles the note_tree tool call.
func (h *Handlers) HandleNoteTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteTreeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Tree(ctx, h.db, h.cfg, ops.TreeInput{
		Topic:   input.Topic,
		Tag:     input.Tag,
		PNGPath: input.PNGPath,
	}))
}

// HandleNoteExport handles the note_export tool call.
func (h *Handlers) HandleNoteExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:  input.Path,
		Topic: input.Topic,
		Tag:   input.Tag,
	}))
}

// HandleNoteImport handles the note_import tool call.
func (h *Handlers) HandleNoteImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Import(ctx, h.db, h.cfg, ops.ImportInput{Path: input.Path}))
}

// HandleNoteExportMarkdown handles the note_export_markdown tool call.
func (h *Handlers) HandleNoteExportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteExportMarkdownRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ExportMarkdown(ctx, h.db, h.cfg, ops.MarkdownInput{
		Dir:   input.Dir,
		Topic: input.Topic,
		Tag:   input.Tag,
	}))
}

// Summary handlers

// HandleSummaryGenerate handles the summary_generate tool call.
func (h *Handlers) HandleSummaryGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryGenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Force {
		return respond(h.summaries.ForceRegenerate(ctx, input.ID))
	}
	return respond(h.summaries.Summarize(ctx, input.ID))
}

// HandleSummaryDigest handles the summary_digest tool call.
func (h *Handlers) HandleSummaryDigest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.summaries.SummarizeAll(ctx, db.ListFilters{Topic: input.Topic, Tag: input.Tag}))
}

// Quiz handlers

// HandleQuizStart handles the quiz_start tool call.
func (h *Handlers) HandleQuizStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.quizzes.Start(ctx, input.ID))
}

// HandleQuizAnswer handles the quiz_answer tool call.
func (h *Handlers) HandleQuizAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizAnswerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Option == nil {
		return errorResult(errors.NewInvalidRequest("option is required")), nil
	}
	return respond(h.quizzes.Answer(input.ID, *input.Option))
}

// HandleQuizNext handles the quiz_next tool call.
func (h *Handlers) HandleQuizNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.quizzes.Next(ctx, input.ID))
}

// HandleQuizPrevious handles the quiz_previous tool call.
func (h *Handlers) HandleQuizPrevious(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.quizzes.Previous(input.ID))
}

// HandleQuizRetake handles the quiz_retake tool call.
func (h *Handlers) HandleQuizRetake(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.quizzes.Retake(ctx, input.ID))
}

// HandleQuizClose handles the quiz_close tool call.
func (h *Handlers) HandleQuizClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.quizzes.Close(input.ID))
}

// HandleQuizCurrent handles the quiz_current tool call.
func (h *Handlers) HandleQuizCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	return successResult(h.quizzes.Current(input.ID))
}

// HandleQuizReview handles the quiz_review tool call.
func (h *Handlers) HandleQuizReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizReviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.QuizReview(ctx, h.db, input.ID, input.ResultID))
}

// HandleQuizProgress handles the quiz_progress tool call.
func (h *Handlers) HandleQuizProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.QuizProgress(ctx, h.db, input.ID))
}

// Text handlers

func (h *Handlers) textInput(req mcp.CallToolRequest) (ops.TextInput, error) {
	input, err := decode[TextRequest](req)
	if err != nil {
		return ops.TextInput{}, errors.NewInvalidRequest(err.Error())
	}
	return ops.TextInput{NoteID: input.ID, Text: input.Text, Tone: input.Tone, Language: input.Language}, nil
}

// HandleTextRewrite handles the text_rewrite tool call.
func (h *Handlers) HandleTextRewrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.textInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Rewrite(ctx, h.db, h.cfg, h.assistant, input))
}

// HandleTextTranslate handles the text_translate tool call.
func (h *Handlers) HandleTextTranslate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.textInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Translate(ctx, h.db, h.cfg, h.assistant, input))
}

// HandleTextClean handles the text_clean tool call.
func (h *Handlers) HandleTextClean(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.textInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.Clean(ctx, h.db, h.cfg, h.assistant, input))
}

// HandleTextDetectLanguage handles the text_detect_language tool call.
func (h *Handlers) HandleTextDetectLanguage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.textInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DetectLanguage(ctx, h.db, h.assistant, input))
}

func (h *Handlers) mediaInput(req mcp.CallToolRequest) (ops.MediaInput, error) {
	input, err := decode[UploadRequest](req)
	if err != nil {
		return ops.MediaInput{}, errors.NewInvalidRequest(err.Error())
	}
	data, err := decodeUpload(input.Data)
	if err != nil {
		return ops.MediaInput{}, err
	}
	return ops.MediaInput{NoteID: input.ID, Name: input.Name, Data: data}, nil
}

// HandleTextExtractImage handles the text_extract_image tool call.
func (h *Handlers) HandleTextExtractImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.mediaInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.ExtractImage(ctx, h.db, h.cfg, h.assistant, input))
}

// HandleTextTranscribeAudio handles the text_transcribe_audio tool call.
func (h *Handlers) HandleTextTranscribeAudio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := h.mediaInput(req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.TranscribeAudio(ctx, h.db, h.cfg, h.assistant, input))
}

// Session handlers

// HandleSessionRecord handles the session_record tool call.
func (h *Handlers) HandleSessionRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.RecordSession(ctx, h.db, h.assistant, ops.SessionInput{
		Duration: input.Duration,
		Notes:    input.Notes,
		Motivate: input.Motivate,
	}))
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ListSessions(ctx, h.db, ops.SessionsInput{Since: input.Since, Limit: input.Limit}))
}

// HandleSessionStats handles the session_stats tool call.
func (h *Handlers) HandleSessionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.SessionStats(ctx, h.db, time.Now()))
}

// HandleSessionMotivation handles the session_motivation tool call.
func (h *Handlers) HandleSessionMotivation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.Motivation(ctx, h.db, h.assistant))
}

// HandleSessionPrompt handles the session_prompt tool call.
func (h *Handlers) HandleSessionPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionPromptRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.DailyPrompt(ctx, h.assistant, input.Kind))
}

// Result helpers

// respond turns an operation's (result, error) pair into a tool result.
func respond[T any](result T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error, with IsError set.
// Details of INTERNAL errors are never exposed since they can carry file
// paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if fErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    fErr.Code,
			"message": fErr.Message,
			"status":  fErr.Status,
		}
		if fErr.Code != errors.ErrInternal && fErr.Details != nil {
			errorObj["details"] = fErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
