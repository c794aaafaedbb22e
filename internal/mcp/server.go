package mcp

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/logger"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"note", "summary", "quiz", "text", "session"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"note_save":            {noteSaveToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteSave }},
	"note_get":             {noteGetToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteGet }},
	"note_list":            {noteListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteList }},
	"note_delete":          {noteDeleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteDelete }},
	"note_tree":            {noteTreeToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteTree }},
	"note_export":          {noteExportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteExport }},
	"note_import":          {noteImportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteImport }},
	"note_export_markdown": {noteExportMarkdownToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteExportMarkdown }},

	"summary_generate": {summaryGenerateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryGenerate }},
	"summary_digest":   {summaryDigestToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryDigest }},

	"quiz_start":    {quizStartToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizStart }},
	"quiz_answer":   {quizAnswerToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizAnswer }},
	"quiz_next":     {quizNextToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizNext }},
	"quiz_previous": {quizPreviousToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizPrevious }},
	"quiz_retake":   {quizRetakeToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizRetake }},
	"quiz_close":    {quizCloseToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizClose }},
	"quiz_current":  {quizCurrentToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizCurrent }},
	"quiz_review":   {quizReviewToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizReview }},
	"quiz_progress": {quizProgressToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizProgress }},

	"text_rewrite":          {textRewriteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextRewrite }},
	"text_translate":        {textTranslateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextTranslate }},
	"text_clean":            {textCleanToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextClean }},
	"text_detect_language":  {textDetectLanguageToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextDetectLanguage }},
	"text_extract_image":    {textExtractImageToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextExtractImage }},
	"text_transcribe_audio": {textTranscribeAudioToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextTranscribeAudio }},

	"session_record":     {sessionRecordToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionRecord }},
	"session_list":       {sessionListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList }},
	"session_stats":      {sessionStatsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionStats }},
	"session_motivation": {sessionMotivationToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionMotivation }},
	"session_prompt":     {sessionPromptToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionPrompt }},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type from a tool name ("quiz_start" → "quiz").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	sort.Strings(tools)
	return tools
}

// NewServer creates an MCP server with the FocusFlow tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are left out.
func NewServer(db *sql.DB, cfg *config.Config, assistant *ai.Assistant, log *logger.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"focusflow",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(db, cfg, assistant, log)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until the client disconnects.
func Run(db *sql.DB, cfg *config.Config, assistant *ai.Assistant, log *logger.Logger, version string) error {
	s := NewServer(db, cfg, assistant, log, version)
	return server.ServeStdio(s)
}
