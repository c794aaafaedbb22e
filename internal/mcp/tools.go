package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Note tools

var noteSaveToolDef = mcp.NewTool("note_save",
	mcp.WithDescription("Create a note, or update an existing one when id is given. Omitted fields are left unchanged; tags: [] clears tags."),
	mcp.WithString("id", mcp.Description("Note id to update; omit to create")),
	mcp.WithString("title", mcp.Description("Optional title; the first content line is shown when empty")),
	mcp.WithString("topic", mcp.Description("Top-level bucket in the hierarchy")),
	mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Ordered sub-buckets below the topic")),
	mcp.WithString("content", mcp.Description("Note body; required on create")),
)

var noteGetToolDef = mcp.NewTool("note_get",
	mcp.WithDescription("Get a note with its summaries, quiz results and AI activity log."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var noteListToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List notes, most recently updated first, without content."),
	mcp.WithString("topic", mcp.Description("Only notes in this topic")),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var noteDeleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Permanently delete a note and its activity log."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var noteTreeToolDef = mcp.NewTool("note_tree",
	mcp.WithDescription("Build the topic/tag hierarchy as an outline and a laid-out graph, optionally rendering a PNG."),
	mcp.WithString("topic", mcp.Description("Only notes in this topic")),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
	mcp.WithString("png_path", mcp.Description("Write the graph as a .png file in an allowed directory")),
)

var noteExportToolDef = mcp.NewTool("note_export",
	mcp.WithDescription("Export notes with their summaries and quiz results to a JSON document."),
	mcp.WithString("path", mcp.Description("Destination .json file (default ~/.focusflow/exports/notes-<timestamp>.json)")),
	mcp.WithString("topic", mcp.Description("Only notes in this topic")),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
)

var noteImportToolDef = mcp.NewTool("note_import",
	mcp.WithDescription("Import one or more export documents. Notes with an existing id are overwritten."),
	mcp.WithString("path", mcp.Required(), mcp.Description("A .json file or a glob such as ~/.focusflow/exports/notes-*.json")),
)

var noteExportMarkdownToolDef = mcp.NewTool("note_export_markdown",
	mcp.WithDescription("Write each note as <id>.md with YAML front matter."),
	mcp.WithString("dir", mcp.Description("Destination directory (default ~/.focusflow/exports)")),
	mcp.WithString("topic", mcp.Description("Only notes in this topic")),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
)

// Summary tools

var summaryGenerateToolDef = mcp.NewTool("summary_generate",
	mcp.WithDescription("Summarize a note into summary, key insights and next actions. The stored summary is returned unless force is set."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithBoolean("force", mcp.Description("Generate a new summary even when one is stored")),
)

var summaryDigestToolDef = mcp.NewTool("summary_digest",
	mcp.WithDescription("Summarize all matching notes together. The digest is not stored."),
	mcp.WithString("topic", mcp.Description("Only notes in this topic")),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
)

// Quiz tools

var quizStartToolDef = mcp.NewTool("quiz_start",
	mcp.WithDescription("Generate a 5-question quiz from the note's latest next actions and show the first question."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var quizAnswerToolDef = mcp.NewTool("quiz_answer",
	mcp.WithDescription("Select an option for the current question."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithNumber("option", mcp.Required(), mcp.Description("Option index 0-3")),
)

var quizNextToolDef = mcp.NewTool("quiz_next",
	mcp.WithDescription("Move to the next question. On the last question the quiz is scored and saved."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var quizPreviousToolDef = mcp.NewTool("quiz_previous",
	mcp.WithDescription("Move back one question, keeping answers."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var quizRetakeToolDef = mcp.NewTool("quiz_retake",
	mcp.WithDescription("Generate a fresh quiz after completing one."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var quizCloseToolDef = mcp.NewTool("quiz_close",
	mcp.WithDescription("Abandon the current quiz attempt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var quizCurrentToolDef = mcp.NewTool("quiz_current",
	mcp.WithDescription("Show the state of the note's quiz attempt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var quizReviewToolDef = mcp.NewTool("quiz_review",
	mcp.WithDescription("Show a stored quiz result with the correct and chosen answers."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithString("result_id", mcp.Required(), mcp.Description("Quiz result id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var quizProgressToolDef = mcp.NewTool("quiz_progress",
	mcp.WithDescription("Average, best and latest quiz scores for a note, with a trend."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

// Text tools

var textRewriteToolDef = mcp.NewTool("text_rewrite",
	mcp.WithDescription("Rewrite text in a tone. With id the note (or the selected text inside it) is updated in place."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("text", mcp.Description("Free text, or a selection that appears in the note")),
	mcp.WithString("tone", mcp.Description("Target tone (default professional)")),
)

var textTranslateToolDef = mcp.NewTool("text_translate",
	mcp.WithDescription("Translate text. With id the note (or the selected text inside it) is updated in place."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("text", mcp.Description("Free text, or a selection that appears in the note")),
	mcp.WithString("language", mcp.Required(), mcp.Description("Target language code"),
		mcp.Enum("en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh")),
)

var textCleanToolDef = mcp.NewTool("text_clean",
	mcp.WithDescription("Clean pasted or OCR text: entities decoded, notation tidied."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("text", mcp.Description("Free text, or a selection that appears in the note")),
)

var textDetectLanguageToolDef = mcp.NewTool("text_detect_language",
	mcp.WithDescription("Guess the language of text longer than 20 characters."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("text", mcp.Description("Free text, or a selection that appears in the note")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var textExtractImageToolDef = mcp.NewTool("text_extract_image",
	mcp.WithDescription("Extract text from an image. With id the image is attached and the text appended to the note."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("name", mcp.Description("File name shown in the note")),
	mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded image")),
)

var textTranscribeAudioToolDef = mcp.NewTool("text_transcribe_audio",
	mcp.WithDescription("Transcribe a recording. With id the transcript is appended to the note."),
	mcp.WithString("id", mcp.Description("Note id")),
	mcp.WithString("name", mcp.Description("File name, used to pick the audio format")),
	mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded audio")),
)

// Session tools

var sessionRecordToolDef = mcp.NewTool("session_record",
	mcp.WithDescription("Record a completed focus session."),
	mcp.WithNumber("duration", mcp.Required(), mcp.Description("Length in seconds")),
	mcp.WithString("notes", mcp.Description("What the session was spent on")),
	mcp.WithBoolean("motivate", mcp.Description("Also return a motivational message")),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List focus sessions, newest first."),
	mcp.WithNumber("since", mcp.Description("Unix seconds; only sessions completed at or after")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionStatsToolDef = mcp.NewTool("session_stats",
	mcp.WithDescription("Count and total time of focus sessions, today and overall."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionMotivationToolDef = mcp.NewTool("session_motivation",
	mcp.WithDescription("A motivational message for the next focus session today."),
)

var sessionPromptToolDef = mcp.NewTool("session_prompt",
	mcp.WithDescription("A daily focus question, motivational message or reflection prompt."),
	mcp.WithString("kind", mcp.Description("Prompt kind (default focus)"), mcp.Enum("focus", "motivation", "reflection")),
)
