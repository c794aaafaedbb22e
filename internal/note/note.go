// Package note defines the FocusFlow data model: notes with their nested
// summaries and quiz results, timer sessions, and AI activity entries.
package note

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxSummaries is the number of summary records kept per note.
	MaxSummaries = 5

	// MaxQuizResults is the number of quiz results kept per note.
	MaxQuizResults = 10

	// UncategorizedTopic groups notes that have no topic.
	UncategorizedTopic = "Uncategorized"

	// ExportVersion is written into every export document.
	ExportVersion = "1.0"

	// OptionsPerQuestion is the fixed number of choices in a quiz question.
	OptionsPerQuestion = 4

	// Unanswered marks a quiz question the user skipped.
	Unanswered = -1
)

// Note is the primary entity. Summaries and QuizResults are owned by the note
// and are always ordered most recent first.
type Note struct {
	ID          string          `json:"id"`
	Title       string          `json:"title,omitempty"`
	Topic       string          `json:"topic,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Content     string          `json:"content"`
	Images      []Image         `json:"images,omitempty"`
	Summaries   []SummaryRecord `json:"summaries,omitempty"`
	QuizResults []QuizResult    `json:"quizResults,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// Image is an attachment carried as a data URL or base64 payload.
type Image struct {
	ID   string `json:"id"`
	Data string `json:"url"`
	Name string `json:"name"`
}

// SummaryRecord is one generated summary with its derived insights and actions.
type SummaryRecord struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	Insights  string `json:"insights"`
	Actions   string `json:"actions"`
	Timestamp int64  `json:"timestamp"`
}

// Question is a generated multiple-choice question. It is never persisted on
// its own; graded copies live inside QuizResult.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// GradedQuestion is a question frozen together with the user's answer.
type GradedQuestion struct {
	Question
	UserAnswer int  `json:"userAnswer"`
	IsCorrect  bool `json:"isCorrect"`
}

// QuizResult is one completed quiz attempt.
type QuizResult struct {
	ID             string           `json:"id"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Timestamp      int64            `json:"timestamp"`
	Questions      []GradedQuestion `json:"questions"`
}

// Percent returns the score as a percentage of the question count, rounded
// to the nearest whole number.
func (r QuizResult) Percent() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return (r.Score*200 + r.TotalQuestions) / (2 * r.TotalQuestions)
}

// TimerSession is a completed focus session. Duration is in seconds.
type TimerSession struct {
	ID          string `json:"id"`
	Duration    int    `json:"duration"`
	CompletedAt int64  `json:"completedAt"`
	Notes       string `json:"notes,omitempty"`
}

// Action names an AI operation recorded in a note's activity log.
type Action string

const (
	ActionRewrite    Action = "rewrite"
	ActionTranslate  Action = "translate"
	ActionClean      Action = "clean"
	ActionSummarize  Action = "summarize"
	ActionImageOCR   Action = "image_ocr"
	ActionTranscribe Action = "audio_transcribe"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionRewrite, ActionTranslate, ActionClean, ActionSummarize, ActionImageOCR, ActionTranscribe:
		return true
	}
	return false
}

// AIActivity is an append-only log entry of an AI operation applied to a note.
type AIActivity struct {
	ID           string `json:"id"`
	NoteID       string `json:"noteId"`
	Timestamp    int64  `json:"timestamp"`
	Action       Action `json:"action"`
	OriginalText string `json:"originalText"`
	ResultText   string `json:"resultText"`
	Explanation  string `json:"explanation,omitempty"`
	Language     string `json:"language,omitempty"`
}

// ExportDocument is the on-disk backup format.
type ExportDocument struct {
	Notes      []Note `json:"notes"`
	ExportDate string `json:"exportDate"`
	Version    string `json:"version"`
}

// PrependSummary puts rec first and drops anything past MaxSummaries.
func PrependSummary(n *Note, rec SummaryRecord) {
	n.Summaries = prependCapped(n.Summaries, rec, MaxSummaries)
}

// PrependQuizResult puts res first and drops anything past MaxQuizResults.
func PrependQuizResult(n *Note, res QuizResult) {
	n.QuizResults = prependCapped(n.QuizResults, res, MaxQuizResults)
}

func prependCapped[T any](list []T, item T, max int) []T {
	out := make([]T, 0, min(len(list)+1, max))
	out = append(out, item)
	for _, v := range list {
		if len(out) == max {
			break
		}
		out = append(out, v)
	}
	return out
}

// LatestSummary returns the most recent summary, or nil.
func (n *Note) LatestSummary() *SummaryRecord {
	if len(n.Summaries) == 0 {
		return nil
	}
	return &n.Summaries[0]
}

// FindQuizResult returns the stored result with the given id, or nil.
func (n *Note) FindQuizResult(id string) *QuizResult {
	for i := range n.QuizResults {
		if n.QuizResults[i].ID == id {
			return &n.QuizResults[i]
		}
	}
	return nil
}

// TopicOrDefault returns the note's topic, or UncategorizedTopic when blank.
func TopicOrDefault(n *Note) string {
	if strings.TrimSpace(n.Topic) == "" {
		return UncategorizedTopic
	}
	return n.Topic
}

// Path returns the hierarchy path of a note: topic followed by its non-blank tags.
func Path(n *Note) []string {
	path := []string{TopicOrDefault(n)}
	for _, tag := range n.Tags {
		if strings.TrimSpace(tag) != "" {
			path = append(path, tag)
		}
	}
	return path
}

// ParseTags splits a comma-separated tag string, keeping order and dropping blanks.
func ParseTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// DisplayTitle returns the title, or the first line of content when untitled.
func DisplayTitle(n *Note) string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	line := strings.TrimSpace(strings.SplitN(n.Content, "\n", 2)[0])
	if CountChars(line) > 60 {
		line = string([]rune(line)[:60]) + "..."
	}
	if line == "" {
		return "Untitled"
	}
	return line
}
