// Package textfmt normalizes model output and OCR text for the plain-text editor.
package textfmt

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	headingRe    = regexp.MustCompile(`(?m)^#+\s+`)
	bulletRe     = regexp.MustCompile(`(?m)^[ \t]*[*•\-]\s+`)
	ocrBulletRe  = regexp.MustCompile(`(?m)^[ \t]*[*•\-+]\s+`)
	plainListRe  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	colonRe      = regexp.MustCompile(`[ \t]*:[ \t]*`)
	hSpaceRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	trailingWSRe = regexp.MustCompile(`(?m)[ \t]+$`)
)

// StripEmphasis removes **bold** and *italic* markers, keeping the text.
func StripEmphasis(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	return italicRe.ReplaceAllString(text, "$1")
}

// FormatMarkdown flattens model markdown: emphasis removed, bullets become
// "- ", runs of spaces collapse and at most one blank line separates paragraphs.
func FormatMarkdown(text string) string {
	text = StripEmphasis(text)
	text = bulletRe.ReplaceAllString(text, "- ")
	return tidy(text)
}

// CleanOCR is the local cleanup applied to OCR output and used whenever the
// model cannot clean text itself. HTML entities are decoded.
func CleanOCR(text string) string {
	text = html.UnescapeString(text)
	text = StripEmphasis(text)
	text = ocrBulletRe.ReplaceAllString(text, "- ")
	text = colonRe.ReplaceAllString(text, ": ")
	return tidy(text)
}

// MarkdownToPlain converts markdown to editor text: emphasis and heading
// markers removed and list items rendered with a bullet glyph.
func MarkdownToPlain(markdown string) string {
	text := StripEmphasis(markdown)
	text = headingRe.ReplaceAllString(text, "")
	return plainListRe.ReplaceAllString(text, "• ")
}

// FirstSegment returns the text before the first "**" marker, trimmed. Models
// often append a bolded explanation after the answer.
func FirstSegment(text string) string {
	if i := strings.Index(text, "**"); i > 0 {
		return strings.TrimSpace(text[:i])
	}
	return strings.TrimSpace(text)
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = hSpaceRe.ReplaceAllString(text, " ")
	text = trailingWSRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
