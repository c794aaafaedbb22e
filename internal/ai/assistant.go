package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/textfmt"
)

// DefaultTone is used by Rewrite when no tone is given.
const DefaultTone = "professional"

const (
	// minDetectChars is the shortest text worth a language guess.
	minDetectChars = 20

	summaryFallbackRunes = 100
)

// RewriteResult separates the rewritten text from the model's commentary.
type RewriteResult struct {
	Result      string `json:"result"`
	Explanation string `json:"explanation"`
}

// Detection is a language guess.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Assistant is the only way the rest of FocusFlow reaches the model. Text
// operations never return errors; on failure they log and return a fixed
// fallback.
type Assistant struct {
	model          Model
	log            *logger.Logger
	temperature    float64
	extractTimeout time.Duration
}

// NewAssistant wires a model with the ai section of the config.
func NewAssistant(model Model, cfg config.AIConfig, log *logger.Logger) *Assistant {
	if model == nil || cfg.Disabled {
		model = Offline{}
	}
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.ExtractTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Assistant{
		model:          model,
		log:            log.With("component", "ai"),
		temperature:    cfg.Temperature,
		extractTimeout: timeout,
	}
}

// FromConfig builds the HTTP-backed assistant, falling back to Offline when
// the endpoint is misconfigured.
func FromConfig(cfg config.AIConfig, log *logger.Logger) *Assistant {
	if cfg.Disabled {
		return NewAssistant(Offline{}, cfg, log)
	}
	m, err := NewHTTPModel(cfg)
	if err != nil {
		if log != nil {
			log.Warn("ai endpoint unusable, running offline", "error", err)
		}
		return NewAssistant(Offline{}, cfg, log)
	}
	return NewAssistant(m, cfg, log)
}

// IsAvailable reports whether the model answered its last probe.
func (a *Assistant) IsAvailable(ctx context.Context) bool {
	return a.model.Available(ctx)
}

// Ask is the raw generate call for callers that need to know about failure
// (quiz generation). Unavailability surfaces as ErrUnavailable.
func (a *Assistant) Ask(ctx context.Context, system, prompt string) (string, error) {
	if !a.model.Available(ctx) {
		return "", ErrUnavailable
	}
	return a.model.Complete(ctx, Request{System: system, Prompt: prompt, Temperature: a.temperature})
}

func (a *Assistant) complete(ctx context.Context, op, system, prompt string) (string, bool) {
	if !a.model.Available(ctx) {
		a.log.Debug("model unavailable, using fallback", "op", op)
		return "", false
	}
	out, err := a.model.Complete(ctx, Request{System: system, Prompt: prompt, Temperature: a.temperature})
	if err != nil {
		a.log.Warn("model call failed, using fallback", "op", op, "error", err)
		return "", false
	}
	return out, true
}

// Summarize returns a short summary, or the first 100 characters as a fallback.
func (a *Assistant) Summarize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if out, ok := a.complete(ctx, "summarize", systemSummarize, summarizePrompt(text)); ok {
		return out
	}
	return SummaryFallback(text)
}

// SummaryFallback is the deterministic stand-in for a model summary.
func SummaryFallback(text string) string {
	return "Summary: " + textfmt.Truncate(text, summaryFallbackRunes) + "..."
}

var explanationRe = regexp.MustCompile(`(?im)^\s*\**\s*explanation\s*:?\s*\**\s*:?`)

// Rewrite returns the rewritten text and the model's explanation. The
// original text comes back unchanged when the model cannot answer.
func (a *Assistant) Rewrite(ctx context.Context, text, tone string) RewriteResult {
	if strings.TrimSpace(text) == "" {
		return RewriteResult{Result: text}
	}
	if strings.TrimSpace(tone) == "" {
		tone = DefaultTone
	}
	out, ok := a.complete(ctx, "rewrite", systemRewrite, rewritePrompt(text, tone))
	if !ok {
		return RewriteResult{Result: text}
	}
	return SplitRewrite(out)
}

// SplitRewrite separates an answer into the rewritten text and the
// explanation that follows an "Explanation:" line or the first "**" marker.
func SplitRewrite(out string) RewriteResult {
	if loc := explanationRe.FindStringIndex(out); loc != nil && loc[0] > 0 {
		return RewriteResult{
			Result:      strings.TrimSpace(out[:loc[0]]),
			Explanation: strings.TrimSpace(textfmt.StripEmphasis(out[loc[1]:])),
		}
	}
	result := textfmt.FirstSegment(out)
	explanation := ""
	if len(result) < len(strings.TrimSpace(out)) {
		explanation = strings.TrimSpace(textfmt.StripEmphasis(strings.TrimSpace(out)[len(result):]))
	}
	return RewriteResult{Result: result, Explanation: explanation}
}

// Translate returns text in the target language, or text itself as a fallback.
func (a *Assistant) Translate(ctx context.Context, text, lang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if out, ok := a.complete(ctx, "translate", systemTranslate, translatePrompt(text, lang)); ok {
		return out
	}
	return text
}

// Generate answers a free-form prompt, falling back to a focus question.
func (a *Assistant) Generate(ctx context.Context, prompt string) string {
	return a.GenerateWithFallback(ctx, prompt, FallbackPrompt)
}

// GenerateWithFallback answers a free-form prompt with a caller-chosen fallback.
func (a *Assistant) GenerateWithFallback(ctx context.Context, prompt, fallback string) string {
	if strings.TrimSpace(prompt) == "" {
		return fallback
	}
	if out, ok := a.complete(ctx, "generate", systemGenerate, prompt); ok {
		return out
	}
	return fallback
}

// DetectLanguage guesses the language of text. It returns nil when the text
// is too short, the model is unavailable, or the answer cannot be parsed.
func (a *Assistant) DetectLanguage(ctx context.Context, text string) *Detection {
	if len([]rune(strings.TrimSpace(text))) <= minDetectChars {
		return nil
	}
	out, ok := a.complete(ctx, "detect_language", systemDetect, detectPrompt(text))
	if !ok {
		return nil
	}
	var d Detection
	if err := DecodeJSON(out, '{', &d); err != nil {
		a.log.Warn("language detection unparsable", "error", err)
		return nil
	}
	d.Language = strings.ToLower(strings.TrimSpace(d.Language))
	if d.Language == "" {
		return nil
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	return &d
}

// CleanText asks the model to tidy OCR or pasted text; the local formatter
// is the fallback.
func (a *Assistant) CleanText(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if out, ok := a.complete(ctx, "clean", systemClean, cleanPrompt(text)); ok {
		return out
	}
	return textfmt.CleanOCR(text)
}

// ExtractFromImage returns the text visible in an image. The call is bounded
// by the extraction timeout.
func (a *Assistant) ExtractFromImage(ctx context.Context, image []byte, name string) string {
	if !a.model.Available(ctx) {
		return FallbackImageUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.extractTimeout)
	defer cancel()

	out, err := a.model.Complete(ctx, Request{
		System:      systemImage,
		Prompt:      imagePrompt,
		Temperature: a.temperature,
		ImageURL:    DataURL(image),
	})
	if err != nil {
		a.log.Warn("image extraction failed", "name", name, "error", err, "timeout", errors.Is(err, context.DeadlineExceeded))
		return FallbackImageFailed
	}
	return out
}

// ExtractFromAudio transcribes a recording, bounded by the extraction timeout.
func (a *Assistant) ExtractFromAudio(ctx context.Context, audio []byte, name string) string {
	if !a.model.Available(ctx) {
		return FallbackAudioUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.extractTimeout)
	defer cancel()

	out, err := a.model.Transcribe(ctx, audio, name)
	if err != nil {
		a.log.Warn("audio transcription failed", "name", name, "error", err, "timeout", errors.Is(err, context.DeadlineExceeded))
		return FallbackAudioFailed
	}
	return out
}

// DataURL encodes raw image bytes as a data: URL with a sniffed MIME type.
func DataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if i := strings.IndexByte(mime, ';'); i != -1 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}
