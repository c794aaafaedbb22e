package ai

import "fmt"

const (
	systemSummarize = "You are a helpful assistant that creates concise summaries."
	systemRewrite   = "You are a helpful assistant that rewrites text to improve clarity and tone."
	systemTranslate = "You are a helpful translator. Reply with the translation only."
	systemGenerate  = "You are a helpful assistant that creates motivational prompts and questions."
	systemDetect    = "You identify the language of text. Reply with JSON only."
	systemImage     = "You transcribe the text and notation visible in images of study notes."
	systemClean     = "You clean up notes. Reply with the cleaned text only."
)

// Fallback texts returned when the model cannot answer.
const (
	FallbackPrompt           = "What's one thing you want to focus on today?"
	FallbackImageUnavailable = "Image uploaded - local AI model not available. Text extraction needs a vision-capable model on the configured endpoint."
	FallbackAudioUnavailable = "Audio recorded - local AI model not available. Transcription needs a speech-to-text model on the configured endpoint."
	FallbackImageFailed      = "Image uploaded successfully! \n\nNote: text could not be extracted from this image."
	FallbackAudioFailed      = "Audio recorded successfully! \n\nNote: this recording could not be transcribed."
)

func summarizePrompt(text string) string {
	return "Summarize this text: " + text
}

func rewritePrompt(text, tone string) string {
	return fmt.Sprintf("Rewrite this text in a %s tone. Reply with the rewritten text first, then a line starting with \"Explanation:\" describing what changed: %s", tone, text)
}

func translatePrompt(text, lang string) string {
	return fmt.Sprintf("Translate this text to %s: %s", LanguageName(lang), text)
}

func detectPrompt(text string) string {
	return `Identify the language of the following text. Respond with JSON {"language": "<ISO 639-1 code>", "confidence": <number between 0 and 1>}: ` + text
}

func cleanPrompt(text string) string {
	return "Clean and format this text, fix HTML entities, organize notation, and make it readable. Return ONLY the cleaned text with no explanations: " + text
}

const imagePrompt = "Extract all text, formulas and notation from this image. Return ONLY the extracted text."
