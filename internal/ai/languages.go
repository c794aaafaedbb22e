package ai

import "strings"

// Language is a translation target offered by the UI.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the supported translation targets in display order.
var Languages = []Language{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"ru", "Russian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"zh", "Chinese"},
}

// LanguageName returns the English name for a code, or the code itself.
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// SupportedLanguage reports whether code is one of Languages.
func SupportedLanguage(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
