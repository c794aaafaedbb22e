package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput marks model output that does not contain the expected JSON.
var ErrMalformedOutput = errors.New("ai: malformed model output")

// SanitizeJSONText strips a surrounding ```lang fence, if any.
func SanitizeJSONText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first balanced JSON value opening with open ('[' or
// '{') found in s, ignoring prose and code fences around it.
func ExtractJSON(s string, open byte) (string, error) {
	return ExtractJSONFunc(s, open, json.Valid)
}

// ExtractJSONFunc is ExtractJSON with a caller test: balanced candidates are
// tried in order and the first one accept reports true for wins. Prose such
// as "[5] questions" ahead of the real payload is skipped this way.
func ExtractJSONFunc(s string, open byte, accept func([]byte) bool) (string, error) {
	var closeCh byte
	switch open {
	case '[':
		closeCh = ']'
	case '{':
		closeCh = '}'
	default:
		return "", fmt.Errorf("%w: unsupported opener %q", ErrMalformedOutput, open)
	}

	s = SanitizeJSONText(s)
	start := strings.IndexByte(s, open)
	for start != -1 {
		if end := matchBracket(s, start, open, closeCh); end != -1 {
			candidate := []byte(s[start : end+1])
			if json.Valid(candidate) && accept(candidate) {
				return string(candidate), nil
			}
		}
		next := strings.IndexByte(s[start+1:], open)
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", fmt.Errorf("%w: no JSON %c...%c block found", ErrMalformedOutput, open, closeCh)
}

// DecodeJSON extracts the first JSON value of the given shape and decodes it into dst.
func DecodeJSON(s string, open byte, dst any) error {
	raw, err := ExtractJSON(s, open)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func matchBracket(s string, start int, open, closeCh byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
