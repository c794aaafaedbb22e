// Package ops holds the operations shared by the CLI, the MCP server and the
// web UI. Each operation validates its input, talks to the store and the AI
// assistant, and returns a JSON-friendly output struct.
package ops

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Pagination limits
const (
	DefaultListLimit     = 20
	MaxListLimit         = 100
	DefaultSessionsLimit = 50
	MaxSessionsLimit     = 500
)

// MaxUploadBytes caps image and audio payloads.
const MaxUploadBytes = 10 * 1024 * 1024

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies the default and maximum to a requested page size.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// newID returns a time-ordered ULID for notes and sessions.
func newID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
