package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a FocusFlow error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrConflict        ErrorCode = "CONFLICT"         // 409
	ErrIllegalState    ErrorCode = "ILLEGAL_STATE"    // 409
	ErrNoteTooLarge    ErrorCode = "NOTE_TOO_LARGE"   // 413
	ErrFileTooLarge    ErrorCode = "FILE_TOO_LARGE"   // 413
	ErrMalformedOutput ErrorCode = "MALFORMED_OUTPUT" // 422
	ErrCancelled       ErrorCode = "CANCELLED"        // 499
	ErrInternal        ErrorCode = "INTERNAL"         // 500
	ErrQuizUnavailable ErrorCode = "QUIZ_UNAVAILABLE" // 503
)

// FlowError represents a structured error with code, status, and details.
type FlowError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FlowError {
	return &FlowError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a note cannot be found.
func NewNotFound(id string) *FlowError {
	return &FlowError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewResultNotFound creates a 404 error for a quiz result missing from its note.
func NewResultNotFound(noteID, resultID string) *FlowError {
	return &FlowError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("quiz result not found: %s", resultID),
		Details: map[string]any{"id": noteID, "result_id": resultID},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *FlowError {
	return &FlowError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *FlowError {
	return &FlowError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewIllegalState creates a 409 error for an operation the current state does not allow.
func NewIllegalState(state, action string) *FlowError {
	return &FlowError{
		Code:    ErrIllegalState,
		Status:  409,
		Message: fmt.Sprintf("cannot %s while %s", action, state),
		Details: map[string]any{"state": state, "action": action},
	}
}

// NewNoteTooLarge creates a 413 error when note content exceeds the size limit.
func NewNoteTooLarge(max, actual int) *FlowError {
	return &FlowError{
		Code:    ErrNoteTooLarge,
		Status:  413,
		Message: fmt.Sprintf("note exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewFileTooLarge creates a 413 error when an import or upload exceeds the byte limit.
func NewFileTooLarge(max, actual int64) *FlowError {
	return &FlowError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewMalformedOutput creates a 422 error for model output that could not be parsed.
func NewMalformedOutput(msg string) *FlowError {
	return &FlowError{
		Code:    ErrMalformedOutput,
		Status:  422,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for an operation abandoned by its caller.
func NewCancelled(op string) *FlowError {
	return &FlowError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewQuizUnavailable creates a 503 error when no quiz could be generated.
func NewQuizUnavailable(reason string) *FlowError {
	return &FlowError{
		Code:    ErrQuizUnavailable,
		Status:  503,
		Message: fmt.Sprintf("quiz unavailable: %s", reason),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FlowError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FlowError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a FlowError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FlowError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// As returns the FlowError inside err, if any.
func As(err error) (*FlowError, bool) {
	var fErr *FlowError
	ok := stderrors.As(err, &fErr)
	return fErr, ok
}
