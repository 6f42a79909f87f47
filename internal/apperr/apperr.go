// Package apperr defines the HTTP error envelope shared by every module.
//
// A handler returns or writes an *Error; anything else is reported as
// INTERNAL_ERROR with the message hidden in production.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes rendered in the "error" field of the envelope.
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodePermission = "PERMISSION_DENIED"
	CodeDatabase   = "DATABASE_ERROR"
)

// Error is an error with an HTTP status and a stable code.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(message string) *Error {
	if message == "" {
		message = "Not found"
	}
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// Validation reports invalid input. fields maps field names to messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Fields: fields}
}

func Auth(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuth, Message: message}
}

func Permission(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return &Error{Status: http.StatusForbidden, Code: CodePermission, Message: message}
}

// Database wraps a storage failure. The cause is never rendered.
func Database(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeDatabase, Message: "Database error", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: err}
}

type envelope struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Write renders err as the JSON error envelope. Outside production the
// message of unknown and database errors carries the underlying cause.
func Write(w http.ResponseWriter, err error, production bool) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	message := appErr.Message
	if !production && appErr.Err != nil && appErr.Status >= http.StatusInternalServerError {
		message = appErr.Err.Error()
	}

	WriteJSON(w, appErr.Status, envelope{
		Error:     appErr.Code,
		Message:   message,
		Fields:    appErr.Fields,
		Timestamp: time.Now().UnixMilli(),
	})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
