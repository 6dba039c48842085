package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/kbconsole/pkg/upload"
)

var (
	// ErrNotFound matches 404 responses, e.g. deleting a document twice.
	ErrNotFound = errors.New("not found")

	// ErrFileTooLarge matches 413 responses and files rejected locally.
	ErrFileTooLarge = upload.ErrFileTooLarge

	// ErrMissingTitle is returned when upload metadata has no title.
	ErrMissingTitle = errors.New("title is required")

	// ErrMissingFile is returned when an upload has no file.
	ErrMissingFile = errors.New("file is required")

	// ErrEmptyPrompt is returned when updating the system prompt to blank
	// text. Use ResetSystemPrompt to restore the default.
	ErrEmptyPrompt = errors.New("system prompt cannot be empty")

	// ErrEmptyQuery is returned when a chat query has no text.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s %s failed (HTTP %d): %s", e.Method, e.Path, e.Code, msg)
}

// Is lets errors.Is match status-specific sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrFileTooLarge:
		return e.Code == http.StatusRequestEntityTooLarge
	}
	return false
}

// ValidationError reports user input that blocks a request before it is
// sent.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
