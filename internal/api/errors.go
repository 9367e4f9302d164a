package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the server answers 404 for a post.
var ErrNotFound = errors.New("post not found")

// StatusError is any other non-success answer from the server.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d %s: %s", e.Method, e.Path, e.StatusCode, text, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d %s", e.Method, e.Path, e.StatusCode, text)
}

// Temporary reports whether retrying the same request later could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
