package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/blogr/internal/api"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeErr turns request failures into short status bar text.
func describeErr(err error) string {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrNotFound):
		return "post no longer exists"
	case errors.As(err, &statusErr):
		if statusErr.Temporary() {
			return fmt.Sprintf("server unavailable (%d), try again later", statusErr.StatusCode)
		}
		return fmt.Sprintf("server rejected the request (%d)", statusErr.StatusCode)
	default:
		return err.Error()
	}
}
