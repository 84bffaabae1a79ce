package recipe

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned before any network call when no credential is configured.
	ErrMissingAPIKey = errors.New("generation API key is not configured")
	// ErrTransport wraps failures raised by the remote call itself.
	ErrTransport = errors.New("generation request failed")
	// ErrNoContent is returned when the model answered without any text.
	ErrNoContent = errors.New("no content returned by model")
	// ErrMalformedResponse is returned when the text is not three valid recipes.
	ErrMalformedResponse = errors.New("failed to parse recipes")
)

// ErrorKind names the failure class of a generation error for diagnostics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "configuration"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, ErrMalformedResponse):
		return "parse"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
