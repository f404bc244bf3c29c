package youtube

import (
	"errors"
	"fmt"
)

// Sentinel errors for comment listing.
var (
	// ErrMissingAPIKey indicates no API key was supplied.
	ErrMissingAPIKey = errors.New("youtube: api key required")
	// ErrMissingVideoID indicates no video identifier was supplied.
	ErrMissingVideoID = errors.New("youtube: video id required")
	// ErrMalformedResponse indicates the API response did not match the expected schema.
	ErrMalformedResponse = errors.New("youtube: malformed response")
)

// APIError is a failure reported by the Data API itself.
// Message is the structured error message when the body carried one,
// otherwise a fallback built from the status code.
type APIError struct {
	Status  int
	Message string
	// Reason is the first machine-readable reason (e.g. "quotaExceeded"), if any.
	Reason string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube: api error (status %d, %s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube: api error (status %d): %s", e.Status, e.Message)
}

// statusMessage is the message used when the API gives no structured error.
func statusMessage(status int) string {
	return fmt.Sprintf("HTTP error! Status: %d", status)
}
