package ytcomments

import (
	"errors"

	"ytcomments/shortcode"
	"ytcomments/storage"
	"ytcomments/youtube"
)

// Exported error types from sub-packages:
//
// From youtube package:
//   - youtube.ErrMissingAPIKey: No API key supplied
//   - youtube.ErrMissingVideoID: No video identifier supplied
//   - youtube.ErrMalformedResponse: Response did not match the expected schema
//   - youtube.APIError: Failure reported by the Data API
//
// From shortcode package:
//   - shortcode.ErrMissingVideoURL: Shortcode has no video_url
//   - shortcode.ErrMissingAPIKey: No API key in the shortcode or settings
//   - shortcode.ErrInvalidURL: video_url is not a YouTube video URL
//
// From storage package:
//   - storage.ErrInvalidInput: Invalid input provided
//   - storage.ErrStorageCorrupt: Data corruption detected
//   - storage.ErrLockTimeout: File lock timeout
//   - storage.ErrClosed: Store already closed
//   - storage.StorageError: General storage operation error

// Type aliases for convenient error handling.
type (
	// APIError is a failure reported by the Data API.
	APIError = youtube.APIError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrMissingAPIKey indicates no API key was supplied to a listing call.
	ErrMissingAPIKey = youtube.ErrMissingAPIKey
	// ErrMissingVideoID indicates no video identifier was supplied.
	ErrMissingVideoID = youtube.ErrMissingVideoID
	// ErrMalformedResponse indicates the API response did not match the expected schema.
	ErrMalformedResponse = youtube.ErrMalformedResponse

	// Shortcode errors
	ErrMissingVideoURL = shortcode.ErrMissingVideoURL
	ErrInvalidURL      = shortcode.ErrInvalidURL

	// Storage errors
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = storage.ErrInvalidInput
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsQuotaExceeded reports whether err is an API failure caused by an
// exhausted daily quota.
func IsQuotaExceeded(err error) bool {
	var apiErr *youtube.APIError
	return errors.As(err, &apiErr) && apiErr.Reason == "quotaExceeded"
}
