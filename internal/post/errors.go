package post

import (
	"errors"
	"fmt"
	"strings"
)

// StorageError reports a local persistence failure: schema creation, query
// execution or row decoding.
type StorageError struct {
	// Op names the store operation that failed (e.g. "insert", "fetch all").
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SyncError reports a remote transport failure or a non-2xx response.
type SyncError struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Body is the (truncated) response body for non-2xx responses.
	Body string

	// Err is the underlying transport or decoding error, if any.
	Err error
}

// maxErrorBody bounds how much of a response body ends up in an error string.
const maxErrorBody = 256

func (e *SyncError) Error() string {
	if e.Status != 0 {
		body := strings.TrimSpace(e.Body)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody] + "..."
		}
		if body == "" {
			return fmt.Sprintf("sync: remote returned status %d", e.Status)
		}
		return fmt.Sprintf("sync: remote returned status %d: %s", e.Status, body)
	}
	return fmt.Sprintf("sync: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ValidationError reports a record the caller submitted without a required
// field, or with a field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// IsStorageError returns true if err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsSyncError returns true if err wraps a SyncError.
func IsSyncError(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}

// IsValidationError returns true if err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
