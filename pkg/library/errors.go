package library

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when an operation requiring a current
	// user is called without one.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrBookNotFound is returned when a book id does not exist for the
	// given owner.
	ErrBookNotFound = errors.New("book not found")

	// ErrInvalidProgress is returned for out-of-bounds page numbers. Values
	// are rejected, never clamped.
	ErrInvalidProgress = errors.New("invalid reading progress")

	// ErrRemoteRead wraps record-store failures on the fetch path.
	ErrRemoteRead = errors.New("remote read failed")

	// ErrRemoteWrite wraps record-store failures on the mutation path.
	ErrRemoteWrite = errors.New("remote write failed")

	// ErrBlob wraps object-store transfer and URL-signing failures.
	ErrBlob = errors.New("blob storage failed")
)

// ValidationError reports a caller contract violation. These are rejected
// before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Upload stages, recorded on UploadError.
const (
	StageTransfer = "transfer"
	StageMetadata = "metadata"
)

// UploadError is the composite failure of the two-step upload. Stage
// StageMetadata means the blob transferred before the metadata write failed,
// leaving an orphaned blob behind.
type UploadError struct {
	Stage string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed at %s: %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
