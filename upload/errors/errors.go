// Package errors provides error types and handling for upload pipeline operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the operation
// that failed. It wraps the underlying error with the filename, storage key,
// and part number involved so callers can report failures precisely.
type Error struct {
	// Op is the operation that failed (e.g., "createSession", "sendPart", "complete")
	Op string

	// Filename is the logical name of the file being uploaded (if applicable)
	Filename string

	// Key is the remote storage key of the session (if applicable)
	Key string

	// PartNumber is the 1-based part number involved (0 when not part-scoped)
	PartNumber int

	// Err is the underlying error from the coordinator, storage, or decoder
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	switch {
	case e.Filename != "" && e.PartNumber > 0:
		return fmt.Sprintf("upload.%s %s part %d: %v", e.Op, e.Filename, e.PartNumber, e.Err)
	case e.Filename != "":
		return fmt.Sprintf("upload.%s %s: %v", e.Op, e.Filename, e.Err)
	case e.Key != "":
		return fmt.Sprintf("upload.%s key %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("upload.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithFilename adds filename context to an existing error.
func (e *Error) WithFilename(filename string) *Error {
	e.Filename = filename
	return e
}

// WithKey adds storage key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithPart adds part number context to an existing error.
func (e *Error) WithPart(partNumber int) *Error {
	e.PartNumber = partNumber
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// Sentinel errors for upload pipeline failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrMalformedInput indicates that an encoded payload could not be decoded.
	// Decode failures are local and are never retried.
	ErrMalformedInput = errors.New("upload: malformed input")

	// ErrSessionCreateFailed indicates that the coordinator rejected the
	// request to open a multipart session. Session creation is never retried.
	ErrSessionCreateFailed = errors.New("upload: session create failed")

	// ErrPartUploadFailed indicates that one part exhausted its retry budget.
	ErrPartUploadFailed = errors.New("upload: part upload failed")

	// ErrFinalizeFailed indicates that the coordinator rejected assembly of
	// the uploaded parts after all of them were transmitted.
	ErrFinalizeFailed = errors.New("upload: finalize failed")

	// ErrCredentialUnavailable indicates that no usable credentials could be
	// obtained. The whole batch fails before any network call is made.
	ErrCredentialUnavailable = errors.New("upload: credentials unavailable")

	// ErrInvalidInput indicates that the caller supplied invalid arguments.
	ErrInvalidInput = errors.New("upload: invalid input")
)

// IsMalformedInput checks if an error indicates a payload decode failure.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsSessionCreateFailed checks if an error indicates a rejected session create.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsSessionCreateFailed(err error) bool {
	return errors.Is(err, ErrSessionCreateFailed)
}

// IsPartUploadFailed checks if an error indicates an exhausted part retry budget.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsPartUploadFailed(err error) bool {
	return errors.Is(err, ErrPartUploadFailed)
}

// IsFinalizeFailed checks if an error indicates a rejected session finalize.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsFinalizeFailed(err error) bool {
	return errors.Is(err, ErrFinalizeFailed)
}

// IsCredentialUnavailable checks if an error indicates missing credentials.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsCredentialUnavailable(err error) bool {
	return errors.Is(err, ErrCredentialUnavailable)
}

// IsInvalidInput checks if an error indicates invalid caller input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
