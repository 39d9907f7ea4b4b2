// Package validation provides centralized input validation logic.
// All caller inputs and coordinator-issued session plans are validated
// before any bytes are transmitted.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// ValidateFilename validates that a logical filename is safe to send to the
// coordinator. Filenames are plain names, never paths.
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.NewError("validateFilename", errors.ErrInvalidInput).
			WithMessage("filename cannot be empty")
	}

	if strings.ContainsAny(filename, `/\`) {
		return errors.NewError("validateFilename", errors.ErrInvalidInput).
			WithFilename(filename).
			WithMessage("filename cannot contain path separators")
	}

	if strings.Contains(filename, "..") {
		return errors.NewError("validateFilename", errors.ErrInvalidInput).
			WithFilename(filename).
			WithMessage("filename cannot contain traversal sequences")
	}

	if hasControlCharacters(filename) {
		return errors.NewError("validateFilename", errors.ErrInvalidInput).
			WithFilename(filename).
			WithMessage("filename cannot contain control characters")
	}

	return nil
}

// ValidateFilenames validates a caller-supplied filename list against the
// number of payloads in the batch.
func ValidateFilenames(filenames []string, items int) error {
	if len(filenames) != items {
		return errors.NewError("validateFilenames", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("got %d filenames for %d items", len(filenames), items))
	}

	for _, name := range filenames {
		if err := ValidateFilename(name); err != nil {
			return err
		}
	}

	return nil
}

// ValidateSession validates the chunking plan the coordinator returned for a
// payload of the given size. Every byte must be covered by exactly one part,
// with parts contiguous and non-overlapping, which holds exactly when the
// part count is the ceiling of size over part size.
func ValidateSession(session uploadtypes.Session, size int64) error {
	if session.UploadID == "" {
		return errors.NewError("validateSession", errors.ErrSessionCreateFailed).
			WithMessage("coordinator returned an empty upload id")
	}

	if session.Key == "" {
		return errors.NewError("validateSession", errors.ErrSessionCreateFailed).
			WithMessage("coordinator returned an empty storage key")
	}

	if session.PartSize <= 0 {
		return errors.NewError("validateSession", errors.ErrSessionCreateFailed).
			WithKey(session.Key).
			WithMessage(fmt.Sprintf("invalid part size %d", session.PartSize))
	}

	wantParts := int((size + session.PartSize - 1) / session.PartSize)
	if session.TotalParts != wantParts {
		return errors.NewError("validateSession", errors.ErrSessionCreateFailed).
			WithKey(session.Key).
			WithMessage(fmt.Sprintf("plan covers %d parts, payload of %d bytes needs %d",
				session.TotalParts, size, wantParts))
	}

	return nil
}

// hasControlCharacters checks for control characters in the filename
func hasControlCharacters(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
