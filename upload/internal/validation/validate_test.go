package validation

import (
	"strings"
	"testing"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantError bool
		errMsg    string
	}{
		// Valid filenames
		{"valid_simple", "page_1.png", false, ""},
		{"valid_with_spaces", "deck page 1.png", false, ""},
		{"valid_unicode", "страница.png", false, ""},

		// Invalid filenames
		{"empty", "", true, "filename cannot be empty"},
		{"forward_slash", "a/b.png", true, "filename cannot contain path separators"},
		{"backslash", `a\b.png`, true, "filename cannot contain path separators"},
		{"traversal", "..page.png", true, "filename cannot contain traversal sequences"},
		{"control_char", "page\x00.png", true, "filename cannot contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateFilename(%q) expected error, got nil", tt.filename)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateFilename(%q) error = %q, want to contain %q", tt.filename, err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateFilename(%q) expected no error, got %q", tt.filename, err)
				}
			}
		})
	}
}

func TestValidateFilenames(t *testing.T) {
	if err := ValidateFilenames([]string{"a.png", "b.png"}, 2); err != nil {
		t.Errorf("expected no error, got %q", err)
	}

	err := ValidateFilenames([]string{"a.png"}, 2)
	if err == nil {
		t.Fatal("expected error for mismatched count, got nil")
	}
	if !errors.IsInvalidInput(err) {
		t.Errorf("expected ErrInvalidInput, got %q", err)
	}

	if err := ValidateFilenames([]string{"a.png", "b/c.png"}, 2); err == nil {
		t.Error("expected error for invalid name in list, got nil")
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name      string
		session   uploadtypes.Session
		size      int64
		wantError bool
		errMsg    string
	}{
		{
			"valid_single_part",
			uploadtypes.Session{UploadID: "u1", Key: "k1", PartSize: 1024, TotalParts: 1},
			100, false, "",
		},
		{
			"valid_exact_multiple",
			uploadtypes.Session{UploadID: "u1", Key: "k1", PartSize: 100, TotalParts: 3},
			300, false, "",
		},
		{
			"valid_trailing_remainder",
			uploadtypes.Session{UploadID: "u1", Key: "k1", PartSize: 100, TotalParts: 4},
			301, false, "",
		},
		{
			"empty_upload_id",
			uploadtypes.Session{Key: "k1", PartSize: 100, TotalParts: 1},
			50, true, "empty upload id",
		},
		{
			"empty_key",
			uploadtypes.Session{UploadID: "u1", PartSize: 100, TotalParts: 1},
			50, true, "empty storage key",
		},
		{
			"zero_part_size",
			uploadtypes.Session{UploadID: "u1", Key: "k1", PartSize: 0, TotalParts: 1},
			50, true, "invalid part size",
		},
		{
			"wrong_part_count",
			uploadtypes.Session{UploadID: "u1", Key: "k1", PartSize: 100, TotalParts: 2},
			301, true, "plan covers 2 parts, payload of 301 bytes needs 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.session, tt.size)
			if tt.wantError {
				if err == nil {
					t.Fatalf("ValidateSession() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateSession() error = %q, want to contain %q", err.Error(), tt.errMsg)
				}
				if !errors.IsSessionCreateFailed(err) {
					t.Errorf("ValidateSession() error should match ErrSessionCreateFailed, got %q", err)
				}
			} else if err != nil {
				t.Errorf("ValidateSession() expected no error, got %q", err)
			}
		})
	}
}
