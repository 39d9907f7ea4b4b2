// Package testutil provides test utilities and mocks for upload operations.
// This package is internal and should only be used for testing within the upload module.
package testutil

import (
	"context"
	"fmt"
	"net/http"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// DefaultPartSize is the part size the mock coordinator plans with unless a
// test overrides CreateSessionFunc.
const DefaultPartSize int64 = 5 * 1024 * 1024

// MockCoordinator is a mock implementation of the Coordinator interface for
// testing. Each operation can be customized through a function field; an
// unset field behaves as a succeeding coordinator with a consistent plan.
type MockCoordinator struct {
	AuthorizeFunc       func(ctx context.Context) error
	CreateSessionFunc   func(ctx context.Context, filename, mimeType string, size int64) (uploadtypes.Session, error)
	SignPartURLFunc     func(ctx context.Context, key, uploadID string, partNumber int) (string, error)
	CompleteSessionFunc func(ctx context.Context, key, uploadID string, parts []uploadtypes.PartResult) error
	AbortSessionFunc    func(ctx context.Context, key, uploadID string) error
}

// Authorize mocks credential resolution.
func (m *MockCoordinator) Authorize(ctx context.Context) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx)
	}
	return nil
}

// CreateSession mocks session creation. The default plan uses
// DefaultPartSize and stores objects under captures/<filename>.
func (m *MockCoordinator) CreateSession(
	ctx context.Context,
	filename, mimeType string,
	size int64,
) (uploadtypes.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, filename, mimeType, size)
	}
	return PlanSession(filename, size, DefaultPartSize), nil
}

// SignPartURL mocks signed URL issuance.
func (m *MockCoordinator) SignPartURL(
	ctx context.Context,
	key, uploadID string,
	partNumber int,
) (string, error) {
	if m.SignPartURLFunc != nil {
		return m.SignPartURLFunc(ctx, key, uploadID, partNumber)
	}
	return fmt.Sprintf("https://storage.test/%s/%s/%d", key, uploadID, partNumber), nil
}

// CompleteSession mocks session finalize.
func (m *MockCoordinator) CompleteSession(
	ctx context.Context,
	key, uploadID string,
	parts []uploadtypes.PartResult,
) error {
	if m.CompleteSessionFunc != nil {
		return m.CompleteSessionFunc(ctx, key, uploadID, parts)
	}
	return nil
}

// AbortSession mocks session abort.
func (m *MockCoordinator) AbortSession(ctx context.Context, key, uploadID string) error {
	if m.AbortSessionFunc != nil {
		return m.AbortSessionFunc(ctx, key, uploadID)
	}
	return nil
}

// PlanSession builds a consistent session plan for a payload of the given
// size, the way a well-behaved coordinator would.
func PlanSession(filename string, size, partSize int64) uploadtypes.Session {
	return uploadtypes.Session{
		UploadID:   "upload-" + filename,
		Key:        "captures/" + filename,
		PartSize:   partSize,
		TotalParts: int((size + partSize - 1) / partSize),
	}
}

// MockCredentials is a mock implementation of the CredentialProvider
// interface for testing.
type MockCredentials struct {
	AuthHeadersFunc func(ctx context.Context) (http.Header, error)
}

// AuthHeaders mocks credential header retrieval. The default returns a
// bearer token header.
func (m *MockCredentials) AuthHeaders(ctx context.Context) (http.Header, error) {
	if m.AuthHeadersFunc != nil {
		return m.AuthHeadersFunc(ctx)
	}
	return http.Header{"Authorization": []string{"Bearer test-token"}}, nil
}

// Compile-time interface checks.
var (
	_ uploadtypes.Coordinator        = (*MockCoordinator)(nil)
	_ uploadtypes.CredentialProvider = (*MockCredentials)(nil)
)
