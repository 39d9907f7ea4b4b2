// Package uploadtypes provides shared type definitions for the upload module.
package uploadtypes

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Session describes one open multipart upload session as planned by the
// coordinator. It is created per file, consumed by part transmission and
// finalize, and discarded after complete or abort.
type Session struct {
	// UploadID is the coordinator-issued session identifier
	UploadID string `json:"uploadId"`

	// Key is the remote storage key the parts assemble into
	Key string `json:"key"`

	// PartSize is the byte size of every part except possibly the last
	PartSize int64 `json:"partSize"`

	// TotalParts is the number of parts covering the whole payload
	TotalParts int `json:"totalParts"`
}

// PartResult records one successfully transmitted part. The ETag is the
// storage-issued integrity token, with surrounding quotes already stripped.
// The field names double as the coordinator wire form, which requires
// {PartNumber, ETag} objects in ascending PartNumber order.
type PartResult struct {
	// PartNumber is the 1-based index of the part
	PartNumber int

	// ETag is the integrity token returned by storage for the part
	ETag string
}

// BatchProgress is an aggregate snapshot across a whole batch. It is
// recomputed from per-file state on every emission, never accumulated from
// deltas, so part retries cannot double count.
type BatchProgress struct {
	// UploadedBytes is the summed per-file uploaded byte estimate
	UploadedBytes int64

	// TotalBytes is the summed size of all payloads in the batch
	TotalBytes int64

	// Percent is UploadedBytes as an integer percentage of TotalBytes
	Percent int

	// CurrentFile counts files that have reported at least one progress
	// update, not files fully complete
	CurrentFile int

	// TotalFiles is the number of files in the batch
	TotalFiles int
}

// UploadOutcome is the result for one input item. Outcomes are returned in
// input order regardless of completion order.
type UploadOutcome struct {
	// StorageKey is the remote key the assembled object lives under
	StorageKey string

	// Filename is the logical name the item was uploaded as
	Filename string
}

// Coordinator is the remote service that owns multipart session lifecycle:
// it opens sessions, signs per-part storage URLs, assembles completed parts,
// and aborts abandoned sessions.
type Coordinator interface {
	// Authorize resolves and pins the credentials used by subsequent calls.
	// It is invoked once per batch, before any session is created; a failure
	// fails the whole batch with no network activity.
	Authorize(ctx context.Context) error

	// CreateSession opens a multipart session for one logical file and
	// returns the coordinator's chunking plan.
	CreateSession(ctx context.Context, filename, mimeType string, size int64) (Session, error)

	// SignPartURL returns a short-lived URL granting a direct PUT of one
	// part's bytes. URLs may be single-use; callers request a fresh one for
	// every attempt.
	SignPartURL(ctx context.Context, key, uploadID string, partNumber int) (string, error)

	// CompleteSession assembles the transmitted parts into the final object.
	// Parts must be sorted ascending by PartNumber.
	CompleteSession(ctx context.Context, key, uploadID string, parts []PartResult) error

	// AbortSession discards an unfinished session. Best effort: callers log
	// and ignore its error.
	AbortSession(ctx context.Context, key, uploadID string) error
}

// CredentialProvider supplies the authentication headers attached to every
// coordinator request. Providers are consulted once per batch; a failure
// aborts the batch before any network call.
type CredentialProvider interface {
	// AuthHeaders returns the headers (typically a bearer token) for
	// coordinator requests.
	AuthHeaders(ctx context.Context) (http.Header, error)
}

// RetryPolicy bounds per-part retry behavior. The delay before the i-th
// retry (0-based) is min(BaseDelay * 2^i, MaxDelay), deterministic with no
// jitter.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first attempt
	MaxAttempts int

	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth of retry delays
	MaxDelay time.Duration
}

// ProgressFunc receives aggregate batch progress. Callbacks are serialized
// and carry monotonically non-decreasing Percent; the final invocation of a
// successful batch reports Percent == 100.
type ProgressFunc func(progress BatchProgress)

// Configuration types for functional options

// ClientConfig holds configuration for the upload client.
type ClientConfig struct {
	BaseURL        string
	Credentials    CredentialProvider
	Coordinator    Coordinator
	HTTPClient     *http.Client
	Logger         *slog.Logger
	Concurrency    int
	RetryPolicy    RetryPolicy
	BandwidthLimit int64
}

// BatchConfig holds configuration for one UploadAll invocation via
// functional options.
type BatchConfig struct {
	Concurrency int
	Filenames   []string
	Progress    ProgressFunc
}

// Option is a functional option for configuring the upload client.
type (
	Option func(*ClientConfig)
	// BatchOption is a functional option for configuring one batch upload.
	BatchOption func(*BatchConfig)
)
