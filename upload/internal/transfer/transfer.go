// Package transfer transmits individual session parts to storage through
// short-lived signed URLs. Each attempt is independent: a fresh URL is
// requested every time, since signed URLs may be single-use or expire
// between attempts.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/juju/ratelimit"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/retry"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// partContentType is the content type of every part PUT; parts are opaque
// byte ranges regardless of the payload's own media type.
const partContentType = "application/octet-stream"

// Config carries the collaborators and limits for part transmission.
type Config struct {
	// Coordinator signs per-part storage URLs
	Coordinator uploadtypes.Coordinator

	// HTTPClient performs the direct storage PUTs
	HTTPClient *http.Client

	// Policy bounds per-part retry behavior
	Policy uploadtypes.RetryPolicy

	// Bucket optionally throttles upload bandwidth (nil for unthrottled)
	Bucket *ratelimit.Bucket

	// Logger optionally records attempt failures (nil for silent)
	Logger *slog.Logger
}

// Transmitter sends the parts of one or more sessions to storage.
type Transmitter struct {
	coordinator uploadtypes.Coordinator
	httpClient  *http.Client
	policy      uploadtypes.RetryPolicy
	bucket      *ratelimit.Bucket
	logger      *slog.Logger
}

// New creates a Transmitter from the given configuration.
func New(cfg Config) *Transmitter {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Transmitter{
		coordinator: cfg.Coordinator,
		httpClient:  httpClient,
		policy:      cfg.Policy,
		bucket:      cfg.Bucket,
		logger:      cfg.Logger,
	}
}

// SendPart transmits one part's bytes and returns its integrity token.
// A failure at either protocol step (signed URL fetch, storage PUT) counts
// as one failed attempt; failures are retried silently under the policy and
// surface as ErrPartUploadFailed only once the budget is exhausted. No
// partial state is visible to callers between attempts.
func (t *Transmitter) SendPart(
	ctx context.Context,
	session uploadtypes.Session,
	partNumber int,
	body []byte,
) (uploadtypes.PartResult, error) {
	var result uploadtypes.PartResult
	attempt := 0

	err := retry.Do(ctx, t.policy, func(ctx context.Context) error {
		attempt++

		url, err := t.coordinator.SignPartURL(ctx, session.Key, session.UploadID, partNumber)
		if err != nil {
			t.logAttemptFailure(ctx, session, partNumber, attempt, err)
			return fmt.Errorf("signing part url: %w", err)
		}

		etag, err := t.put(ctx, url, body)
		if err != nil {
			t.logAttemptFailure(ctx, session, partNumber, attempt, err)
			return err
		}

		result = uploadtypes.PartResult{PartNumber: partNumber, ETag: etag}
		return nil
	})
	if err != nil {
		return uploadtypes.PartResult{}, errors.NewError("sendPart",
			fmt.Errorf("%w after %d attempts: %w", errors.ErrPartUploadFailed, attempt, err)).
			WithKey(session.Key).
			WithPart(partNumber)
	}

	return result, nil
}

// put issues the direct storage PUT and reads back the entity tag.
func (t *Transmitter) put(ctx context.Context, url string, body []byte) (string, error) {
	var reader io.Reader = bytes.NewReader(body)
	if t.bucket != nil {
		reader = ratelimit.Reader(reader, t.bucket)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, reader)
	if err != nil {
		return "", fmt.Errorf("building storage request: %w", err)
	}
	req.Header.Set("Content-Type", partContentType)
	req.ContentLength = int64(len(body))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage put: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("storage returned status %d", resp.StatusCode)
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", fmt.Errorf("storage response missing ETag")
	}

	return etag, nil
}

// logAttemptFailure records a swallowed attempt failure. Intermediate
// failures never reach the caller, so the log is the only trace of them.
func (t *Transmitter) logAttemptFailure(
	ctx context.Context,
	session uploadtypes.Session,
	partNumber, attempt int,
	err error,
) {
	if t.logger != nil {
		t.logger.DebugContext(ctx, "part attempt failed",
			"key", session.Key,
			"upload_id", session.UploadID,
			"part_number", partNumber,
			"attempt", attempt,
			"error", err)
	}
}
