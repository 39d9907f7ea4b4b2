package upload

import (
	"context"
	"fmt"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/codec"
	"github.com/emergent-lab/flow-extension/upload/internal/validation"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// Upload uploads a single base64-encoded capture under the given logical
// filename and returns its storage outcome.
//
// The encoded payload must be a data URL. The flow is the same as one
// UploadAll item: decode, create a session, transmit parts sequentially
// with per-part retries, then finalize. A finalize failure aborts the
// session before the error is returned.
//
// Errors:
//   - ErrInvalidInput: the filename is empty or unsafe
//   - ErrMalformedInput: the payload is not a decodable data URL
//   - ErrCredentialUnavailable: the credential provider failed
//   - ErrSessionCreateFailed: the coordinator rejected the session
//   - ErrPartUploadFailed: a part failed after exhausting its retry budget
//   - ErrFinalizeFailed: the coordinator could not assemble the parts
func (c *Client) Upload(
	ctx context.Context,
	encoded, filename string,
) (uploadtypes.UploadOutcome, error) {
	if err := validation.ValidateFilename(filename); err != nil {
		return uploadtypes.UploadOutcome{}, err
	}

	item, err := codec.Decode(encoded)
	if err != nil {
		return uploadtypes.UploadOutcome{}, err
	}

	if err := c.authorize(ctx); err != nil {
		return uploadtypes.UploadOutcome{}, err
	}

	return c.uploadFile(ctx, item, filename, nil)
}

// authorize resolves credentials through the coordinator, once per batch.
func (c *Client) authorize(ctx context.Context) error {
	if err := c.coordinator.Authorize(ctx); err != nil {
		return errors.NewError("authorize",
			fmt.Errorf("%w: %w", errors.ErrCredentialUnavailable, err))
	}

	return nil
}

// uploadFile runs the per-file pipeline: negotiate a session, transmit the
// parts in order, and finalize. report, when non-nil, receives the running
// uploaded-bytes estimate after each part.
//
// Parts within one file are strictly sequential; concurrency exists only
// across files. A part failure returns without aborting the session, since
// an interrupted session may still be resumed or reclaimed by the
// coordinator. A finalize failure aborts exactly once, best effort.
func (c *Client) uploadFile(
	ctx context.Context,
	item codec.Item,
	filename string,
	report func(uploadedBytes int64),
) (uploadtypes.UploadOutcome, error) {
	size := item.Size()

	session, err := c.coordinator.CreateSession(ctx, filename, item.MIME, size)
	if err != nil {
		return uploadtypes.UploadOutcome{}, errors.NewError("createSession",
			fmt.Errorf("%w: %w", errors.ErrSessionCreateFailed, err)).
			WithFilename(filename)
	}
	if err := validation.ValidateSession(session, size); err != nil {
		return uploadtypes.UploadOutcome{}, err
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "upload session created",
			"filename", filename,
			"key", session.Key,
			"upload_id", session.UploadID,
			"size", size,
			"total_parts", session.TotalParts)
	}

	parts := make([]uploadtypes.PartResult, 0, session.TotalParts)
	for partNumber := 1; partNumber <= session.TotalParts; partNumber++ {
		start := int64(partNumber-1) * session.PartSize
		end := start + session.PartSize
		if end > size {
			end = size
		}

		result, err := c.transmitter.SendPart(ctx, session, partNumber, item.Data[start:end])
		if err != nil {
			return uploadtypes.UploadOutcome{}, err
		}
		parts = append(parts, result)

		if report != nil {
			// The estimate is plan-derived, min(partNumber*PartSize, size):
			// the final part reports the file's exact full size.
			uploaded := int64(partNumber) * session.PartSize
			if uploaded > size {
				uploaded = size
			}
			report(uploaded)
		}
	}

	if err := c.coordinator.CompleteSession(ctx, session.Key, session.UploadID, parts); err != nil {
		c.abortSession(ctx, session)
		return uploadtypes.UploadOutcome{}, errors.NewError("finalize",
			fmt.Errorf("%w: %w", errors.ErrFinalizeFailed, err)).
			WithFilename(filename).
			WithKey(session.Key)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "upload finalized",
			"filename", filename,
			"key", session.Key,
			"parts", len(parts))
	}

	return uploadtypes.UploadOutcome{StorageKey: session.Key, Filename: filename}, nil
}

// abortSession discards a session whose finalize failed. Best effort: the
// abort error is logged and swallowed, the finalize failure is what callers
// see.
func (c *Client) abortSession(ctx context.Context, session uploadtypes.Session) {
	if err := c.coordinator.AbortSession(ctx, session.Key, session.UploadID); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "session abort failed",
			"key", session.Key,
			"upload_id", session.UploadID,
			"error", err)
	}
}
