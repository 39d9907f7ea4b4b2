package upload

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/emergent-lab/flow-extension/upload/internal/codec"
	"github.com/emergent-lab/flow-extension/upload/internal/validation"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// UploadAll uploads a batch of base64-encoded captures and returns one
// outcome per input, in input order. Files upload in parallel up to the
// configured concurrency; parts within each file stay sequential.
//
// All payloads are decoded before any network activity, so a malformed
// item rejects the batch without side effects. Credentials are resolved
// once for the whole batch. On the first file failure the batch stops
// claiming new files, drains the uploads already in flight, and returns
// that first error with no outcomes.
//
// An empty input returns an empty outcome slice immediately: no credential
// resolution, no network activity, no progress callbacks.
func (c *Client) UploadAll(
	ctx context.Context,
	encoded []string,
	opts ...uploadtypes.BatchOption,
) ([]uploadtypes.UploadOutcome, error) {
	cfg := &uploadtypes.BatchConfig{Concurrency: c.concurrency}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(encoded) == 0 {
		return []uploadtypes.UploadOutcome{}, nil
	}

	filenames := cfg.Filenames
	if filenames == nil {
		filenames = defaultFilenames(len(encoded))
	}
	if err := validation.ValidateFilenames(filenames, len(encoded)); err != nil {
		return nil, err
	}

	items := make([]codec.Item, len(encoded))
	var totalBytes int64
	for i, payload := range encoded {
		item, err := codec.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding item %d: %w", i, err)
		}
		items[i] = item
		totalBytes += item.Size()
	}

	if err := c.authorize(ctx); err != nil {
		return nil, err
	}

	var tracker *progressTracker
	if cfg.Progress != nil {
		tracker = newProgressTracker(len(encoded), totalBytes, cfg.Progress)
	}

	workers := cfg.Concurrency
	if workers > len(encoded) {
		workers = len(encoded)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "batch started",
			"files", len(encoded),
			"total_bytes", totalBytes,
			"workers", workers)
	}

	// FIFO queue of input indices. Workers claim in input order, so with n
	// inputs and k workers the first k files start first.
	queue := make(chan int, len(encoded))
	for i := range encoded {
		queue <- i
	}
	close(queue)

	outcomes := make([]uploadtypes.UploadOutcome, len(encoded))

	var failed atomic.Bool
	group := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for index := range queue {
				if failed.Load() {
					return nil
				}

				var report func(int64)
				if tracker != nil {
					report = func(uploadedBytes int64) {
						tracker.update(index, uploadedBytes)
					}
				}

				outcome, err := c.uploadFile(ctx, items[index], filenames[index], report)
				if err != nil {
					failed.Store(true)
					return err
				}
				outcomes[index] = outcome
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "batch failed", "error", err)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "batch completed",
			"files", len(encoded),
			"total_bytes", totalBytes)
	}

	return outcomes, nil
}

// defaultFilenames generates the page_<n>.png names used when the caller
// does not supply its own, numbered from 1 in input order.
func defaultFilenames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("page_%d.png", i+1)
	}
	return names
}
