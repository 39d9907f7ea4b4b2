package upload

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/emergent-lab/flow-extension/upload/errors"
	"github.com/emergent-lab/flow-extension/upload/internal/testutil"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// pngBatch builds n distinct PNG data URLs.
func pngBatch(n int) []string {
	batch := make([]string, n)
	for i := range batch {
		batch[i] = testutil.PNGDataURL(8+i, 8)
	}
	return batch
}

func TestUploadAllDefaultFilenames(t *testing.T) {
	_, coordinator := newPipeline(t, testutil.DefaultPartSize)
	client := newTestClient(coordinator)

	recorder := &testutil.ProgressRecorder{}
	outcomes, err := client.UploadAll(context.Background(), pngBatch(4), WithProgress(recorder.Record))
	require.NoError(t, err)

	require.Len(t, outcomes, 4)
	for i, outcome := range outcomes {
		assert.Equal(t, fmt.Sprintf("page_%d.png", i+1), outcome.Filename)
		assert.Equal(t, fmt.Sprintf("captures/page_%d.png", i+1), outcome.StorageKey)
	}

	final, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, 100, final.Percent)
	assert.Equal(t, 4, final.CurrentFile)
	assert.Equal(t, 4, final.TotalFiles)
}

func TestUploadAllEmptyInput(t *testing.T) {
	var authorizes int
	coordinator := &testutil.MockCoordinator{
		AuthorizeFunc: func(ctx context.Context) error {
			authorizes++
			return nil
		},
	}
	client := newTestClient(coordinator)

	recorder := &testutil.ProgressRecorder{}
	outcomes, err := client.UploadAll(context.Background(), nil, WithProgress(recorder.Record))
	require.NoError(t, err)

	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
	assert.Equal(t, 0, authorizes, "an empty batch must not touch credentials")
	assert.Equal(t, 0, recorder.Count(), "an empty batch must not emit progress")
}

func TestUploadAllCustomFilenames(t *testing.T) {
	_, coordinator := newPipeline(t, testutil.DefaultPartSize)
	client := newTestClient(coordinator)

	outcomes, err := client.UploadAll(context.Background(), pngBatch(2),
		WithFilenames([]string{"cover.png", "appendix.png"}))
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "cover.png", outcomes[0].Filename)
	assert.Equal(t, "appendix.png", outcomes[1].Filename)
}

func TestUploadAllFilenameCountMismatch(t *testing.T) {
	var authorizes int
	coordinator := &testutil.MockCoordinator{
		AuthorizeFunc: func(ctx context.Context) error {
			authorizes++
			return nil
		},
	}
	client := newTestClient(coordinator)

	_, err := client.UploadAll(context.Background(), pngBatch(3),
		WithFilenames([]string{"only-one.png"}))
	require.Error(t, err)

	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "got 1 filenames for 3 items")
	assert.Equal(t, 0, authorizes)
}

func TestUploadAllPreservesInputOrder(t *testing.T) {
	_, coordinator := newPipeline(t, 32)
	client := newTestClient(coordinator, WithConcurrency(3))

	// Different payload sizes so completion order differs from input order.
	batch := make([]string, 6)
	for i := range batch {
		batch[i] = testutil.DataURL("application/octet-stream", patternBytes(16+i*48))
	}

	outcomes, err := client.UploadAll(context.Background(), batch)
	require.NoError(t, err)

	require.Len(t, outcomes, 6)
	for i, outcome := range outcomes {
		assert.Equal(t, fmt.Sprintf("page_%d.png", i+1), outcome.Filename,
			"outcome %d must sit at its input index", i)
	}
}

func TestUploadAllConcurrencyCap(t *testing.T) {
	storage := newStorageStub(t)

	// The create step sleeps briefly so file uploads overlap and the gauge
	// actually observes parallelism.
	var mu sync.Mutex
	active, maxActive := 0, 0
	coordinator := &testutil.MockCoordinator{
		CreateSessionFunc: func(ctx context.Context, filename, mimeType string, size int64) (uploadtypes.Session, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			return testutil.PlanSession(filename, size, testutil.DefaultPartSize), nil
		},
		SignPartURLFunc: func(ctx context.Context, key, uploadID string, partNumber int) (string, error) {
			return storage.url(key, uploadID, partNumber), nil
		},
		CompleteSessionFunc: func(ctx context.Context, key, uploadID string, parts []uploadtypes.PartResult) error {
			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	}

	client := newTestClient(coordinator)

	outcomes, err := client.UploadAll(context.Background(), pngBatch(10))
	require.NoError(t, err)
	require.Len(t, outcomes, 10)

	assert.LessOrEqual(t, maxActive, 4, "default concurrency caps parallel files at 4")

	// A per-call override must tighten the cap.
	maxActive, active = 0, 0
	outcomes, err = client.UploadAll(context.Background(), pngBatch(6), WithBatchConcurrency(2))
	require.NoError(t, err)
	require.Len(t, outcomes, 6)

	assert.LessOrEqual(t, maxActive, 2)
}

func TestUploadAllProgress(t *testing.T) {
	_, coordinator := newPipeline(t, 32)
	client := newTestClient(coordinator)

	// Three payloads of two parts each: six part completions, six snapshots.
	batch := make([]string, 3)
	var totalBytes int64
	for i := range batch {
		payload := patternBytes(64)
		batch[i] = testutil.DataURL("application/octet-stream", payload)
		totalBytes += int64(len(payload))
	}

	recorder := &testutil.ProgressRecorder{}
	_, err := client.UploadAll(context.Background(), batch, WithProgress(recorder.Record))
	require.NoError(t, err)

	snapshots := recorder.Snapshots()
	require.Len(t, snapshots, 6)

	for i, snapshot := range snapshots {
		assert.Equal(t, totalBytes, snapshot.TotalBytes, "snapshot %d", i)
		assert.Equal(t, 3, snapshot.TotalFiles, "snapshot %d", i)
		if i > 0 {
			assert.GreaterOrEqual(t, snapshot.Percent, snapshots[i-1].Percent,
				"percent must never decrease")
			assert.GreaterOrEqual(t, snapshot.UploadedBytes, snapshots[i-1].UploadedBytes,
				"uploaded bytes must never decrease")
			assert.GreaterOrEqual(t, snapshot.CurrentFile, snapshots[i-1].CurrentFile,
				"started files must never decrease")
		}
	}

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, uploadtypes.BatchProgress{
		UploadedBytes: totalBytes,
		TotalBytes:    totalBytes,
		Percent:       100,
		CurrentFile:   3,
		TotalFiles:    3,
	}, final)
}

func TestUploadAllResolvesCredentialsOnce(t *testing.T) {
	_, coordinator := newPipeline(t, testutil.DefaultPartSize)

	var authorizes int
	coordinator.AuthorizeFunc = func(ctx context.Context) error {
		authorizes++
		return nil
	}

	client := newTestClient(coordinator)

	_, err := client.UploadAll(context.Background(), pngBatch(5))
	require.NoError(t, err)

	assert.Equal(t, 1, authorizes, "credentials are resolved once per batch, not per file")
}

func TestUploadAllCredentialFailure(t *testing.T) {
	var creates int
	coordinator := &testutil.MockCoordinator{
		AuthorizeFunc: func(ctx context.Context) error {
			return fmt.Errorf("provider offline")
		},
		CreateSessionFunc: func(ctx context.Context, filename, mimeType string, size int64) (uploadtypes.Session, error) {
			creates++
			return testutil.PlanSession(filename, size, testutil.DefaultPartSize), nil
		},
	}

	client := newTestClient(coordinator)

	recorder := &testutil.ProgressRecorder{}
	_, err := client.UploadAll(context.Background(), pngBatch(3), WithProgress(recorder.Record))
	require.Error(t, err)

	assert.True(t, errors.IsCredentialUnavailable(err))
	assert.Equal(t, 0, creates, "no session may be created without credentials")
	assert.Equal(t, 0, recorder.Count())
}

func TestUploadAllMalformedItemFailsBeforeNetwork(t *testing.T) {
	var authorizes int
	coordinator := &testutil.MockCoordinator{
		AuthorizeFunc: func(ctx context.Context) error {
			authorizes++
			return nil
		},
	}

	client := newTestClient(coordinator)

	batch := []string{
		testutil.PNGDataURL(8, 8),
		"data:image/png;base64,%%%not-base64%%%",
		testutil.PNGDataURL(8, 8),
	}
	_, err := client.UploadAll(context.Background(), batch)
	require.Error(t, err)

	assert.True(t, errors.IsMalformedInput(err))
	assert.Contains(t, err.Error(), "item 1")
	assert.Equal(t, 0, authorizes, "a malformed item rejects the batch before any network call")
}

func TestUploadAllStopsClaimingAfterFailure(t *testing.T) {
	storage := newStorageStub(t)

	var mu sync.Mutex
	var created []string
	coordinator := &testutil.MockCoordinator{
		CreateSessionFunc: func(ctx context.Context, filename, mimeType string, size int64) (uploadtypes.Session, error) {
			mu.Lock()
			created = append(created, filename)
			mu.Unlock()
			if filename == "page_2.png" {
				return uploadtypes.Session{}, fmt.Errorf("storage backend rejected the key")
			}
			return testutil.PlanSession(filename, size, testutil.DefaultPartSize), nil
		},
		SignPartURLFunc: func(ctx context.Context, key, uploadID string, partNumber int) (string, error) {
			return storage.url(key, uploadID, partNumber), nil
		},
	}

	client := newTestClient(coordinator)

	outcomes, err := client.UploadAll(context.Background(), pngBatch(4), WithBatchConcurrency(1))
	require.Error(t, err)

	assert.Nil(t, outcomes)
	assert.True(t, errors.IsSessionCreateFailed(err))
	assert.Contains(t, err.Error(), "storage backend rejected the key")
	assert.Equal(t, []string{"page_1.png", "page_2.png"}, created,
		"a single worker must not claim further files after the failure")
}

func TestUploadAllPartFailureDoesNotAbort(t *testing.T) {
	storage, coordinator := newPipeline(t, testutil.DefaultPartSize)
	storage.rejectAll()

	var aborts int
	coordinator.AbortSessionFunc = func(ctx context.Context, key, uploadID string) error {
		aborts++
		return nil
	}

	client := newTestClient(coordinator)

	_, err := client.UploadAll(context.Background(), pngBatch(2), WithBatchConcurrency(1))
	require.Error(t, err)

	assert.True(t, errors.IsPartUploadFailed(err))
	assert.Equal(t, 0, aborts)
}

func TestUploadAllConcurrentBatchesShareClient(t *testing.T) {
	_, coordinator := newPipeline(t, testutil.DefaultPartSize)
	client := newTestClient(coordinator)

	var group errgroup.Group
	for i := 0; i < 3; i++ {
		group.Go(func() error {
			outcomes, err := client.UploadAll(context.Background(), pngBatch(4))
			if err != nil {
				return err
			}
			if len(outcomes) != 4 {
				return fmt.Errorf("got %d outcomes, want 4", len(outcomes))
			}
			return nil
		})
	}

	require.NoError(t, group.Wait())
}
