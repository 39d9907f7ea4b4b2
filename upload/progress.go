package upload

import (
	"sync"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// progressTracker aggregates per-file upload estimates into batch snapshots.
// State is index-aligned with the batch inputs. Snapshots are recomputed
// from the full state on every update rather than accumulated from deltas,
// so a retried part can never double count.
type progressTracker struct {
	mu       sync.Mutex
	uploaded []int64
	started  []bool
	total    int64
	callback uploadtypes.ProgressFunc
}

// newProgressTracker creates a tracker for a batch of files whose payloads
// sum to totalBytes.
func newProgressTracker(files int, totalBytes int64, callback uploadtypes.ProgressFunc) *progressTracker {
	return &progressTracker{
		uploaded: make([]int64, files),
		started:  make([]bool, files),
		total:    totalBytes,
		callback: callback,
	}
}

// update records a new uploaded-bytes estimate for one file and emits a
// snapshot. The callback runs under the tracker lock, so emissions are
// serialized and Percent never decreases.
func (p *progressTracker) update(index int, uploadedBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started[index] = true
	p.uploaded[index] = uploadedBytes

	p.callback(p.snapshotLocked())
}

// snapshotLocked recomputes the aggregate view. Callers must hold mu.
func (p *progressTracker) snapshotLocked() uploadtypes.BatchProgress {
	var uploadedBytes int64
	currentFile := 0
	for i, n := range p.uploaded {
		uploadedBytes += n
		if p.started[i] {
			currentFile++
		}
	}

	percent := 0
	if p.total > 0 {
		percent = int(uploadedBytes * 100 / p.total)
	}

	return uploadtypes.BatchProgress{
		UploadedBytes: uploadedBytes,
		TotalBytes:    p.total,
		Percent:       percent,
		CurrentFile:   currentFile,
		TotalFiles:    len(p.uploaded),
	}
}
