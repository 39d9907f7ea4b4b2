// Package testutil provides test utilities for progress tracking.
package testutil

import (
	"sync"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// ProgressRecorder captures every batch progress emission for later
// inspection. Record is safe for concurrent use.
type ProgressRecorder struct {
	mu        sync.Mutex
	snapshots []uploadtypes.BatchProgress
}

// Record stores one progress snapshot. Pass it as the batch ProgressFunc.
func (r *ProgressRecorder) Record(p uploadtypes.BatchProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, p)
}

// Snapshots returns a copy of all recorded emissions in order.
func (r *ProgressRecorder) Snapshots() []uploadtypes.BatchProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uploadtypes.BatchProgress, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Count returns the number of recorded emissions.
func (r *ProgressRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// Last returns the most recent emission and whether one exists.
func (r *ProgressRecorder) Last() (uploadtypes.BatchProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return uploadtypes.BatchProgress{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}
