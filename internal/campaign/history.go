package campaign

import (
	"context"
	"sync"
)

// Recorder is the persistence contract for campaign history mirrors.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
// Appends are best-effort: failures are logged by the caller and never block
// call processing. The in-store history remains authoritative for snapshots.
type Recorder interface {
	Append(ctx context.Context, campaignID string, e HistoryEntry) error
}

// MemoryRecorder is a simple in-memory append-only recorder useful for tests.
// It is not intended for production use.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (r *MemoryRecorder) Append(ctx context.Context, campaignID string, e HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRecorder) Entries() []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]HistoryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
