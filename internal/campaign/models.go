package campaign

import "time"

// CallRecord tracks one outbound call attempt from reservation to terminal
// status.
//
// Invariants:
// - ID is assigned exactly once, when the provider acknowledges creation;
//   queued records have no ID.
// - Status only moves forward along the transition graph (see ForwardReachable);
//   duplicate or out-of-order provider events are absorbed without regressing it.
// - Number is immutable after creation.
type CallRecord struct {
	ID     string     `json:"id,omitempty"`
	Number string     `json:"number"`
	Status CallStatus `json:"status"`

	// LastError is set only when Status is failed.
	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CallStatus string

const (
	StatusQueued     CallStatus = "queued"
	StatusInitiated  CallStatus = "initiated"
	StatusRinging    CallStatus = "ringing"
	StatusInProgress CallStatus = "in_progress"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
	StatusBusy       CallStatus = "busy"
	StatusNoAnswer   CallStatus = "no_answer"
)

// Terminal reports whether no transitions leave s.
func (s CallStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer:
		return true
	default:
		return false
	}
}

// forwardEdges is the directed call transition graph.
var forwardEdges = map[CallStatus][]CallStatus{
	StatusQueued:     {StatusInitiated},
	StatusInitiated:  {StatusRinging, StatusInProgress, StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer},
	StatusRinging:    {StatusInProgress, StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer},
}

// ForwardReachable reports whether to can be reached from from by following
// only forward edges. It does not treat equal statuses as reachable; callers
// implement the idempotent-duplicate case separately.
func ForwardReachable(from, to CallStatus) bool {
	for _, next := range forwardEdges[from] {
		if next == to {
			return true
		}
		if ForwardReachable(next, to) {
			return true
		}
	}
	return false
}

// HistoryEntry is an immutable, append-only campaign log record, written on
// every observed provider event including ones rejected as stale. Display and
// audit only; the CallRecord table is authoritative for state.
type HistoryEntry struct {
	Number    string     `json:"number"`
	Status    CallStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Snapshot is a read-consistent aggregate of campaign progress.
type Snapshot struct {
	// Total is the number of raw entries accepted at the most recent upload.
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Busy      int `json:"busy"`
	NoAnswer  int `json:"no_answer"`

	// InFlight counts finalized calls that have not reached a terminal status.
	InFlight int `json:"in_flight"`

	History []HistoryEntry `json:"history"`
}
