package campaign

import (
	"context"
	"errors"
	"sync"
	"time"

	"campaign-dialer/pkg/logger"

	"github.com/google/uuid"
)

var ErrUnknownHandle = errors.New("campaign: unknown reservation handle")

// Store is the concurrency-safe call record table for one campaign, plus its
// append-only history log.
//
// All mutations serialize under one mutex so the read-decide-write of the
// forward-only transition rule is race-free. Progress counters are maintained
// inside the same critical section as transitions, keeping Snapshot O(1) plus
// the bounded recent-history copy.
//
// History entries are additionally mirrored to an optional Recorder
// best-effort, outside the lock; the in-memory log stays authoritative.
type Store struct {
	campaignID string

	mu      sync.Mutex
	records map[string]*CallRecord // keyed by provider call id
	pending map[string]*CallRecord // keyed by reservation handle
	history []HistoryEntry

	total          int
	finalized      int
	completed      int
	failedCalls    int
	busy           int
	noAnswer       int
	failedDispatch int // normalization + call-creation failures, never finalized

	recorder Recorder
	clock    func() time.Time
}

// NewStore creates the record table for one campaign. total is the number of
// raw entries accepted at upload; recorder may be nil.
func NewStore(campaignID string, total int, recorder Recorder) *Store {
	return &Store{
		campaignID: campaignID,
		records:    make(map[string]*CallRecord),
		pending:    make(map[string]*CallRecord),
		total:      total,
		recorder:   recorder,
		clock:      time.Now,
	}
}

func (s *Store) CampaignID() string { return s.campaignID }

// Reserve creates a pending slot for a normalized number before the provider
// call id is known, and returns the handle used to finalize or fail it.
func (s *Store) Reserve(number string) string {
	handle := uuid.NewString()
	now := s.clock().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[handle] = &CallRecord{
		Number:    number,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return handle
}

// Finalize assigns the provider call id to a reserved slot and moves it to
// initiated. A duplicate id (provider retry) is absorbed as a no-op.
func (s *Store) Finalize(ctx context.Context, handle, id string) error {
	now := s.clock().UTC()

	s.mu.Lock()
	rec, ok := s.pending[handle]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownHandle
	}
	delete(s.pending, handle)

	if _, exists := s.records[id]; exists {
		// Provider retry re-delivered an id we already track.
		s.mu.Unlock()
		return nil
	}

	rec.ID = id
	rec.Status = StatusInitiated
	rec.UpdatedAt = now
	s.records[id] = rec
	s.finalized++

	e := HistoryEntry{Number: rec.Number, Status: StatusInitiated, Timestamp: now}
	s.history = append(s.history, e)
	s.mu.Unlock()

	s.mirror(ctx, e)
	return nil
}

// FailReserved discards a reserved slot whose call creation failed. The
// record never enters the table; the failure lands in history only.
func (s *Store) FailReserved(ctx context.Context, handle, reason string) error {
	s.mu.Lock()
	rec, ok := s.pending[handle]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownHandle
	}
	delete(s.pending, handle)
	number := rec.Number
	s.mu.Unlock()

	s.FailDispatch(ctx, number, reason)
	return nil
}

// FailDispatch records a dispatch that never produced a call: a rejected
// number or a failed provider request.
func (s *Store) FailDispatch(ctx context.Context, number, reason string) {
	now := s.clock().UTC()
	e := HistoryEntry{Number: number, Status: StatusFailed, Error: reason, Timestamp: now}

	s.mu.Lock()
	s.failedDispatch++
	s.history = append(s.history, e)
	s.mu.Unlock()

	s.mirror(ctx, e)
}

// ApplyEvent reconciles one asynchronous provider event. The transition is
// applied only when the target status is forward-reachable from the current
// one; duplicates and stale reorderings are absorbed, logged to history, and
// never regress the record. The returned bool reports whether the record
// changed.
//
// An unknown id creates a minimal initiated record: under extreme scheduling
// skew a callback can arrive before the dispatcher finalizes locally.
func (s *Store) ApplyEvent(ctx context.Context, id, number string, status CallStatus, errMsg string) bool {
	now := s.clock().UTC()

	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		rec = &CallRecord{
			ID:        id,
			Number:    number,
			Status:    StatusInitiated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.records[id] = rec
		s.finalized++
	}

	applied := false
	if status != rec.Status && ForwardReachable(rec.Status, status) {
		rec.Status = status
		rec.UpdatedAt = now
		if status == StatusFailed {
			rec.LastError = errMsg
		}
		switch status {
		case StatusCompleted:
			s.completed++
		case StatusFailed:
			s.failedCalls++
		case StatusBusy:
			s.busy++
		case StatusNoAnswer:
			s.noAnswer++
		}
		applied = true
	}

	e := HistoryEntry{Number: rec.Number, Status: status, Error: errMsg, Timestamp: now}
	s.history = append(s.history, e)
	s.mu.Unlock()

	s.mirror(ctx, e)
	return applied
}

// Has reports whether this campaign placed the call with the given id.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (CallRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return CallRecord{}, false
	}
	return *rec, true
}

// Snapshot aggregates campaign progress with the most recent limit history
// entries, newest last.
func (s *Store) Snapshot(limit int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Total:     s.total,
		Completed: s.completed,
		Failed:    s.failedCalls + s.failedDispatch,
		Busy:      s.busy,
		NoAnswer:  s.noAnswer,
		InFlight:  s.finalized - s.completed - s.failedCalls - s.busy - s.noAnswer,
	}

	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out.History = make([]HistoryEntry, limit)
	copy(out.History, s.history[n-limit:])
	return out
}

// Finalized reports how many calls received a provider id.
func (s *Store) Finalized() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

func (s *Store) mirror(ctx context.Context, e HistoryEntry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Append(ctx, s.campaignID, e); err != nil {
		logger.From(ctx).Warn("history mirror append failed", "campaign_id", s.campaignID, "err", err)
	}
}
