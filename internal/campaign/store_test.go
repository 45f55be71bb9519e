package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

func TestStore_ReserveFinalize(t *testing.T) {
	st := NewStore("c1", 1, nil)

	h := st.Reserve("+15551234567")
	if err := st.Finalize(context.Background(), h, "CA1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rec, ok := st.Get("CA1")
	if !ok {
		t.Fatalf("expected record")
	}
	if rec.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %s", rec.Status)
	}
	if rec.Number != "+15551234567" {
		t.Fatalf("unexpected number %q", rec.Number)
	}
	if st.Finalized() != 1 {
		t.Fatalf("expected finalized 1, got %d", st.Finalized())
	}

	snap := st.Snapshot(10)
	if snap.InFlight != 1 {
		t.Fatalf("expected in_flight 1, got %d", snap.InFlight)
	}
	if len(snap.History) != 1 || snap.History[0].Status != StatusInitiated {
		t.Fatalf("expected one initiated history entry, got %+v", snap.History)
	}
}

func TestStore_DuplicateFinalizeIsNoOp(t *testing.T) {
	st := NewStore("c1", 2, nil)

	h1 := st.Reserve("+15551234567")
	if err := st.Finalize(context.Background(), h1, "CA1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Provider retry handed the same id back for a second slot.
	h2 := st.Reserve("+15557654321")
	if err := st.Finalize(context.Background(), h2, "CA1"); err != nil {
		t.Fatalf("duplicate id must be absorbed, got %v", err)
	}

	if st.Finalized() != 1 {
		t.Fatalf("expected finalized 1, got %d", st.Finalized())
	}
	rec, _ := st.Get("CA1")
	if rec.Number != "+15551234567" {
		t.Fatalf("original record must win, got %q", rec.Number)
	}
}

func TestStore_FinalizeUnknownHandle(t *testing.T) {
	st := NewStore("c1", 0, nil)
	if err := st.Finalize(context.Background(), "nope", "CA1"); err != ErrUnknownHandle {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestStore_FailReservedLandsInHistoryOnly(t *testing.T) {
	st := NewStore("c1", 1, nil)

	h := st.Reserve("+15551234567")
	if err := st.FailReserved(context.Background(), h, "provider quota exceeded"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, ok := st.Get("CA1"); ok {
		t.Fatalf("failed dispatch must not enter the record table")
	}
	snap := st.Snapshot(10)
	if snap.Failed != 1 {
		t.Fatalf("expected failed 1, got %d", snap.Failed)
	}
	if snap.InFlight != 0 {
		t.Fatalf("expected in_flight 0, got %d", snap.InFlight)
	}
	if len(snap.History) != 1 || snap.History[0].Error != "provider quota exceeded" {
		t.Fatalf("expected failure history entry, got %+v", snap.History)
	}
}

func TestStore_ApplyEventForwardOnly(t *testing.T) {
	st := NewStore("c1", 1, nil)
	h := st.Reserve("+15551234567")
	_ = st.Finalize(context.Background(), h, "CA1")

	ctx := context.Background()
	if !st.ApplyEvent(ctx, "CA1", "+15551234567", StatusCompleted, "") {
		t.Fatalf("expected completed to apply")
	}
	// ringing after completed: logged, not applied
	if st.ApplyEvent(ctx, "CA1", "+15551234567", StatusRinging, "") {
		t.Fatalf("stale ringing must not apply")
	}
	rec, _ := st.Get("CA1")
	if rec.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}

	// the stale event is still in history for audit
	snap := st.Snapshot(10)
	last := snap.History[len(snap.History)-1]
	if last.Status != StatusRinging {
		t.Fatalf("expected stale event in history, got %+v", last)
	}
}

func TestStore_NoLostCompletionUnderReordering(t *testing.T) {
	orders := [][]CallStatus{
		{StatusRinging, StatusCompleted},
		{StatusCompleted, StatusRinging},
		{StatusCompleted, StatusCompleted, StatusRinging, StatusRinging},
	}
	for _, order := range orders {
		st := NewStore("c1", 1, nil)
		h := st.Reserve("+15551234567")
		_ = st.Finalize(context.Background(), h, "CA1")

		for _, s := range order {
			st.ApplyEvent(context.Background(), "CA1", "+15551234567", s, "")
		}
		rec, _ := st.Get("CA1")
		if rec.Status != StatusCompleted {
			t.Fatalf("order %v: expected completed, got %s", order, rec.Status)
		}
		snap := st.Snapshot(0)
		if snap.Completed != 1 {
			t.Fatalf("order %v: expected completed count 1, got %d", order, snap.Completed)
		}
		if snap.InFlight != 0 {
			t.Fatalf("order %v: expected in_flight 0, got %d", order, snap.InFlight)
		}
	}
}

func TestStore_DuplicateEventIsIdempotent(t *testing.T) {
	st := NewStore("c1", 1, nil)
	h := st.Reserve("+15551234567")
	_ = st.Finalize(context.Background(), h, "CA1")

	if !st.ApplyEvent(context.Background(), "CA1", "+15551234567", StatusRinging, "") {
		t.Fatalf("expected first ringing to apply")
	}
	if st.ApplyEvent(context.Background(), "CA1", "+15551234567", StatusRinging, "") {
		t.Fatalf("duplicate ringing must be a no-op")
	}
}

func TestStore_ApplyEventUnknownIDCreatesRecord(t *testing.T) {
	st := NewStore("c1", 1, nil)

	if !st.ApplyEvent(context.Background(), "CA9", "+15551234567", StatusRinging, "") {
		t.Fatalf("expected event to apply on defensive record")
	}
	rec, ok := st.Get("CA9")
	if !ok {
		t.Fatalf("expected defensive record")
	}
	if rec.Status != StatusRinging {
		t.Fatalf("expected ringing, got %s", rec.Status)
	}
	if st.Finalized() != 1 {
		t.Fatalf("defensive record must count as finalized")
	}
}

func TestStore_FailedEventSetsLastError(t *testing.T) {
	st := NewStore("c1", 1, nil)
	h := st.Reserve("+15551234567")
	_ = st.Finalize(context.Background(), h, "CA1")

	st.ApplyEvent(context.Background(), "CA1", "+15551234567", StatusFailed, "carrier rejected")
	rec, _ := st.Get("CA1")
	if rec.LastError != "carrier rejected" {
		t.Fatalf("expected last_error set, got %q", rec.LastError)
	}
}

func TestStore_MirrorsHistoryToRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	st := NewStore("c1", 1, rec)

	h := st.Reserve("+15551234567")
	_ = st.Finalize(context.Background(), h, "CA1")
	st.ApplyEvent(context.Background(), "CA1", "+15551234567", StatusCompleted, "")

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 mirrored entries, got %d", len(entries))
	}
	if entries[0].Status != StatusInitiated || entries[1].Status != StatusCompleted {
		t.Fatalf("unexpected mirrored entries: %+v", entries)
	}
}

func TestStore_ConcurrentWebhookSafety(t *testing.T) {
	st := NewStore("c1", 100, nil)

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("CA%03d", i)
		h := st.Reserve(fmt.Sprintf("+1555123%04d", i))
		if err := st.Finalize(context.Background(), h, ids[i]); err != nil {
			t.Fatalf("finalize %d: %v", i, err)
		}
	}

	hot := ids[0]
	hotEvents := []CallStatus{StatusRinging, StatusInProgress, StatusCompleted, StatusRinging, StatusInProgress}

	var wg sync.WaitGroup
	for i := 1; i < len(ids); i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			st.ApplyEvent(context.Background(), id, "", StatusCompleted, "")
		}(ids[i])
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(s CallStatus) {
			defer wg.Done()
			st.ApplyEvent(context.Background(), hot, "", s, "")
		}(hotEvents[rand.Intn(len(hotEvents))])
	}
	wg.Wait()
	// The forward-reachable maximum for the hot record must win regardless
	// of delivery order.
	st.ApplyEvent(context.Background(), hot, "", StatusCompleted, "")

	if st.Finalized() != 100 {
		t.Fatalf("expected finalized 100, got %d", st.Finalized())
	}
	rec, _ := st.Get(hot)
	if rec.Status != StatusCompleted {
		t.Fatalf("expected hot record completed, got %s", rec.Status)
	}
	snap := st.Snapshot(0)
	if snap.Completed != 100 {
		t.Fatalf("expected 100 completed, got %d", snap.Completed)
	}
	if snap.InFlight != 0 {
		t.Fatalf("expected in_flight 0, got %d", snap.InFlight)
	}
}

func TestStore_SnapshotRecentHistoryWindow(t *testing.T) {
	st := NewStore("c1", 0, nil)
	for i := 0; i < 25; i++ {
		st.FailDispatch(context.Background(), fmt.Sprintf("bad-%d", i), ReasonInvalidFormat)
	}

	snap := st.Snapshot(10)
	if len(snap.History) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(snap.History))
	}
	if snap.History[9].Number != "bad-24" {
		t.Fatalf("expected newest entry last, got %+v", snap.History[9])
	}
	if snap.Failed != 25 {
		t.Fatalf("expected failed 25, got %d", snap.Failed)
	}
}
