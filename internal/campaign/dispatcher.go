package campaign

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dialer places one outbound call and returns the provider-assigned call id.
// Implementations live in internal/telephony; the dispatcher never touches a
// provider SDK directly.
type Dialer interface {
	CreateCall(ctx context.Context, number string) (string, error)
}

// Lease guards the single-dispatcher invariant across process replicas.
// Optional; within one process the Manager alone enforces single-flight.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Options tune dispatcher behavior. Zero values get conservative defaults.
type Options struct {
	PacingInterval     time.Duration
	ProviderTimeout    time.Duration
	DefaultCountryCode string
	HistoryLimit       int
}

func (o Options) withDefaults() Options {
	out := o
	if out.PacingInterval <= 0 {
		out.PacingInterval = 3 * time.Second
	}
	if out.ProviderTimeout <= 0 {
		out.ProviderTimeout = 15 * time.Second
	}
	if out.HistoryLimit <= 0 {
		out.HistoryLimit = 10
	}
	return out
}

// ReasonLeaseUnavailable tags entries abandoned because the dispatch lease
// could not be acquired.
const ReasonLeaseUnavailable = "lease_unavailable"

// Manager owns campaign lifecycle: at most one dispatch loop is active at a
// time. Starting a new campaign supersedes the previous one: its remaining
// queue entries are abandoned and the loop is cancelled cooperatively, never
// mid-provider-call, so every call submitted to the provider ends up
// finalized in the store.
//
// Superseded campaigns keep their stores for the process lifetime, so a late
// provider webhook reconciles against the campaign that placed the call and
// never bleeds into the current campaign's counters or history.
type Manager struct {
	opts     Options
	dialer   Dialer
	recorder Recorder
	lease    Lease
	log      *slog.Logger

	startMu sync.Mutex // serializes Start/Shutdown supersede sequencing
	mu      sync.Mutex // guards current and retired
	current *run
	retired []*Store
}

type run struct {
	campaignID string
	store      *Store
	queue      []string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewManager wires a dispatcher. recorder and lease may be nil.
func NewManager(opts Options, dialer Dialer, recorder Recorder, lease Lease, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		opts:     opts.withDefaults(),
		dialer:   dialer,
		recorder: recorder,
		lease:    lease,
		log:      log,
	}
}

// Start begins a new campaign over the given raw number strings, superseding
// any campaign still draining. It blocks until the prior loop has observed
// cancellation and exited (bounded by one pacing interval or one provider
// timeout), then returns the new campaign id.
func (m *Manager) Start(numbers []string) string {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	prev := m.current
	m.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	campaignID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	queue := make([]string, len(numbers))
	copy(queue, numbers)
	rn := &run{
		campaignID: campaignID,
		store:      NewStore(campaignID, len(queue), m.recorder),
		queue:      queue,
		ctx:        runCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	if m.current != nil {
		m.retired = append(m.retired, m.current.store)
	}
	m.current = rn
	m.mu.Unlock()

	go m.loop(rn)
	return campaignID
}

// Shutdown cancels the active loop and waits for it to exit. The superseded
// store stays in place so late provider callbacks are still absorbed until
// process teardown.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	rn := m.current
	m.mu.Unlock()
	if rn == nil {
		return nil
	}
	rn.cancel()
	select {
	case <-rn.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyEvent reconciles one asynchronous provider event against the campaign
// that owns the call id. Events for superseded campaigns land in their own
// retained stores; only an id unknown to every store takes the defensive
// record path in the current campaign. Events arriving with no campaign in
// place are logged and dropped; the caller acknowledges them regardless.
func (m *Manager) ApplyEvent(ctx context.Context, callID, number string, status CallStatus, errMsg string) bool {
	m.mu.Lock()
	var cur *Store
	if m.current != nil {
		cur = m.current.store
	}
	retired := make([]*Store, len(m.retired))
	copy(retired, m.retired)
	m.mu.Unlock()

	if cur == nil {
		m.log.Warn("status event with no active campaign", "call_id", callID, "status", status)
		return false
	}
	if cur.Has(callID) {
		return cur.ApplyEvent(ctx, callID, number, status, errMsg)
	}
	for i := len(retired) - 1; i >= 0; i-- {
		if retired[i].Has(callID) {
			return retired[i].ApplyEvent(ctx, callID, number, status, errMsg)
		}
	}
	return cur.ApplyEvent(ctx, callID, number, status, errMsg)
}

// CallAnswered marks a call in_progress when the called party picks up.
func (m *Manager) CallAnswered(ctx context.Context, callID, number string) bool {
	return m.ApplyEvent(ctx, callID, number, StatusInProgress, "")
}

// Snapshot returns current campaign progress; zero-valued before any upload.
func (m *Manager) Snapshot() Snapshot {
	st := m.store()
	if st == nil {
		return Snapshot{History: []HistoryEntry{}}
	}
	return st.Snapshot(m.opts.HistoryLimit)
}

func (m *Manager) store() *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.store
}

// loop is the single dispatch worker for one campaign run. Cancellation is
// checked between entries and at the pacing boundary only; a provider request
// already in flight always completes (bounded by ProviderTimeout) and its
// outcome is recorded before the loop exits.
func (m *Manager) loop(rn *run) {
	defer close(rn.done)
	log := m.log.With("campaign_id", rn.campaignID)

	// Store and recorder writes must survive loop cancellation.
	opCtx := context.WithoutCancel(rn.ctx)

	if m.lease != nil {
		ok, err := m.lease.Acquire(rn.ctx)
		if err != nil {
			log.Error("dispatch lease acquire failed", "err", err)
			abandonRun(opCtx, rn)
			return
		}
		if !ok {
			log.Error("dispatch lease held by another replica, campaign abandoned")
			abandonRun(opCtx, rn)
			return
		}
		defer func() {
			if err := m.lease.Release(opCtx); err != nil {
				log.Warn("dispatch lease release failed", "err", err)
			}
		}()
	}

	log.Info("campaign started", "total", len(rn.queue))
	for i, raw := range rn.queue {
		select {
		case <-rn.ctx.Done():
			log.Info("campaign superseded", "dispatched", i, "remaining", len(rn.queue)-i)
			return
		default:
		}

		number, err := NormalizeNumber(raw, m.opts.DefaultCountryCode)
		if err != nil {
			rn.store.FailDispatch(opCtx, raw, ReasonInvalidFormat)
			log.Warn("number rejected", "raw", raw)
			continue
		}

		handle := rn.store.Reserve(number)
		callCtx, cancel := context.WithTimeout(opCtx, m.opts.ProviderTimeout)
		id, err := m.dialer.CreateCall(callCtx, number)
		cancel()
		if err != nil {
			_ = rn.store.FailReserved(opCtx, handle, err.Error())
			log.Warn("call creation failed", "number", number, "err", err)
		} else if err := rn.store.Finalize(opCtx, handle, id); err != nil {
			log.Warn("finalize failed", "call_id", id, "err", err)
		} else {
			log.Info("call dispatched", "call_id", id, "number", number)
		}

		if i == len(rn.queue)-1 {
			break
		}
		select {
		case <-rn.ctx.Done():
			log.Info("campaign superseded", "dispatched", i+1, "remaining", len(rn.queue)-i-1)
			return
		case <-time.After(m.opts.PacingInterval):
		}
	}
	log.Info("campaign drained", "total", len(rn.queue))
}

// abandonRun marks every queued entry as a failed dispatch so a run that
// never acquired the lease is visible through the status snapshot instead of
// sitting at zero progress forever.
func abandonRun(ctx context.Context, rn *run) {
	for _, raw := range rn.queue {
		rn.store.FailDispatch(ctx, raw, ReasonLeaseUnavailable)
	}
}
