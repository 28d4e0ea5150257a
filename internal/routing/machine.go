package routing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	DefaultDebounce = 800 * time.Millisecond
	DefaultTimeout  = 15 * time.Second
)

type Options struct {
	// Debounce is how long a new pair must stay unchanged before it is fetched.
	Debounce time.Duration
	// Timeout bounds each outbound fetch. Expiry fails the request as a
	// connectivity error.
	Timeout time.Duration
	// OnChange receives every state change, in order, without any machine
	// lock held and never after Close returns. It may call Request, Retry or
	// Cancel; the resulting changes are delivered after it returns. It must
	// not call Close.
	OnChange func(Snapshot)
}

// Snapshot is a copy of the machine's state at one version.
type Snapshot struct {
	State   State
	Start   *models.Coordinates
	End     *models.Coordinates
	Result  *RouteResult
	Err     error
	Version uint64
}

// Message is the user facing text for a failed request.
func (s Snapshot) Message() string {
	if s.State != Failed {
		return ""
	}
	return UserMessage(s.Err)
}

type pair struct {
	start, end models.Coordinates
}

// Machine owns at most one live route request. A request is identified by a
// monotonically increasing id; results carrying any other id are dropped, so
// a slow response for a superseded pair can never overwrite a newer one.
type Machine struct {
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	state   State
	start   *models.Coordinates
	end     *models.Coordinates
	result  *RouteResult
	err     error
	current uint64
	cancel  context.CancelFunc
	version uint64
	closed  bool

	wg sync.WaitGroup

	notifyMu   sync.Mutex
	notifyDone *sync.Cond
	queue      []Snapshot
	draining   bool
	notified   uint64
}

func NewMachine(f Fetcher, opts Options) *Machine {
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	m := &Machine{fetcher: f, opts: opts}
	m.notifyDone = sync.NewCond(&m.notifyMu)
	return m
}

// Request sets the route endpoints. A nil start or end resets the machine to
// Idle. Repeating the pair that is already pending or succeeded is a no-op.
func (m *Machine) Request(start, end *models.Coordinates) {
	var snaps []Snapshot

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	if start == nil || end == nil {
		m.abortLocked()
		m.start, m.end = copyPoint(start), copyPoint(end)
		if m.state != Idle || m.result != nil {
			m.setLocked(Idle, nil, nil)
		}
		snaps = append(snaps, m.snapshotLocked())
		m.mu.Unlock()
		m.notify(snaps...)
		return
	}

	p := pair{start: *start, end: *end}
	if m.start != nil && m.end != nil && (pair{*m.start, *m.end}) == p &&
		(m.state == Pending || m.state == Succeeded) {
		m.mu.Unlock()
		slog.Debug("route request deduplicated", "pair", RequestKey(p.start, p.end))
		return
	}

	if m.state == Pending {
		m.abortLocked()
		m.setLocked(Cancelled, nil, nil)
		snaps = append(snaps, m.snapshotLocked())
	}

	m.current++
	id := m.current
	m.start, m.end = copyPoint(start), copyPoint(end)

	if err := ValidatePair(p.start, p.end); err != nil {
		m.setLocked(Failed, nil, err)
		snaps = append(snaps, m.snapshotLocked())
		m.mu.Unlock()
		m.notify(snaps...)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.setLocked(Pending, nil, nil)
	snaps = append(snaps, m.snapshotLocked())

	m.wg.Add(1)
	go m.run(ctx, id, p)
	m.mu.Unlock()

	m.notify(snaps...)
}

// Retry re-issues the current pair after a failure or cancellation.
func (m *Machine) Retry() {
	m.mu.Lock()
	start, end := copyPoint(m.start), copyPoint(m.end)
	m.mu.Unlock()
	m.Request(start, end)
}

// Cancel aborts the live request, if any, and drops any held result. The
// endpoints are kept so Retry can re-issue them.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.closed || m.state == Idle || m.state == Cancelled {
		m.mu.Unlock()
		return
	}
	m.abortLocked()
	m.setLocked(Cancelled, nil, nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// Close aborts any live request and waits for its goroutine to exit. No
// OnChange call happens after Close returns.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.abortLocked()
	m.setLocked(Idle, nil, nil)
	m.mu.Unlock()

	m.wg.Wait()

	// Wait out a delivery that was already running.
	m.notifyMu.Lock()
	for m.draining {
		m.notifyDone.Wait()
	}
	m.queue = nil
	m.notifyMu.Unlock()
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) run(ctx context.Context, id uint64, p pair) {
	defer m.wg.Done()

	if m.opts.Debounce > 0 {
		timer := time.NewTimer(m.opts.Debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	key := RequestKey(p.start, p.end)
	slog.Debug("fetching route", "pair", key, "request_id", id)
	res, err := m.fetcher.Route(fetchCtx, p.start, p.end)

	m.mu.Lock()
	if m.closed || id != m.current || ctx.Err() != nil {
		m.mu.Unlock()
		slog.Debug("discarding stale route result", "pair", key, "request_id", id)
		return
	}

	m.cancel()
	m.cancel = nil
	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("route request timed out", "pair", key, "timeout", m.opts.Timeout)
		}
		err = classify(err)
		slog.Warn("route request failed", "pair", key, "kind", Kind(err), "error", err)
		m.setLocked(Failed, nil, err)
	case res == nil:
		m.setLocked(Failed, nil, ErrNoRoute)
	default:
		m.setLocked(Succeeded, res, nil)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// abortLocked invalidates the live request so its result is discarded.
func (m *Machine) abortLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.current++
}

func (m *Machine) setLocked(s State, res *RouteResult, err error) {
	m.state = s
	m.result = res
	m.err = err
	m.version++
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:   m.state,
		Start:   copyPoint(m.start),
		End:     copyPoint(m.end),
		Result:  m.result,
		Err:     m.err,
		Version: m.version,
	}
}

// notify queues snaps for OnChange. Only one goroutine drains the queue at a
// time; a caller that finds a drain in progress (including OnChange itself
// calling back into the machine) leaves its snapshots to that drainer.
func (m *Machine) notify(snaps ...Snapshot) {
	if m.opts.OnChange == nil {
		return
	}

	m.notifyMu.Lock()
	m.queue = append(m.queue, snaps...)
	if m.draining {
		m.notifyMu.Unlock()
		return
	}

	m.draining = true
	for len(m.queue) > 0 {
		s := m.queue[0]
		m.queue = m.queue[1:]
		if s.Version <= m.notified || m.isClosed() {
			continue
		}
		m.notified = s.Version

		m.notifyMu.Unlock()
		m.opts.OnChange(s)
		m.notifyMu.Lock()
	}
	m.draining = false
	m.notifyDone.Broadcast()
	m.notifyMu.Unlock()
}

func (m *Machine) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func copyPoint(p *models.Coordinates) *models.Coordinates {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
