// Package health tracks backend liveness. A Monitor probes the status
// endpoint on a fixed cadence, keeps the latest structured snapshot, and
// derives the single connectivity state the rest of the client gates on.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"docchat/internal/api"
)

// State is the backend connectivity as last observed.
type State int

const (
	// StateConnecting holds from startup until the first probe resolves.
	StateConnecting State = iota
	// StateConnected means the last probe succeeded.
	StateConnected
	// StateDisconnected means the last probe failed, or a chat/upload call
	// hit a transport failure since the last successful probe.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status line wording. Timeout gets its own line so a hung backend reads
// differently from an unreachable one.
const (
	lineConnecting   = "Connecting to server..."
	lineConnected    = "Connected"
	lineDocLoaded    = "Connected - document loaded"
	lineTimeout      = "Server timed out"
	lineNotConnected = "Server not connected"
)

// Snapshot is the structured view of the last successful probe. It goes
// stale rather than empty on failure: probes that fail leave the previous
// contents in place and only the State changes.
type Snapshot struct {
	GeneralReady   bool
	DocumentReady  bool
	DocumentLoaded bool
	// Backend wording per mode, e.g. "Available" or "No PDF loaded".
	GeneralDetail  string
	DocumentDetail string
}

func snapshotFrom(p api.StatusPayload) Snapshot {
	return Snapshot{
		GeneralReady:   p.GeneralReady(),
		DocumentReady:  p.DocumentReady(),
		DocumentLoaded: p.PDFLoaded,
		GeneralDetail:  p.GeneralChat,
		DocumentDetail: p.PDFChat,
	}
}

// Summary renders the snapshot as display lines.
func (s Snapshot) Summary() string {
	loaded := "no"
	if s.DocumentLoaded {
		loaded = "yes"
	}
	return "General chat:  " + s.GeneralDetail + "\n" +
		"Document chat: " + s.DocumentDetail + "\n" +
		"Document loaded: " + loaded
}

// Update is pushed on the Updates channel after every probe and every
// executor-reported downgrade.
type Update struct {
	State    State
	Snapshot Snapshot
	Line     string
}

// Prober issues one status probe. *api.Client satisfies it.
type Prober interface {
	Status(ctx context.Context) (*api.StatusPayload, error)
}

// Monitor owns ConnectivityState. Probes and executor downgrades are the
// only writers; everything else reads through the accessors or subscribes
// to Updates.
type Monitor struct {
	prober   Prober
	logger   *zap.Logger
	interval time.Duration
	deadline time.Duration

	mu       sync.RWMutex
	state    State
	snapshot Snapshot
	hasSnap  bool
	line     string

	kick    chan struct{}
	updates chan Update
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// Config carries Monitor construction options.
type Config struct {
	// Prober issues the status calls. Required.
	Prober Prober
	// Logger receives one line per transition. Nil means no logging.
	Logger *zap.Logger
	// Interval between scheduled probes. Zero means 10s.
	Interval time.Duration
	// ProbeTimeout bounds each probe. Zero means 5s.
	ProbeTimeout time.Duration
}

// NewMonitor creates a Monitor. Call Start to begin probing.
func NewMonitor(cfg Config) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	deadline := cfg.ProbeTimeout
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	return &Monitor{
		prober:   cfg.Prober,
		logger:   logger,
		interval: interval,
		deadline: deadline,
		state:    StateConnecting,
		line:     lineConnecting,
		kick:     make(chan struct{}, 1),
		updates:  make(chan Update, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start probes once immediately, then on every interval tick, until ctx is
// cancelled or Stop is called. Non-blocking; safe to call once.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)
}

// Stop halts probing and waits for the loop to exit. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	<-m.doneCh
}

// ProbeNow schedules an immediate out-of-band probe. Non-blocking; a kick
// while one is already pending collapses into it.
func (m *Monitor) ProbeNow() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// MarkDisconnected is the executor's downgrade hook: a chat or upload call
// that died at the transport layer reports here instead of waiting out the
// cadence. The snapshot is left alone.
func (m *Monitor) MarkDisconnected(reason string) {
	m.mu.Lock()
	changed := m.state != StateDisconnected || m.line != lineNotConnected
	m.state = StateDisconnected
	m.line = lineNotConnected
	m.mu.Unlock()

	if changed {
		m.logger.Warn("connectivity downgraded by failed call", zap.String("reason", reason))
		m.emit()
	}
}

// State returns the current connectivity.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connected reports whether calls should be attempted at all.
func (m *Monitor) Connected() bool {
	return m.State() == StateConnected
}

// Snapshot returns the latest status contents and whether any probe has
// succeeded yet.
func (m *Monitor) Snapshot() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.hasSnap
}

// StatusLine returns the one-line connectivity text for the UI.
func (m *Monitor) StatusLine() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.line
}

// Updates returns the push channel. Slow consumers lose intermediate
// updates rather than blocking the monitor.
func (m *Monitor) Updates() <-chan Update {
	return m.updates
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-m.kick:
			m.probe(ctx)
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe issues one bounded status call and folds the outcome into state.
func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.deadline)
	defer cancel()

	payload, err := m.prober.Status(probeCtx)

	m.mu.Lock()
	prev := m.state
	switch {
	case err == nil:
		m.state = StateConnected
		m.snapshot = snapshotFrom(*payload)
		m.hasSnap = true
		if m.snapshot.DocumentLoaded {
			m.line = lineDocLoaded
		} else {
			m.line = lineConnected
		}
	case api.IsTimeout(err):
		m.state = StateDisconnected
		m.line = lineTimeout
	default:
		m.state = StateDisconnected
		m.line = lineNotConnected
	}
	state := m.state
	m.mu.Unlock()

	if state != prev {
		m.logger.Info("connectivity changed",
			zap.String("from", prev.String()),
			zap.String("to", state.String()),
			zap.Error(err))
	}
	m.emit()
}

func (m *Monitor) emit() {
	m.mu.RLock()
	u := Update{State: m.state, Snapshot: m.snapshot, Line: m.line}
	m.mu.RUnlock()

	select {
	case m.updates <- u:
	default:
	}
}
