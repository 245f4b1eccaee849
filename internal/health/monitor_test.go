package health_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"docchat/internal/api"
	"docchat/internal/health"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProber scripts probe outcomes by call number (1-based).
type fakeProber struct {
	mu sync.Mutex
	n  int
	fn func(call int) (*api.StatusPayload, error)
}

func (f *fakeProber) Status(ctx context.Context) (*api.StatusPayload, error) {
	f.mu.Lock()
	f.n++
	call := f.n
	fn := f.fn
	f.mu.Unlock()
	return fn(call)
}

func (f *fakeProber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func okPayload(loaded bool) *api.StatusPayload {
	pdfChat := "No PDF loaded"
	if loaded {
		pdfChat = api.StatusAvailable
	}
	return &api.StatusPayload{
		GeneralChat: api.StatusAvailable,
		PDFChat:     pdfChat,
		PDFLoaded:   loaded,
	}
}

func newMonitor(t *testing.T, fn func(call int) (*api.StatusPayload, error)) (*health.Monitor, *fakeProber) {
	t.Helper()
	prober := &fakeProber{fn: fn}
	m := health.NewMonitor(health.Config{
		Prober: prober,
		// Long interval keeps scheduled ticks out of the way; tests drive
		// probes through Start's immediate probe and ProbeNow.
		Interval: time.Hour,
	})
	return m, prober
}

func waitUpdate(t *testing.T, m *health.Monitor) health.Update {
	t.Helper()
	select {
	case u := <-m.Updates():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for monitor update")
		return health.Update{}
	}
}

func TestMonitor_StartsConnecting(t *testing.T) {
	m, _ := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(false), nil
	})
	assert.Equal(t, health.StateConnecting, m.State())
	assert.Equal(t, "Connecting to server...", m.StatusLine())
	_, ok := m.Snapshot()
	assert.False(t, ok)
}

func TestMonitor_FirstProbeConnects(t *testing.T) {
	m, prober := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(true), nil
	})
	m.Start(context.Background())
	defer m.Stop()

	u := waitUpdate(t, m)
	assert.Equal(t, health.StateConnected, u.State)
	assert.True(t, u.Snapshot.GeneralReady)
	assert.True(t, u.Snapshot.DocumentReady)
	assert.True(t, u.Snapshot.DocumentLoaded)
	assert.Equal(t, 1, prober.calls(), "first probe fires immediately, not on the first tick")

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, api.StatusAvailable, snap.GeneralDetail)
}

func TestMonitor_TimeoutAndNetworkReadDifferently(t *testing.T) {
	m, _ := newMonitor(t, func(call int) (*api.StatusPayload, error) {
		if call == 1 {
			return nil, &api.Error{Kind: api.KindTimeout, Detail: "request timed out"}
		}
		return nil, &api.Error{Kind: api.KindNetwork, Detail: "backend unreachable"}
	})
	m.Start(context.Background())
	defer m.Stop()

	u := waitUpdate(t, m)
	assert.Equal(t, health.StateDisconnected, u.State)
	timeoutLine := u.Line

	m.ProbeNow()
	u = waitUpdate(t, m)
	assert.Equal(t, health.StateDisconnected, u.State)
	networkLine := u.Line

	assert.Equal(t, "Server timed out", timeoutLine)
	assert.Equal(t, "Server not connected", networkLine)
	assert.NotEqual(t, timeoutLine, networkLine)
}

func TestMonitor_RepeatedIdenticalProbesAreStable(t *testing.T) {
	m, _ := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(false), nil
	})
	m.Start(context.Background())
	defer m.Stop()

	first := waitUpdate(t, m)
	m.ProbeNow()
	second := waitUpdate(t, m)

	assert.Equal(t, health.StateConnected, first.State)
	assert.Equal(t, first.State, second.State)
	if diff := cmp.Diff(first.Snapshot, second.Snapshot); diff != "" {
		t.Errorf("snapshot changed across identical probes (-first +second):\n%s", diff)
	}
}

func TestMonitor_FailedProbeKeepsSnapshot(t *testing.T) {
	m, _ := newMonitor(t, func(call int) (*api.StatusPayload, error) {
		if call == 1 {
			return okPayload(true), nil
		}
		return nil, &api.Error{Kind: api.KindNetwork, Detail: "backend unreachable"}
	})
	m.Start(context.Background())
	defer m.Stop()

	waitUpdate(t, m)
	m.ProbeNow()
	u := waitUpdate(t, m)

	assert.Equal(t, health.StateDisconnected, u.State)
	snap, ok := m.Snapshot()
	require.True(t, ok, "stale snapshot must be retained on failure")
	assert.True(t, snap.DocumentLoaded)
}

func TestMonitor_RecoversOnNextProbe(t *testing.T) {
	m, _ := newMonitor(t, func(call int) (*api.StatusPayload, error) {
		if call == 1 {
			return nil, &api.Error{Kind: api.KindNetwork, Detail: "backend unreachable"}
		}
		return okPayload(false), nil
	})
	m.Start(context.Background())
	defer m.Stop()

	u := waitUpdate(t, m)
	assert.Equal(t, health.StateDisconnected, u.State)

	m.ProbeNow()
	u = waitUpdate(t, m)
	assert.Equal(t, health.StateConnected, u.State)
	assert.Equal(t, "Connected", u.Line)
}

func TestMonitor_MarkDisconnected(t *testing.T) {
	m, prober := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(true), nil
	})
	m.Start(context.Background())
	defer m.Stop()

	waitUpdate(t, m)
	require.Equal(t, health.StateConnected, m.State())

	m.MarkDisconnected("connection refused")
	u := waitUpdate(t, m)
	assert.Equal(t, health.StateDisconnected, u.State)
	assert.Equal(t, "Server not connected", u.Line)
	assert.Equal(t, 1, prober.calls(), "the downgrade itself must not probe")

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.True(t, snap.DocumentLoaded, "downgrade leaves the snapshot alone")

	// Repeating the downgrade is a no-op: no second update.
	m.MarkDisconnected("connection refused again")
	select {
	case u := <-m.Updates():
		t.Fatalf("unexpected update for repeated downgrade: %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitor_ProbeNowIsOutOfBand(t *testing.T) {
	m, prober := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(false), nil
	})
	m.Start(context.Background())
	defer m.Stop()

	waitUpdate(t, m)
	require.Equal(t, 1, prober.calls())

	m.ProbeNow()
	waitUpdate(t, m)
	assert.Equal(t, 2, prober.calls(), "kick must probe without waiting for the interval")
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m, _ := newMonitor(t, func(int) (*api.StatusPayload, error) {
		return okPayload(false), nil
	})
	m.Start(context.Background())
	waitUpdate(t, m)
	m.Stop()
	m.Stop()
}

func TestMonitor_SnapshotSummary(t *testing.T) {
	snap := health.Snapshot{
		GeneralReady:   true,
		DocumentReady:  false,
		DocumentLoaded: false,
		GeneralDetail:  "Available",
		DocumentDetail: "No PDF loaded",
	}
	sum := snap.Summary()
	assert.Contains(t, sum, "Available")
	assert.Contains(t, sum, "No PDF loaded")
	assert.Contains(t, sum, "Document loaded: no")
}
