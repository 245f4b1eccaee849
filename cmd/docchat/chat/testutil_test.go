// Package chat test scaffolding: a model wired to the in-process stub
// backend, with a controllable connectivity gate.
package chat

import (
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/internal/api"
	"docchat/internal/config"
	"docchat/internal/health"
	"docchat/internal/session"
	"docchat/internal/stub"
	"docchat/internal/upload"
)

// fakeGate stands in for the monitor where tests need to flip connectivity
// directly and count probe kicks.
type fakeGate struct {
	mu        sync.Mutex
	connected bool
	probes    int
}

func (g *fakeGate) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGate) ProbeNow() {
	g.mu.Lock()
	g.probes++
	g.mu.Unlock()
}

func (g *fakeGate) setConnected(v bool) {
	g.mu.Lock()
	g.connected = v
	g.mu.Unlock()
}

func (g *fakeGate) probeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.probes
}

type testEnv struct {
	model Model
	srv   *stub.Server
	gate  *fakeGate
}

// newTestModel builds a ready (sized) model talking to a fresh stub server.
// The monitor exists but is never started; the fake gate decides whether
// calls go out.
func newTestModel(t *testing.T) *testEnv {
	t.Helper()

	srv := stub.NewServer(stub.Config{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.Backend.BaseURL = ts.URL

	client := api.NewClient(ts.URL)
	monitor := health.NewMonitor(health.Config{Prober: client})
	gate := &fakeGate{connected: true}
	sess := session.New(session.Config{Gate: gate})
	uploader := upload.NewCoordinator(upload.Config{Uploader: client, Connectivity: gate})

	m := New(Deps{
		Config:   cfg,
		Client:   client,
		Monitor:  monitor,
		Session:  sess,
		Uploader: uploader,
	})

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return &testEnv{model: sized.(Model), srv: srv, gate: gate}
}

// submit types text and presses Enter, returning the new model and the
// command Enter produced.
func (e *testEnv) submit(t *testing.T, text string) (Model, tea.Cmd) {
	t.Helper()
	e.model.textinput.SetValue(text)
	next, cmd := e.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	e.model = next.(Model)
	return e.model, cmd
}

// runCmd executes a command synchronously, expanding batches, and returns
// every message it produced.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// deliver feeds every message through Update.
func (e *testEnv) deliver(msgs []tea.Msg) {
	for _, msg := range msgs {
		next, _ := e.model.Update(msg)
		e.model = next.(Model)
	}
}

// lastTurn returns the newest transcript turn.
func (e *testEnv) lastTurn(t *testing.T) session.Turn {
	t.Helper()
	turns := e.model.session.Transcript()
	if len(turns) == 0 {
		t.Fatal("transcript is empty")
	}
	return turns[len(turns)-1]
}
