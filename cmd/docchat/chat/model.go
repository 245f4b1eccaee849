// Package chat provides the interactive TUI for the document-chat client.
// The functionality is split across multiple files:
//   - model.go: Model, construction, Init, channel pumps (this file)
//   - update.go: Update loop, input handling, network commands
//   - commands.go: /command handling
//   - view.go: Rendering functions
package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"docchat/cmd/docchat/ui"
	"docchat/internal/api"
	"docchat/internal/config"
	"docchat/internal/health"
	"docchat/internal/session"
	"docchat/internal/upload"
	"docchat/internal/watch"
)

// ViewMode determines which component is focused/active
type ViewMode int

const (
	ChatView ViewMode = iota
	FilePickerView
)

// Messages for tea updates
type (
	// statusUpdateMsg carries a connectivity update pumped off the monitor.
	statusUpdateMsg health.Update

	// chatResultMsg pairs a dispatched call with its resolved outcome.
	chatResultMsg struct {
		call  *session.Call
		reply *api.ChatReply
		err   error
	}

	// ackMsg is an upload or document-clear acknowledgment to display as a
	// blocking alert.
	ackMsg upload.Ack

	// candidateMsg is a PDF spotted in the watch directory.
	candidateMsg watch.Candidate
)

// Deps holds the wired components the model drives. Everything is
// constructed outside so tests can substitute pieces.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Client   *api.Client
	Monitor  *health.Monitor
	Session  *session.Session
	Uploader *upload.Coordinator
	Watcher  *watch.Watcher // nil unless the watch directory is enabled
}

// Model is the main model for the interactive chat interface
type Model struct {
	// UI Components
	textinput  textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	filepicker filepicker.Model
	styles     ui.Styles
	renderer   *glamour.TermRenderer

	viewMode ViewMode

	// Wired components
	cfg      *config.Config
	logger   *zap.Logger
	client   *api.Client
	monitor  *health.Monitor
	session  *session.Session
	uploader *upload.Coordinator
	watcher  *watch.Watcher

	// Connectivity as last pumped off the monitor
	connState  health.State
	statusLine string
	snapshot   health.Snapshot
	hasSnap    bool

	// Blocking acknowledgment; any key dismisses
	alert *upload.Ack

	// One-line hint under the transcript (watch candidates, selections)
	hint string

	// Input History
	inputHistory []string
	historyIndex int

	width  int
	height int
	ready  bool
}

// New builds the model around already-constructed components.
func New(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask me anything... (Enter to send, /help for commands, Ctrl+C to exit)"
	ti.Focus()
	ti.CharLimit = 4000

	styles := ui.NewStyles(ui.ThemeByName(deps.Config.UI.Theme))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf"}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return Model{
		textinput:  ti,
		spinner:    sp,
		filepicker: fp,
		styles:     styles,
		cfg:        deps.Config,
		logger:     logger,
		client:     deps.Client,
		monitor:    deps.Monitor,
		session:    deps.Session,
		uploader:   deps.Uploader,
		watcher:    deps.Watcher,
		connState:  health.StateConnecting,
		statusLine: deps.Monitor.StatusLine(),
	}
}

// Init initializes the interactive chat model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		m.waitForStatus(),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.waitForCandidate())
	}
	return tea.Batch(cmds...)
}

// waitForStatus pumps the next monitor update into the event loop.
func (m Model) waitForStatus() tea.Cmd {
	updates := m.monitor.Updates()
	return func() tea.Msg {
		return statusUpdateMsg(<-updates)
	}
}

// waitForCandidate pumps the next watch-directory candidate.
func (m Model) waitForCandidate() tea.Cmd {
	candidates := m.watcher.Candidates()
	return func() tea.Msg {
		return candidateMsg(<-candidates)
	}
}

// Run wires the full client and blocks until the user quits.
func Run(cfg *config.Config, logger *zap.Logger) error {
	// The client and monitor reference each other: the client probes for the
	// monitor, and transport failures downgrade connectivity through it.
	var monitor *health.Monitor
	client := api.NewClientWithConfig(api.Config{
		BaseURL: cfg.Backend.BaseURL,
		Logger:  logger,
		OnNetworkFailure: func(reason string) {
			if monitor != nil {
				monitor.MarkDisconnected(reason)
			}
		},
	})
	monitor = health.NewMonitor(health.Config{
		Prober:       client,
		Logger:       logger,
		Interval:     cfg.GetProbeInterval(),
		ProbeTimeout: cfg.GetProbeTimeout(),
	})

	sess := session.New(session.Config{Gate: monitor, Logger: logger})
	uploader := upload.NewCoordinator(upload.Config{
		Uploader:      client,
		Connectivity:  monitor,
		Logger:        logger,
		UploadTimeout: cfg.GetUploadTimeout(),
		ClearTimeout:  cfg.GetChatTimeout(),
	})

	var watcher *watch.Watcher
	if cfg.Watch.Enabled {
		var err error
		watcher, err = watch.NewWatcher(watch.Config{Dir: cfg.Watch.Dir, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to start watch directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)
	defer monitor.Stop()
	if watcher != nil {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	model := New(Deps{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Monitor:  monitor,
		Session:  sess,
		Uploader: uploader,
		Watcher:  watcher,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
