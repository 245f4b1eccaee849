// Package session holds the conversation state: the active context, its
// transcript, and the optimistic-append protocol that pairs each dispatched
// chat call with exactly one terminal reply turn.
//
// A Session is not safe for concurrent use. All mutation is expected to
// happen on the UI event loop: SendMessage runs synchronously before a call
// is dispatched, and Resolve runs when the call's result message comes back.
package session

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"docchat/internal/api"
)

// Context selects which conversation the user is in. The two contexts are
// independent: switching discards the transcript rather than shelving it.
type Context int

const (
	ContextGeneral Context = iota
	ContextDocument
)

func (c Context) String() string {
	if c == ContextDocument {
		return "document"
	}
	return "general"
}

// Speaker attributes a Turn.
type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerBot
)

func (s Speaker) String() string {
	if s == SpeakerBot {
		return "bot"
	}
	return "user"
}

// Turn is a single transcript entry. Immutable once appended.
type Turn struct {
	Speaker Speaker
	Text    string
	Sources []string
	At      time.Time
}

// Greeting and local reply wording.
const (
	greetingGeneral  = "Hello! Ask me anything."
	greetingDocument = "Document chat ready. Upload a PDF and ask me about it."

	disconnectedReply = "Server not connected. Please make sure the backend is running."
	timeoutReply      = "Request timed out. The server took too long to respond."
	networkReply      = "Could not reach the server. Connection lost."
)

// GreetingFor returns the seed turn text for a context.
func GreetingFor(ctx Context) string {
	if ctx == ContextDocument {
		return greetingDocument
	}
	return greetingGeneral
}

// Call identifies one dispatched chat request. The epoch pins it to the
// transcript generation it was sent from: a context switch or clear starts
// a new generation, and replies from older ones are dropped on arrival.
type Call struct {
	Context Context
	Epoch   int
	Text    string
	// History is the prior conversation for general-context calls,
	// oldest first. Nil for document calls and fresh conversations.
	History []api.HistoryItem
}

// ConnectivityGate reports whether the backend is worth calling at all.
// *health.Monitor satisfies it.
type ConnectivityGate interface {
	Connected() bool
}

type alwaysConnected struct{}

func (alwaysConnected) Connected() bool { return true }

// Session is the per-run conversation state.
type Session struct {
	gate   ConnectivityGate
	logger *zap.Logger

	active     Context
	transcript []Turn
	epoch      int
	inflight   int
}

// Config carries Session construction options.
type Config struct {
	// Gate gates outgoing calls on connectivity. Nil means always try.
	Gate ConnectivityGate
	// Logger receives one line per dispatch and drop. Nil means no logging.
	Logger *zap.Logger
}

// New starts a session in the general context with its greeting.
func New(cfg Config) *Session {
	gate := cfg.Gate
	if gate == nil {
		gate = alwaysConnected{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{gate: gate, logger: logger}
	s.resetTo(ContextGeneral)
	return s
}

// ActiveContext returns the context the transcript belongs to.
func (s *Session) ActiveContext() Context { return s.active }

// Awaiting reports whether any dispatched call from the current transcript
// generation is still unresolved. Drives the loading indicator.
func (s *Session) Awaiting() bool { return s.inflight > 0 }

// Transcript returns a copy of the active transcript, oldest first.
func (s *Session) Transcript() []Turn {
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SwitchContext makes ctx active and resets the transcript to that
// context's greeting. The previous transcript is discarded, not shelved;
// in-flight replies for it will be dropped when they resolve.
func (s *Session) SwitchContext(ctx Context) {
	s.resetTo(ctx)
	s.logger.Info("context switched", zap.String("context", ctx.String()))
}

// Clear resets the active transcript to its greeting. Such a reset starts a
// new generation exactly like a switch, so late replies for cleared turns
// are dropped too.
func (s *Session) Clear() {
	s.resetTo(s.active)
	s.logger.Info("transcript cleared", zap.String("context", s.active.String()))
}

// SendMessage appends the user's turn and decides whether a network call
// should go out. A nil result means nothing to dispatch: the text was
// empty, or the backend is disconnected and a local error turn has already
// been appended. Otherwise the caller dispatches the returned Call and
// feeds the outcome back through Resolve.
func (s *Session) SendMessage(text string) *Call {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !s.gate.Connected() {
		s.append(SpeakerUser, text, nil)
		s.append(SpeakerBot, disconnectedReply, nil)
		s.logger.Info("send refused while disconnected", zap.String("context", s.active.String()))
		return nil
	}

	var history []api.HistoryItem
	if s.active == ContextGeneral {
		history = s.historyItems()
	}
	s.append(SpeakerUser, text, nil)
	s.inflight++

	s.logger.Info("chat call dispatched",
		zap.String("context", s.active.String()),
		zap.Int("epoch", s.epoch),
		zap.Int("inflight", s.inflight))
	return &Call{Context: s.active, Epoch: s.epoch, Text: text, History: history}
}

// Resolve folds a dispatched call's outcome into the transcript: exactly
// one terminal turn per call that still belongs to the current generation.
// err, when non-nil, is expected to be the executor's *api.Error.
func (s *Session) Resolve(call *Call, reply *api.ChatReply, err error) {
	if call == nil {
		return
	}
	if call.Epoch != s.epoch {
		// The transcript this call was sent from is gone, and its paired
		// user turn with it. Appending here would leak a reply into an
		// unrelated conversation.
		s.logger.Debug("dropped stale reply",
			zap.String("call_context", call.Context.String()),
			zap.Int("call_epoch", call.Epoch),
			zap.Int("epoch", s.epoch))
		return
	}
	if s.inflight > 0 {
		s.inflight--
	}

	switch {
	case err == nil:
		s.append(SpeakerBot, reply.Response, reply.Sources)
	case api.IsTimeout(err):
		s.append(SpeakerBot, timeoutReply, nil)
	case api.IsNetwork(err):
		s.append(SpeakerBot, networkReply, nil)
	default:
		s.append(SpeakerBot, "Error: "+api.Detail(err), nil)
	}
}

// AppendNotice appends a local bot turn outside the reply protocol. Command
// output and hints go through here; they never count against awaiting-reply.
func (s *Session) AppendNotice(text string) {
	s.append(SpeakerBot, text, nil)
}

func (s *Session) resetTo(ctx Context) {
	s.active = ctx
	s.epoch++
	s.inflight = 0
	s.transcript = []Turn{{Speaker: SpeakerBot, Text: GreetingFor(ctx), At: time.Now()}}
}

func (s *Session) append(speaker Speaker, text string, sources []string) {
	s.transcript = append(s.transcript, Turn{
		Speaker: speaker,
		Text:    text,
		Sources: sources,
		At:      time.Now(),
	})
}

// historyItems maps the conversation so far into wire history, skipping the
// greeting seed turn.
func (s *Session) historyItems() []api.HistoryItem {
	if len(s.transcript) <= 1 {
		return nil
	}
	items := make([]api.HistoryItem, 0, len(s.transcript)-1)
	for _, t := range s.transcript[1:] {
		role := "user"
		if t.Speaker == SpeakerBot {
			role = "assistant"
		}
		items = append(items, api.HistoryItem{Role: role, Content: t.Text})
	}
	return items
}
