// Tests for /command handling.
package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/internal/health"
	"docchat/internal/session"
	"docchat/internal/upload"
)

func TestCommand_Quit(t *testing.T) {
	for _, cmd := range []string{"/quit", "/exit", "/q"} {
		t.Run(cmd, func(t *testing.T) {
			env := newTestModel(t)
			_, teaCmd := env.submit(t, cmd)
			if teaCmd == nil {
				t.Error("expected tea.Quit command, got nil")
			}
		})
	}
}

func TestCommand_ContextSwitches(t *testing.T) {
	env := newTestModel(t)

	env.submit(t, "/doc")
	if env.model.session.ActiveContext() != session.ContextDocument {
		t.Error("/doc should switch to document context")
	}
	if got := env.lastTurn(t).Text; got != session.GreetingFor(session.ContextDocument) {
		t.Errorf("expected document greeting, got %q", got)
	}

	env.submit(t, "/general")
	if env.model.session.ActiveContext() != session.ContextGeneral {
		t.Error("/general should switch to general context")
	}
}

func TestCommand_Clear_ResetsToGreeting(t *testing.T) {
	env := newTestModel(t)
	_, cmd := env.submit(t, "hello")
	env.deliver(runCmd(cmd))

	env.submit(t, "/clear")

	turns := env.model.session.Transcript()
	if len(turns) != 1 {
		t.Fatalf("expected only the greeting after /clear, got %d turns", len(turns))
	}
	if turns[0].Text != session.GreetingFor(session.ContextGeneral) {
		t.Errorf("unexpected greeting %q", turns[0].Text)
	}
}

func TestCommand_Help_AppendsNotice(t *testing.T) {
	env := newTestModel(t)

	env.submit(t, "/help")

	last := env.lastTurn(t)
	if last.Speaker != session.SpeakerBot {
		t.Error("help output should be a bot turn")
	}
	if !strings.Contains(last.Text, "/upload") {
		t.Errorf("help should list commands, got %q", last.Text)
	}
}

func TestCommand_Unknown_AppendsNotice(t *testing.T) {
	env := newTestModel(t)

	env.submit(t, "/frobnicate now")

	last := env.lastTurn(t)
	if !strings.Contains(last.Text, "/frobnicate") || !strings.Contains(last.Text, "/help") {
		t.Errorf("unknown command notice wrong: %q", last.Text)
	}
}

func TestCommand_Status_BeforeFirstProbe(t *testing.T) {
	env := newTestModel(t)

	env.submit(t, "/status")

	last := env.lastTurn(t)
	if !strings.Contains(last.Text, "No probe has resolved yet") {
		t.Errorf("expected connecting wording, got %q", last.Text)
	}
}

func TestCommand_Status_WithSnapshot(t *testing.T) {
	env := newTestModel(t)
	env.deliver([]tea.Msg{statusUpdateMsg(health.Update{
		State: health.StateConnected,
		Line:  "Connected",
		Snapshot: health.Snapshot{
			GeneralReady:   true,
			GeneralDetail:  "Available",
			DocumentDetail: "No PDF loaded",
		},
	})})

	env.submit(t, "/status")

	last := env.lastTurn(t)
	if !strings.Contains(last.Text, "Connected") || !strings.Contains(last.Text, "No PDF loaded") {
		t.Errorf("status report incomplete: %q", last.Text)
	}
}

func TestCommand_Upload_ProducesAck(t *testing.T) {
	env := newTestModel(t)

	_, cmd := env.submit(t, "/upload")
	if cmd == nil {
		t.Fatal("/upload should dispatch a command")
	}
	env.deliver(runCmd(cmd))

	if env.model.alert == nil {
		t.Fatal("upload outcome should raise an alert")
	}
	if env.model.alert.Level != upload.AckWarning {
		t.Errorf("no selection should warn, got %s", env.model.alert.Level)
	}
}
