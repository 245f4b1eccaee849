// Package chat provides the interactive TUI for the document-chat client.
// This file contains /command handling.
package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/internal/health"
	"docchat/internal/session"
)

// handleCommand processes all /command inputs from the user.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	m.textinput.Reset()

	switch cmd {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/general":
		m.session.SwitchContext(session.ContextGeneral)
		m.refreshTranscript()
		return m, nil

	case "/doc", "/pdf":
		m.session.SwitchContext(session.ContextDocument)
		m.refreshTranscript()
		return m, nil

	case "/clear":
		m.session.Clear()
		m.hint = ""
		m.refreshTranscript()
		return m, nil

	case "/pick":
		return m.openFilePicker()

	case "/upload":
		// Preconditions come back as the ack, never as a transcript turn.
		return m, m.sendUpload()

	case "/clear-doc":
		return m, m.sendClearDocument()

	case "/status":
		m.session.AppendNotice(m.renderStatusReport())
		m.refreshTranscript()
		return m, nil

	case "/help":
		m.session.AppendNotice(helpText)
		m.refreshTranscript()
		return m, nil

	default:
		m.session.AppendNotice("Unknown command `" + cmd + "`. Try `/help`.")
		m.refreshTranscript()
		return m, nil
	}
}

// renderStatusReport formats the connectivity state and the last snapshot
// for the /status command.
func (m Model) renderStatusReport() string {
	var sb strings.Builder
	sb.WriteString("## Server Status\n\n")
	sb.WriteString(m.statusLine + "\n\n")

	if m.connState == health.StateConnecting {
		sb.WriteString("*No probe has resolved yet.*")
		return sb.String()
	}
	if !m.hasSnap {
		sb.WriteString("*No successful probe yet.*")
		return sb.String()
	}

	sb.WriteString("```\n" + m.snapshot.Summary() + "\n```")
	if m.connState == health.StateDisconnected {
		sb.WriteString("\n*Shown from the last successful probe; the server is currently unreachable.*")
	}
	return sb.String()
}

const helpText = `## Available Commands

| Command | Description |
|---------|-------------|
| /general | Switch to open-domain chat |
| /doc | Switch to document chat |
| /pick | Pick a PDF to upload (Ctrl+P) |
| /upload | Upload the selected PDF |
| /clear-doc | Remove the loaded document from the server |
| /status | Show server status |
| /clear | Reset the current conversation |
| /help | Show this help |
| /quit | Exit |

Tab toggles between the two chats. Switching discards the conversation.`
