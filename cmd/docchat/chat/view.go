// Package chat provides the interactive TUI for the document-chat client.
// This file contains view rendering functions.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"docchat/internal/health"
	"docchat/internal/session"
	"docchat/internal/upload"
)

func (m Model) renderTranscript() string {
	var sb strings.Builder

	for _, turn := range m.session.Transcript() {
		switch turn.Speaker {
		case session.SpeakerUser:
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(turn.Text))
			sb.WriteString("\n")

		default:
			botStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(botStyle.Render("docchat") + "\n")
			sb.WriteString(m.safeRenderMarkdown(turn.Text))
			sb.WriteString("\n")
			for _, src := range turn.Sources {
				sb.WriteString(m.styles.Source.Render("source: "+src) + "\n")
			}
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.viewMode == FilePickerView {
		title := m.styles.Header.Render(" Select a PDF ")
		help := m.styles.Muted.Render("Enter: select  Esc: back")
		content := m.styles.Content.Render(m.filepicker.View())
		return lipgloss.JoinVertical(lipgloss.Left, title, content, help)
	}

	header := m.renderHeader()
	chatView := m.styles.Content.Render(m.viewport.View())
	hintLine := m.renderHintLine()

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	footer := m.renderFooter()

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		hintLine,
		inputArea,
		footer,
	)

	if m.alert != nil {
		return lipgloss.JoinVertical(lipgloss.Left, view, m.renderAlert(*m.alert))
	}
	return view
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" docchat ")

	var badge string
	switch m.connState {
	case health.StateConnected:
		badge = m.styles.Success.Render(m.statusLine)
	case health.StateConnecting:
		badge = m.styles.Info.Render(m.statusLine)
	default:
		badge = m.styles.Error.Render(m.statusLine)
	}

	var loading string
	if m.session.Awaiting() {
		loading = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Badge.Render("Waiting for reply"))
	}

	headerLine := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge, "  ", loading)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) renderHintLine() string {
	if m.hint == "" {
		return ""
	}
	return m.styles.Muted.Render("  " + m.hint)
}

func (m Model) renderFooter() string {
	contextName := "General"
	if m.session.ActiveContext() == session.ContextDocument {
		contextName = "Document"
	}

	selection := "none"
	if path, ok := m.uploader.Selected(); ok {
		selection = path
	}

	timestamp := time.Now().Format("15:04")
	help := m.styles.Muted.Render(fmt.Sprintf(
		"Context: %s | File: %s | %s | Tab: switch  Ctrl+P: pick  /help",
		contextName, selection, timestamp))
	return lipgloss.NewStyle().MarginTop(1).Render(help)
}

// renderAlert draws the blocking acknowledgment line. Any key dismisses it.
func (m Model) renderAlert(ack upload.Ack) string {
	var label string
	switch ack.Level {
	case upload.AckSuccess:
		label = m.styles.Success.Render("OK")
	case upload.AckWarning:
		label = m.styles.Warning.Render("Warning")
	default:
		label = m.styles.Error.Render("Error")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Center,
		label, "  ", m.styles.Body.Render(ack.Text),
		"  ", m.styles.Muted.Render("(any key to dismiss)"))
	return m.styles.Alert.Render(body)
}
