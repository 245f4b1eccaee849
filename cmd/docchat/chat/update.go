// Package chat provides the interactive TUI for the document-chat client.
// This file contains the Update loop and the network commands it dispatches.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"docchat/internal/api"
	"docchat/internal/health"
	"docchat/internal/session"
	"docchat/internal/upload"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// A blocking acknowledgment eats the keystroke that dismisses it.
		if m.alert != nil {
			m.alert = nil
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.viewMode == FilePickerView {
				m.viewMode = ChatView
				return m, nil
			}
			return m, tea.Quit
		}

		// File Picker Handling
		if m.viewMode == FilePickerView {
			var cmd tea.Cmd
			m.filepicker, cmd = m.filepicker.Update(msg)

			if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
				m.uploader.SelectFile(path)
				m.hint = "Selected " + path + " - /upload to send it"
				m.viewMode = ChatView
				return m, cmd
			}
			if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
				m.hint = "Not a PDF: " + path
				return m, cmd
			}
			return m, cmd
		}

		// Chat View Handling
		switch msg.Type {
		case tea.KeyEnter:
			return m.handleSubmit()

		case tea.KeyTab:
			// Tab toggles between the two conversation contexts.
			next := session.ContextDocument
			if m.session.ActiveContext() == session.ContextDocument {
				next = session.ContextGeneral
			}
			m.session.SwitchContext(next)
			m.refreshTranscript()
			return m, nil

		case tea.KeyCtrlP:
			return m.openFilePicker()

		case tea.KeyUp:
			if m.historyIndex > 0 {
				m.historyIndex--
				m.textinput.SetValue(m.inputHistory[m.historyIndex])
				m.textinput.CursorEnd()
			}
			return m, nil

		case tea.KeyDown:
			if m.historyIndex < len(m.inputHistory) {
				m.historyIndex++
				if m.historyIndex == len(m.inputHistory) {
					m.textinput.SetValue("")
				} else {
					m.textinput.SetValue(m.inputHistory[m.historyIndex])
					m.textinput.CursorEnd()
				}
			}
			return m, nil
		}

		m.textinput, tiCmd = m.textinput.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3
		hintHeight := 1

		chatWidth := msg.Width - 4
		if chatWidth < 1 {
			chatWidth = 1
		}
		calcHeight := msg.Height - headerHeight - footerHeight - inputHeight - hintHeight
		if calcHeight < 1 {
			calcHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(chatWidth, calcHeight)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = calcHeight
		}
		m.textinput.Width = chatWidth - 4
		m.filepicker.Height = calcHeight

		// Rebuild the renderer so markdown wraps to the new width.
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(chatWidth-4),
		)
		m.refreshTranscript()

	case statusUpdateMsg:
		m.connState = msg.State
		m.statusLine = msg.Line
		m.snapshot = msg.Snapshot
		m.hasSnap = m.hasSnap || msg.State == health.StateConnected
		return m, m.waitForStatus()

	case candidateMsg:
		m.uploader.SelectFile(msg.Path)
		m.hint = "New PDF spotted: " + msg.Path + " - /upload to send it"
		if m.watcher != nil {
			return m, m.waitForCandidate()
		}
		return m, nil

	case chatResultMsg:
		m.session.Resolve(msg.call, msg.reply, msg.err)
		m.refreshTranscript()

	case ackMsg:
		ack := upload.Ack(msg)
		m.alert = &ack
		m.refreshTranscript()

	case spinner.TickMsg:
		if m.session.Awaiting() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
	}
	m.historyIndex = len(m.inputHistory)
	m.textinput.Reset()
	m.hint = ""

	call := m.session.SendMessage(input)
	m.refreshTranscript()
	if call == nil {
		// Empty input was already filtered, so this is the disconnected
		// path: both turns are in the transcript and nothing goes out.
		return m, nil
	}

	return m, tea.Batch(m.spinner.Tick, m.sendChat(call))
}

func (m Model) openFilePicker() (tea.Model, tea.Cmd) {
	m.viewMode = FilePickerView
	return m, m.filepicker.Init()
}

// sendChat dispatches one chat call off the event loop. The deadline lives
// in the closure's context; the resulting message carries the call so
// Resolve can match it against the transcript generation it came from.
func (m Model) sendChat(call *session.Call) tea.Cmd {
	client := m.client
	timeout := m.cfg.GetChatTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var reply *api.ChatReply
		var err error
		if call.Context == session.ContextDocument {
			reply, err = client.DocumentChat(ctx, call.Text)
		} else {
			reply, err = client.GeneralChat(ctx, call.Text, call.History)
		}
		return chatResultMsg{call: call, reply: reply, err: err}
	}
}

// sendUpload runs the upload flow off the event loop; the coordinator owns
// the deadline and precondition checks.
func (m Model) sendUpload() tea.Cmd {
	uploader := m.uploader
	return func() tea.Msg {
		return ackMsg(uploader.Upload(context.Background()))
	}
}

// sendClearDocument asks the backend to drop the loaded document.
func (m Model) sendClearDocument() tea.Cmd {
	uploader := m.uploader
	return func() tea.Msg {
		return ackMsg(uploader.ClearDocument(context.Background()))
	}
}

// refreshTranscript re-renders the viewport and pins it to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
