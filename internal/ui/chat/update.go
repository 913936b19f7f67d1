// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wayfarer-tui/internal/export"
	"github.com/jeranaias/wayfarer-tui/internal/model"
	"github.com/jeranaias/wayfarer-tui/internal/ui/components"
)

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case components.OpenRequestedMsg:
		return m, m.openCmd(msg.ID)

	case sendDoneMsg:
		m.syncViewport()
		m.sidebar.Refresh()
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		return m, nil

	case openDoneMsg:
		m.syncViewport()
		m.focus = focusInput
		m.sidebar.Blur()
		cmds = append(cmds, m.input.Focus())
		if msg.err != nil {
			cmds = append(cmds, m.setToast(msg.err.Error()))
		}
		return m, tea.Batch(cmds...)

	case newDoneMsg:
		m.syncViewport()
		m.sidebar.Refresh()
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		return m, m.setToast("Started a fresh conversation")

	case refreshDoneMsg:
		m.sidebar.Refresh()
		if msg.err != nil {
			return m, m.setToast("Could not load conversations: " + msg.err.Error())
		}
		return m, nil

	case renameDoneMsg:
		m.sidebar.Refresh()
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		return m, m.setToast("Renamed to " + msg.title)

	case deleteDoneMsg:
		m.syncViewport()
		m.sidebar.Refresh()
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		return m, m.setToast("Conversation deleted")

	case summarizeDoneMsg:
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		if len(msg.art.Data) == 0 && msg.art.URL != "" {
			return m, m.setToast("Summary ready: " + msg.art.URL)
		}
		dir, err := m.cfg.ExportDir()
		if err != nil {
			return m, m.setToast(err.Error())
		}
		path, err := export.SaveArtifact(msg.art, dir)
		if err != nil {
			return m, m.setToast(err.Error())
		}
		return m, m.setToast("Summary saved to " + path)

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.setToast(msg.err.Error())
		}
		return m, m.setToast("Exported to " + msg.path)

	case toastClearMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil
	}

	// Everything else flows to the focused component.
	return m.updateFocused(msg)
}

// updateFocused routes key presses to the focused component. Anything
// else (ticks, debounce messages) flows to every component so a sidebar
// search still fires after focus moved on.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	_, isKey := msg.(tea.KeyMsg)

	if !isKey || m.focus == focusSidebar {
		m.sidebar, cmd = m.sidebar.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !isKey || m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+b":
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.focus == focusSidebar {
			m.focus = focusInput
			m.sidebar.Blur()
			m.layout()
			return m, m.input.Focus()
		}
		m.layout()
		return m, nil

	case "tab":
		if !m.showSidebar {
			break
		}
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
			return m, m.sidebar.Focus()
		}
		m.focus = focusInput
		m.sidebar.Blur()
		return m, m.input.Focus()

	case "esc":
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.sidebar.Blur()
			return m, m.input.Focus()
		}

	case "ctrl+r":
		return m, m.refreshCmd()

	case "enter":
		if m.focus == focusInput {
			return m.submit()
		}
	}

	return m.updateFocused(msg)
}

// =============================================================================
// SUBMIT
// =============================================================================

// submit handles Enter on the input line: slash commands act locally,
// anything else is a send. The optimistic append happens here in the
// update loop, so rapid sends keep their on-screen order.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	var att *model.Attachment
	if m.attach != "" {
		att = model.NewAttachment(m.attach, nil)
		m.attach = ""
	}

	complete := m.ctrl.SendMessage(text, att)
	m.syncViewport()
	return m, tea.Batch(completeSendCmd(complete), m.spin.Tick)
}

// runCommand executes an input-line slash command.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	switch cmd {
	case "/quit", "/q":
		return m, tea.Quit

	case "/new", "/n":
		return m, m.newConversationCmd()

	case "/title", "/t":
		if rest == "" {
			return m, m.setToast("usage: /title <new title>")
		}
		return m, m.renameCmd(rest)

	case "/delete":
		if !m.ctrl.Bound() {
			return m, m.setToast("no conversation open")
		}
		return m, m.deleteCmd()

	case "/attach", "/a":
		return m.queueAttachment(rest)

	case "/export", "/e":
		return m.exportTranscript(rest)

	case "/summarize":
		if !m.ctrl.Bound() {
			return m, m.setToast("no conversation open")
		}
		return m, m.summarizeCmd()

	case "/help", "/h":
		return m, m.setToast("/new /title /delete /attach /export /summarize /quit - tab for sidebar")

	default:
		return m, m.setToast(fmt.Sprintf("unknown command %s (/help)", cmd))
	}
}

func (m Model) queueAttachment(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		return m, m.setToast("usage: /attach <path>")
	}
	info, err := os.Stat(path)
	if err != nil {
		return m, m.setToast("cannot read " + path)
	}
	if info.IsDir() {
		return m, m.setToast(path + " is a directory")
	}
	m.attach = path
	return m, m.setToast("Photo queued for your next message")
}

func (m Model) exportTranscript(format string) (tea.Model, tea.Cmd) {
	if !m.ctrl.Bound() {
		return m, m.setToast("no conversation open")
	}
	if format == "" {
		format = m.cfg.Export.Format
	}

	tr := &export.Transcript{
		ConversationID: m.ctrl.ConversationID(),
		Title:          m.ctrl.Title(),
		Messages:       m.ctrl.Messages(),
	}
	cfg := m.cfg
	return m, func() tea.Msg {
		dir, err := cfg.ExportDir()
		if err != nil {
			return exportDoneMsg{err: err}
		}
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		opts.BotName = cfg.UI.BotName
		opts.Theme = cfg.UI.Theme

		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := export.ToFile(tr, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}
