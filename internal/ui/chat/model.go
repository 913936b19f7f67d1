// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/config"
	"github.com/jeranaias/wayfarer-tui/internal/controller"
	"github.com/jeranaias/wayfarer-tui/internal/index"
	"github.com/jeranaias/wayfarer-tui/internal/ui/components"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
)

// toastDuration is how long an error or info toast stays visible.
const toastDuration = 4 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

type sendDoneMsg struct {
	res *controller.SendResult
	err error
}

type openDoneMsg struct {
	id  string
	err error
}

type newDoneMsg struct {
	id  string
	err error
}

type refreshDoneMsg struct{ err error }

type renameDoneMsg struct {
	title string
	err   error
}

type deleteDoneMsg struct{ err error }

type summarizeDoneMsg struct {
	art api.Artifact
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

type toastClearMsg struct{ seq int }

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	ctrl *controller.Controller
	idx  *index.Index
	cfg  *config.Config
	log  *slog.Logger

	theme    *styles.Theme
	renderer *components.TranscriptRenderer

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	sidebar  components.Sidebar

	focus       focusArea
	showSidebar bool
	ready       bool
	width       int
	height      int

	// attach is the queued photo path for the next send.
	attach string

	toast    string
	toastSeq int
}

// New builds the chat model. The controller, index, and config come from
// the application wiring; the model owns only presentation state.
func New(ctrl *controller.Controller, idx *index.Index, cfg *config.Config, log *slog.Logger) Model {
	theme := styles.New()

	input := textinput.New()
	input.Placeholder = "Ask about your next trip... (/help for commands)"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spin.Style.Foreground(styles.Teal)

	debounce := time.Duration(cfg.UI.SearchDebounceMs) * time.Millisecond

	return Model{
		ctrl:        ctrl,
		idx:         idx,
		cfg:         cfg,
		log:         log,
		theme:       theme,
		renderer:    components.NewTranscriptRenderer(theme, cfg.UI.BotName),
		input:       input,
		spin:        spin,
		sidebar:     components.NewSidebar(idx, theme, debounce),
		showSidebar: true,
	}
}

// Init kicks off the first sidebar refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		m.refreshCmd(),
	)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) refreshCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return refreshDoneMsg{err: ctrl.RefreshIndex(context.Background())}
	}
}

func (m *Model) openCmd(id string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return openDoneMsg{id: id, err: ctrl.Bind(context.Background(), id)}
	}
}

func (m *Model) newConversationCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		id, err := ctrl.NewConversation(context.Background())
		return newDoneMsg{id: id, err: err}
	}
}

func (m *Model) renameCmd(title string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return renameDoneMsg{title: title, err: ctrl.EditTitle(context.Background(), title)}
	}
}

func (m *Model) deleteCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return deleteDoneMsg{err: ctrl.DeleteConversation(context.Background())}
	}
}

func (m *Model) summarizeCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		art, err := ctrl.Summarize(context.Background())
		return summarizeDoneMsg{art: art, err: err}
	}
}

// completeSendCmd runs the backend half of a send that was already
// appended optimistically in the update loop.
func completeSendCmd(complete controller.SendFunc) tea.Cmd {
	return func() tea.Msg {
		res, err := complete(context.Background())
		return sendDoneMsg{res: res, err: err}
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// syncViewport re-renders the transcript into the viewport and scrolls to
// the newest message.
func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderer.Render(m.ctrl.Messages()))
	m.viewport.GotoBottom()
}

func (m *Model) setToast(text string) tea.Cmd {
	m.toast = text
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}

func (m *Model) layout() {
	sidebarWidth := 0
	if m.showSidebar {
		sidebarWidth = m.cfg.UI.SidebarWidth
		if sidebarWidth > m.width/2 {
			sidebarWidth = m.width / 2
		}
	}

	// Header, input, and status bar each take a line (input border takes
	// another).
	bodyHeight := m.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	contentWidth := m.width - sidebarWidth
	if !m.ready {
		m.viewport = viewport.New(contentWidth, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = bodyHeight
	}

	m.sidebar.SetSize(sidebarWidth, bodyHeight)
	m.renderer.SetWidth(contentWidth - 2)
	m.input.Width = m.width - 4
	m.syncViewport()
}
