// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/wayfarer-tui/internal/util"
)

// View renders the full screen: header, sidebar + transcript, input line,
// and status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.bodyView())
	b.WriteString("\n")
	b.WriteString(m.theme.InputBox.Width(m.width).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	title := m.ctrl.Title()
	if !m.ctrl.Bound() {
		title = "Wayfarer"
	}
	title = util.TruncateWidth(title, m.width-8)

	header := m.theme.Header.Render(title)
	if m.ctrl.PendingSends() > 0 {
		header += " " + m.spin.View()
	}
	return header
}

func (m Model) bodyView() string {
	if !m.showSidebar {
		return m.viewport.View()
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.sidebar.View(m.ctrl.ConversationID()),
		m.viewport.View(),
	)
}

func (m Model) statusView() string {
	if m.toast != "" {
		return m.theme.ErrorToast.Render(util.TruncateWidth(m.toast, m.width-4))
	}

	var left string
	if n := m.ctrl.PendingSends(); n > 0 {
		left = fmt.Sprintf("sending %d...", n)
	} else if m.attach != "" {
		left = "photo queued: " + m.attach
	}

	help := "tab: sidebar | ctrl+b: toggle | ctrl+r: refresh | /help | ctrl+c: quit"
	if left != "" {
		help = left + "  " + help
	}
	return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(help, m.width-2))
}
