// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wayfarer-tui/internal/index"
	"github.com/jeranaias/wayfarer-tui/internal/model"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
	"github.com/jeranaias/wayfarer-tui/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// searchDebounceMsg fires after the debounce interval; seq identifies the
// keystroke generation it belongs to.
type searchDebounceMsg struct{ seq int }

// OpenRequestedMsg is emitted when the user picks a conversation.
type OpenRequestedMsg struct{ ID string }

// Sidebar is the searchable conversation list. Typing into the filter is
// debounced: the index query runs only after the user pauses, so the list
// does not churn on every keystroke.
type Sidebar struct {
	idx      *index.Index
	theme    *styles.Theme
	debounce time.Duration

	input   textinput.Model
	results []model.Summary
	cursor  int
	seq     int

	width  int
	height int
}

// NewSidebar creates the sidebar against the given index.
func NewSidebar(idx *index.Index, theme *styles.Theme, debounce time.Duration) Sidebar {
	input := textinput.New()
	input.Placeholder = "search"
	input.Prompt = "/ "
	input.CharLimit = 80

	return Sidebar{
		idx:      idx,
		theme:    theme,
		debounce: debounce,
		input:    input,
	}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = width - 4
}

// Focus gives keyboard focus to the search field.
func (s *Sidebar) Focus() tea.Cmd {
	return s.input.Focus()
}

// Blur removes keyboard focus.
func (s *Sidebar) Blur() {
	s.input.Blur()
}

// Refresh re-runs the current query against the index. Called after the
// index was replaced by a backend refresh.
func (s *Sidebar) Refresh() {
	s.results = s.idx.Search(s.input.Value())
	if s.cursor >= len(s.results) {
		s.cursor = max(0, len(s.results)-1)
	}
}

// SelectedID returns the highlighted conversation id, or "".
func (s *Sidebar) SelectedID() string {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return ""
	}
	return s.results[s.cursor].ID
}

// Update handles input while the sidebar has focus.
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDebounceMsg:
		// Only the newest generation runs a search; earlier ticks are from
		// keystrokes the user has since typed past.
		if msg.seq == s.seq {
			s.Refresh()
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "ctrl+p":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil
		case "down", "ctrl+n":
			if s.cursor < len(s.results)-1 {
				s.cursor++
			}
			return s, nil
		case "enter":
			if id := s.SelectedID(); id != "" {
				return s, func() tea.Msg { return OpenRequestedMsg{ID: id} }
			}
			return s, nil
		}
	}

	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if s.input.Value() != before {
		s.seq++
		seq := s.seq
		if s.debounce <= 0 {
			s.Refresh()
			return s, cmd
		}
		debounced := tea.Tick(s.debounce, func(time.Time) tea.Msg {
			return searchDebounceMsg{seq: seq}
		})
		return s, tea.Batch(cmd, debounced)
	}
	return s, cmd
}

// View renders the sidebar.
func (s Sidebar) View(activeID string) string {
	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	visible := s.height - 4
	if visible < 1 {
		visible = 1
	}

	// Keep the cursor in view.
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}

	if len(s.results) == 0 {
		b.WriteString(s.theme.SidebarDate.Render("nothing here yet"))
	}

	for i := start; i < len(s.results) && i < start+visible; i++ {
		entry := s.results[i]
		title := util.TruncateWidth(entry.DisplayTitle(), s.width-4)

		line := title
		if entry.ID == activeID {
			line = "* " + line
		} else {
			line = "  " + line
		}

		if i == s.cursor {
			b.WriteString(s.theme.SidebarSelected.Render(line))
		} else {
			b.WriteString(s.theme.SidebarItem.Render(line))
		}
		b.WriteString("\n")
	}

	if len(s.results) > start+visible {
		b.WriteString(s.theme.SidebarDate.Render(
			fmt.Sprintf("+%d more", len(s.results)-start-visible)))
	}

	return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
}
