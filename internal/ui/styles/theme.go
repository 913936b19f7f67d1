// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the composed styles the chat interface renders with.
type Theme struct {
	// Chrome
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarDate     lipgloss.Style

	// Transcript
	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Timestamp  lipgloss.Style
	Pending    lipgloss.Style
	Failed     lipgloss.Style

	// Route cards
	RouteCard   lipgloss.Style
	RouteTitle  lipgloss.Style
	RouteDetail lipgloss.Style

	// Input
	InputPrompt lipgloss.Style
	InputBox    lipgloss.Style

	// Toasts
	ErrorToast lipgloss.Style
}

// New builds the theme.
func New() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(TextMuted),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Overlay).
			Padding(0, 1),
		SidebarTitle: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),
		SidebarItem: lipgloss.NewStyle().
			Foreground(TextPrimary),
		SidebarSelected: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(SelectionBg).
			Bold(true),
		SidebarDate: lipgloss.NewStyle().
			Foreground(TextMuted),

		UserLabel: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),
		BotLabel: lipgloss.NewStyle().
			Foreground(Sky).
			Bold(true),
		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),
		BotBubble: lipgloss.NewStyle().
			Foreground(BotBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(BotBubbleBorder).
			Padding(0, 1),
		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),
		Pending: lipgloss.NewStyle().
			Foreground(Amber),
		Failed: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),

		RouteCard: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(RouteCardBorder).
			PaddingLeft(1),
		RouteTitle: lipgloss.NewStyle().
			Foreground(Sky).
			Bold(true),
		RouteDetail: lipgloss.NewStyle().
			Foreground(TextSecondary),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true),
		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Overlay),

		ErrorToast: lipgloss.NewStyle().
			Foreground(Rose).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Rose).
			Padding(0, 1),
	}
}

// ApplyProfile forces the background assumption when the config selects an
// explicit theme; "auto" leaves termenv's detection alone.
func ApplyProfile(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}
