// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/wayfarer-tui/internal/model"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERER
// =============================================================================

// TranscriptRenderer turns a message slice into the styled transcript
// shown in the viewport. Assistant text goes through glamour so markdown
// from the backend reads well in the terminal.
type TranscriptRenderer struct {
	theme    *styles.Theme
	botName  string
	width    int
	markdown *glamour.TermRenderer
}

// NewTranscriptRenderer creates a renderer.
func NewTranscriptRenderer(theme *styles.Theme, botName string) *TranscriptRenderer {
	r := &TranscriptRenderer{
		theme:   theme,
		botName: botName,
		width:   80,
	}
	r.rebuildMarkdown()
	return r
}

// SetWidth resizes the renderer; glamour needs rebuilding because word
// wrap is fixed at construction.
func (r *TranscriptRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.rebuildMarkdown()
}

func (r *TranscriptRenderer) rebuildMarkdown() {
	wrap := r.width - 6
	if wrap < 20 {
		wrap = 20
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		md = nil
	}
	r.markdown = md
}

// Render renders the whole transcript.
func (r *TranscriptRenderer) Render(msgs []model.Message) string {
	if len(msgs) == 0 {
		return r.theme.Help.Render("No messages yet. Ask about your next trip.")
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(r.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *TranscriptRenderer) renderMessage(msg model.Message) string {
	var b strings.Builder

	// Label line: sender, timestamp, delivery marker.
	var label string
	if msg.Sender == model.SenderUser {
		label = r.theme.UserLabel.Render("You")
	} else {
		label = r.theme.BotLabel.Render(r.botName)
	}
	if !msg.CreatedAt.IsZero() {
		label += " " + r.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	}
	switch msg.Delivery {
	case model.DeliveryPending:
		label += " " + r.theme.Pending.Render("sending...")
	case model.DeliveryFailed:
		label += " " + r.theme.Failed.Render("not delivered")
	}
	b.WriteString(label)
	b.WriteString("\n")

	body := r.renderBody(msg)
	bubble := r.theme.BotBubble
	if msg.Sender == model.SenderUser {
		bubble = r.theme.UserBubble
	}
	b.WriteString(bubble.MaxWidth(r.width).Render(body))
	b.WriteString("\n")

	return b.String()
}

func (r *TranscriptRenderer) renderBody(msg model.Message) string {
	switch msg.Kind {
	case model.KindImage:
		var parts []string
		if msg.Content != "" {
			parts = append(parts, strings.TrimSpace(msg.Content))
		}
		if src := msg.ImageSource(); src != "" {
			parts = append(parts, r.theme.Help.Render("[image] "+src))
		} else {
			parts = append(parts, r.theme.Help.Render("[image unavailable]"))
		}
		return strings.Join(parts, "\n")

	case model.KindRoute:
		var parts []string
		if msg.Content != "" {
			parts = append(parts, r.renderMarkdown(msg.Content))
		}
		if card := r.renderRouteCard(msg.RouteInfo); card != "" {
			parts = append(parts, card)
		}
		return strings.Join(parts, "\n")

	default:
		if msg.Sender == model.SenderBot {
			return r.renderMarkdown(msg.Content)
		}
		return strings.TrimSpace(msg.Content)
	}
}

// renderRouteCard renders the route summary block.
func (r *TranscriptRenderer) renderRouteCard(route *model.RouteInfo) string {
	if route == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.theme.RouteTitle.Render(
		fmt.Sprintf("%s to %s", route.OriginLabel, route.DestinationLabel)))
	b.WriteString("\n")
	b.WriteString(r.theme.RouteDetail.Render("distance  " + route.Distance))
	b.WriteString("\n")
	b.WriteString(r.theme.RouteDetail.Render("duration  " + route.Duration))
	b.WriteString("\n")
	b.WriteString(r.theme.RouteDetail.Render("mode      " + route.TransportMode))
	if route.MapEmbedURL != "" {
		b.WriteString("\n")
		b.WriteString(r.theme.RouteDetail.Render("map       " + route.MapEmbedURL))
	}
	return r.theme.RouteCard.Render(b.String())
}

func (r *TranscriptRenderer) renderMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if r.markdown == nil || content == "" {
		return content
	}
	out, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}
