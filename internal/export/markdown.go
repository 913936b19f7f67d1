// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders transcripts as Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders the transcript.
func (e *MarkdownExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(tr.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	exported := tr.ExportedAt
	if exported.IsZero() {
		exported = time.Now()
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(tr.Title)))
	sb.WriteString(fmt.Sprintf("conversation: %s\n", tr.ConversationID))
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(tr.Messages)))
	sb.WriteString(fmt.Sprintf("exported: %s\n", exported.Format(time.RFC3339)))
	sb.WriteString("generator: wayfarer-tui\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(tr.Title)))

	for i, msg := range tr.Messages {
		label := senderLabel(msg, e.options.botName())
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				label, formatShortTimestamp(msg.CreatedAt)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(e.formatBody(msg))
		sb.WriteString("\n\n")

		if msg.Delivery == model.DeliveryFailed {
			sb.WriteString("*Not delivered.*\n\n")
		}

		if i < len(tr.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from wayfarer on %s*\n",
		exported.Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the Markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// formatBody renders one message body by kind.
func (e *MarkdownExporter) formatBody(msg model.Message) string {
	switch msg.Kind {
	case model.KindImage:
		var sb strings.Builder
		if msg.Content != "" {
			sb.WriteString(strings.TrimSpace(msg.Content))
			sb.WriteString("\n\n")
		}
		if src := msg.ImageSource(); src != "" {
			sb.WriteString(fmt.Sprintf("![attachment](%s)", src))
		} else {
			sb.WriteString("*[image unavailable]*")
		}
		return sb.String()

	case model.KindRoute:
		return e.formatRoute(msg)

	default:
		return strings.TrimSpace(msg.Content)
	}
}

func (e *MarkdownExporter) formatRoute(msg model.Message) string {
	var sb strings.Builder
	if msg.Content != "" {
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
	}
	r := msg.RouteInfo
	if r == nil {
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("**Route**: %s → %s\n\n", r.OriginLabel, r.DestinationLabel))
	sb.WriteString(fmt.Sprintf("- **Distance**: %s\n", r.Distance))
	sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", r.Duration))
	sb.WriteString(fmt.Sprintf("- **Mode**: %s\n", r.TransportMode))
	if r.MapEmbedURL != "" {
		sb.WriteString(fmt.Sprintf("- **Map**: %s\n", r.MapEmbedURL))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML-significant characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
