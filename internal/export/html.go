// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders transcripts as a standalone HTML page with
// embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export renders the transcript.
func (e *HTMLExporter) Export(tr *Transcript) ([]byte, error) {
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

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(tr.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"wayfarer-tui\">\n")
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.theme()))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(tr.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(tr.Messages)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Exported:</strong> %s</span>\n", formatTimestamp(exported)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range tr.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>wayfarer</strong> on %s</p>\n",
		exported.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the HTML MIME type.
func (e *HTMLExporter) MimeType() string { return "text/html" }

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

// =============================================================================
// RENDERING
// =============================================================================

// renderMessage renders one message block.
func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder

	senderClass := string(msg.Sender)
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", senderClass))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"sender-label\">%s</span>\n",
		html.EscapeString(senderLabel(msg, e.options.botName()))))
	if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n",
			formatShortTimestamp(msg.CreatedAt)))
	}
	if msg.Delivery == model.DeliveryFailed {
		sb.WriteString("                    <span class=\"badge failed\">not delivered</span>\n")
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.renderBody(msg))
	sb.WriteString("                </div>\n")

	sb.WriteString("            </div>\n")
	return sb.String()
}

// renderBody renders the message body by kind.
func (e *HTMLExporter) renderBody(msg model.Message) string {
	var sb strings.Builder

	if msg.Content != "" {
		sb.WriteString("                    <p>")
		sb.WriteString(paragraphs(msg.Content))
		sb.WriteString("</p>\n")
	}

	switch msg.Kind {
	case model.KindImage:
		if src := msg.ImageSource(); src != "" {
			sb.WriteString(fmt.Sprintf("                    <img class=\"attachment\" src=\"%s\" alt=\"attachment\">\n",
				html.EscapeString(src)))
		}
	case model.KindRoute:
		if r := msg.RouteInfo; r != nil {
			sb.WriteString("                    <div class=\"route-card\">\n")
			sb.WriteString(fmt.Sprintf("                        <div class=\"route-endpoints\">%s &rarr; %s</div>\n",
				html.EscapeString(r.OriginLabel), html.EscapeString(r.DestinationLabel)))
			sb.WriteString(fmt.Sprintf("                        <div class=\"route-detail\">Distance: %s</div>\n",
				html.EscapeString(r.Distance)))
			sb.WriteString(fmt.Sprintf("                        <div class=\"route-detail\">Duration: %s</div>\n",
				html.EscapeString(r.Duration)))
			sb.WriteString(fmt.Sprintf("                        <div class=\"route-detail\">Mode: %s</div>\n",
				html.EscapeString(r.TransportMode)))
			if r.MapEmbedURL != "" {
				sb.WriteString(fmt.Sprintf("                        <a class=\"route-map\" href=\"%s\">Open map</a>\n",
					html.EscapeString(r.MapEmbedURL)))
			}
			sb.WriteString("                    </div>\n")
		}
	}

	return sb.String()
}

// paragraphs escapes text and converts blank-line breaks into paragraph
// boundaries.
func paragraphs(s string) string {
	escaped := html.EscapeString(strings.TrimSpace(s))
	escaped = strings.ReplaceAll(escaped, "\n\n", "</p>\n                    <p>")
	return strings.ReplaceAll(escaped, "\n", "<br>\n")
}

// =============================================================================
// STYLING
// =============================================================================

// getCSS returns the embedded stylesheet.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        :root {
            --bg: #ffffff; --fg: #1a202c; --muted: #718096;
            --user-bg: #ebf4ff; --bot-bg: #f7fafc; --border: #e2e8f0;
            --accent: #3182ce; --failed: #c53030;
        }
        .dark-theme {
            --bg: #1a202c; --fg: #edf2f7; --muted: #a0aec0;
            --user-bg: #2a4365; --bot-bg: #2d3748; --border: #4a5568;
            --accent: #63b3ed; --failed: #fc8181;
        }
        body {
            background: var(--bg); color: var(--fg);
            font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
            margin: 0; line-height: 1.6;
        }
        .container { max-width: 800px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { margin-bottom: 0.25rem; }
        .metadata { color: var(--muted); font-size: 0.875rem; }
        .meta-item { margin-right: 1rem; }
        .message {
            border: 1px solid var(--border); border-radius: 8px;
            padding: 0.75rem 1rem; margin: 1rem 0;
        }
        .user-message { background: var(--user-bg); }
        .bot-message { background: var(--bot-bg); }
        .message-header {
            display: flex; gap: 0.75rem; align-items: baseline;
            font-size: 0.875rem; margin-bottom: 0.25rem;
        }
        .sender-label { font-weight: 600; }
        .timestamp { color: var(--muted); }
        .badge.failed { color: var(--failed); font-size: 0.75rem; }
        .attachment { max-width: 100%; border-radius: 6px; margin-top: 0.5rem; }
        .route-card {
            border-left: 3px solid var(--accent);
            padding: 0.5rem 0.75rem; margin-top: 0.5rem;
        }
        .route-endpoints { font-weight: 600; }
        .route-detail { color: var(--muted); font-size: 0.875rem; }
        .route-map { color: var(--accent); font-size: 0.875rem; }
        .footer { color: var(--muted); font-size: 0.8rem; margin-top: 2rem; }
    </style>
`
}
