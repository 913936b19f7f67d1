// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to local files.
// Markdown, JSON, and HTML are rendered locally; PDF summaries come from
// the backend and are saved as-is.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a point-in-time snapshot of one conversation, decoupled
// from the live session so exports do not race with reconciliation.
type Transcript struct {
	ConversationID string
	Title          string
	Messages       []model.Message
	ExportedAt     time.Time
}

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders a transcript into one output format.
type Exporter interface {
	Export(tr *Transcript) ([]byte, error)

	// FileExtension returns the output extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// ForFormat returns the exporter for a config format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files land. Default: current working directory.
	OutputDir string

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// BotName is the display name for assistant messages.
	BotName string

	// Theme selects HTML styling: "light" or "dark".
	Theme string
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		BotName:           "Wayfarer",
		Theme:             "dark",
	}
}

func (o *Options) botName() string {
	if o == nil || o.BotName == "" {
		return "Wayfarer"
	}
	return o.BotName
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ToFile renders the transcript and writes it under opts.OutputDir. The
// filename is derived from the title plus an export timestamp. Returns the
// written path.
func ToFile(tr *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}

	stamp := tr.ExportedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	filename := fmt.Sprintf("%s_%s%s",
		sanitizeFilename(tr.Title),
		stamp.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// SaveArtifact writes a backend-produced artifact (PDF summary) under dir.
// When the backend returned a URL instead of bytes there is nothing to
// save locally; the caller shows the URL.
func SaveArtifact(art api.Artifact, dir string) (string, error) {
	if len(art.Data) == 0 {
		return "", fmt.Errorf("artifact %q carries no data", art.Filename)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	name := art.Filename
	if name == "" {
		name = fmt.Sprintf("summary_%s.pdf", time.Now().Format("20060102_150405"))
	}
	path := filepath.Join(dir, sanitizeFilename(name))
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames on
// common platforms.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	replacer := map[rune]rune{
		'/': '-', '\\': '-', ':': '-', '*': '-', '?': '-',
		'"': '-', '<': '-', '>': '-', '|': '-',
		' ': '_', '\t': '_', '\n': '_', '\r': '_',
	}

	var result []rune
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

func senderLabel(m model.Message, botName string) string {
	switch m.Sender {
	case model.SenderUser:
		return "You"
	case model.SenderBot:
		return botName
	default:
		return string(m.Sender)
	}
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
