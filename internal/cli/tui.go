// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wayfarer-tui/internal/ui/chat"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
)

// HandleTUI runs the full-screen chat interface. Errors surface as toasts
// inside the interface, so the controller gets no reporter; log lines go
// to the file only.
func HandleTUI(args Args) error {
	app, err := NewApp(io.Discard, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	styles.ApplyProfile(app.Config.UI.Theme)

	m := chat.New(app.Controller, app.Index, app.Config, app.Logger)
	if args.ConversationID != "" {
		if err := app.Controller.Bind(context.Background(), args.ConversationID); err != nil {
			app.Logger.Warn("could not open conversation", "id", args.ConversationID, "error", err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
