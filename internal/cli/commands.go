// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - one-shot command handlers: login, logout, list, export,
// summarize, status.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/wayfarer-tui/internal/export"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
)

// HandleLogin stores the backend access token. Without --token the token
// is read from stdin so it stays out of shell history.
func HandleLogin(args Args) error {
	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	token := args.Token
	if token == "" {
		line := liner.NewLiner()
		token, err = line.PasswordPrompt("Token: ")
		line.Close()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}

	if err := app.Store.SetToken(token); err != nil {
		return err
	}

	// Exercise the credential right away so a bad token fails loudly here
	// rather than on the first send.
	if _, err := app.Client.ListConversations(context.Background()); err != nil {
		fmt.Println(styles.RenderWarning("Token stored, but the backend rejected it: " + err.Error()))
		return nil
	}
	fmt.Println(styles.RenderSuccess("Logged in."))
	return nil
}

// HandleLogout removes the stored token.
func HandleLogout(args Args) error {
	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.Clear(); err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("Logged out."))
	return nil
}

// HandleList prints the conversation list, optionally filtered by a fuzzy
// query built from the remaining arguments.
func HandleList(args Args) error {
	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Controller.RefreshIndex(ctx); err != nil {
		return err
	}

	query := strings.Join(args.Raw, " ")
	results := app.Index.Search(query)
	if len(results) == 0 {
		fmt.Println(infoStyle.Render("No conversations."))
		return nil
	}
	for _, s := range results {
		line := titleStyle.Render(s.DisplayTitle())
		if !s.UpdatedAt.IsZero() {
			line += infoStyle.Render("  " + s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Printf("%s  %s\n", s.ID, line)
	}
	return nil
}

// HandleExport writes one conversation transcript to a local file.
func HandleExport(args Args) error {
	if args.ConversationID == "" {
		return fmt.Errorf("usage: wayfarer export <conversation-id> [--format FORMAT] [--output DIR]")
	}

	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Controller.Bind(ctx, args.ConversationID); err != nil {
		return err
	}

	format := args.Format
	if format == "" {
		format = app.Config.Export.Format
	}
	dir := args.Output
	if dir == "" {
		if dir, err = app.Config.ExportDir(); err != nil {
			return err
		}
	}

	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.BotName = app.Config.UI.BotName
	opts.Theme = app.Config.UI.Theme

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ToFile(&export.Transcript{
		ConversationID: app.Controller.ConversationID(),
		Title:          app.Controller.Title(),
		Messages:       app.Controller.Messages(),
	}, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("Exported to " + path))
	return nil
}

// HandleSummarize saves the backend-generated PDF summary locally.
func HandleSummarize(args Args) error {
	if args.ConversationID == "" {
		return fmt.Errorf("usage: wayfarer summarize <conversation-id> [--output DIR]")
	}

	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Controller.Bind(ctx, args.ConversationID); err != nil {
		return err
	}
	art, err := app.Controller.Summarize(ctx)
	if err != nil {
		return err
	}
	if len(art.Data) == 0 && art.URL != "" {
		fmt.Println(styles.RenderInfo("Summary ready: " + art.URL))
		return nil
	}

	dir := args.Output
	if dir == "" {
		if dir, err = app.Config.ExportDir(); err != nil {
			return err
		}
	}
	path, err := export.SaveArtifact(art, dir)
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("Summary saved to " + path))
	return nil
}

// HandleStatus reports backend reachability and login state.
func HandleStatus(args Args) error {
	app, err := NewApp(os.Stderr, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println(titleStyle.Render("wayfarer status"))
	fmt.Println(infoStyle.Render("  backend:   ") + app.Config.Backend.BaseURL)

	if app.Store.HasCredential() {
		fmt.Println(infoStyle.Render("  logged in: ") + "yes")
	} else {
		fmt.Println(infoStyle.Render("  logged in: ") + "no")
	}

	summaries, err := app.Client.ListConversations(context.Background())
	if err != nil {
		fmt.Println(styles.RenderError("  backend unreachable: " + err.Error()))
		return nil
	}
	fmt.Println(styles.RenderSuccess(fmt.Sprintf("  backend reachable, %d conversations", len(summaries))))
	return nil
}
