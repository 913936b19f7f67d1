// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - interactive chat REPL for the plain terminal.
//
// Handles "wayfarer chat": line-edited input with history, slash commands
// for conversation management, and glamour-rendered assistant replies.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/wayfarer-tui/internal/config"
	"github.com/jeranaias/wayfarer-tui/internal/export"
	"github.com/jeranaias/wayfarer-tui/internal/model"
	"github.com/jeranaias/wayfarer-tui/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner with a persisted history file, giving the REPL
// readline-like editing and arrow-key history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the input handler and loads existing history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from the history file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL STATE
// =============================================================================

type repl struct {
	app      *App
	input    *ChatCLI
	renderer *glamour.TermRenderer

	// listed holds the most recent /list output so /open accepts a list
	// number as well as a conversation id.
	listed []model.Summary

	// attach is the queued photo path for the next send.
	attach string
}

func (r *repl) render(markdown string) string {
	if r.renderer == nil {
		return markdown
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive chat REPL.
func HandleChat(args Args) error {
	app, err := NewApp(io.Discard, func(err error) {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
	})
	if err != nil {
		return err
	}
	defer app.Close()

	styles.ApplyProfile(app.Config.UI.Theme)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		renderer = nil
	}

	r := &repl{
		app:      app,
		input:    NewChatCLI(),
		renderer: renderer,
	}
	defer r.input.Close()

	if !app.Store.HasCredential() {
		fmt.Println(warningStyle.Render("[!] Not logged in.") +
			infoStyle.Render(" Run `wayfarer login --token TOK` first; sends will fail without it."))
	}

	ctx := context.Background()
	if args.ConversationID != "" {
		if err := app.Controller.Bind(ctx, args.ConversationID); err == nil {
			fmt.Println(infoStyle.Render("Opened: ") + titleStyle.Render(app.Controller.Title()))
			r.printTranscript()
		}
	}

	if !args.Quiet {
		printWelcome(app.Config.UI.BotName)
	}

	for {
		input, err := r.input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C or Ctrl+D exits the loop.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := r.handleSlash(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.send(ctx, input)
	}
}

func printWelcome(botName string) {
	fmt.Println(welcomeStyle.Render("wayfarer chat") +
		infoStyle.Render(" - talking to "+botName+". Type /help for commands, /quit to exit."))
	fmt.Println()
}

// =============================================================================
// SENDING
// =============================================================================

func (r *repl) send(ctx context.Context, text string) {
	var att *model.Attachment
	if r.attach != "" {
		path := r.attach
		r.attach = ""
		att = model.NewAttachment(path, nil)
		fmt.Println(infoStyle.Render("Attaching: " + path))
	}

	complete := r.app.Controller.SendMessage(text, att)
	res, err := complete(ctx)
	if err != nil || res == nil {
		// The reporter already printed the failure.
		return
	}

	r.printMessage(res.Bot)
}

func (r *repl) printTranscript() {
	for _, msg := range r.app.Controller.Messages() {
		r.printMessage(msg)
	}
}

func (r *repl) printMessage(msg model.Message) {
	label := "you"
	labelStyle := promptStyle
	if msg.Sender == model.SenderBot {
		label = strings.ToLower(r.app.Config.UI.BotName)
		labelStyle = commandStyle
	}
	fmt.Println(labelStyle.Render(label + ">"))

	switch msg.Kind {
	case model.KindRoute:
		if msg.Content != "" {
			fmt.Println(r.render(msg.Content))
		}
		r.printRoute(msg.RouteInfo)
	case model.KindImage:
		if msg.Content != "" {
			fmt.Println(r.render(msg.Content))
		}
		if src := msg.ImageSource(); src != "" {
			fmt.Println(infoStyle.Render("[image] " + src))
		}
	default:
		if msg.Sender == model.SenderBot {
			fmt.Println(r.render(msg.Content))
		} else {
			fmt.Println(msg.Content)
		}
	}

	if msg.Delivery == model.DeliveryFailed {
		fmt.Println(errorStyle.Render("[X] not delivered"))
	}
	fmt.Println()
}

func (r *repl) printRoute(route *model.RouteInfo) {
	if route == nil {
		return
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("Route: %s to %s", route.OriginLabel, route.DestinationLabel)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("  distance %s, duration %s, by %s",
		route.Distance, route.Duration, route.TransportMode)))
	if route.MapEmbedURL != "" {
		fmt.Println(infoStyle.Render("  map: " + route.MapEmbedURL))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlash executes a /command. Returns false when the REPL should exit.
func (r *repl) handleSlash(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/quit", "/q", "/exit":
		return false, nil

	case "/help", "/h":
		r.printHelp()
		return true, nil

	case "/new", "/n":
		id, err := r.app.Controller.NewConversation(ctx)
		if err != nil {
			return true, nil // reporter printed it
		}
		fmt.Println(styles.RenderSuccess("New conversation: " + id))
		return true, nil

	case "/list", "/l":
		return true, r.list(ctx, rest)

	case "/open", "/o", "/switch":
		return true, r.open(ctx, rest)

	case "/title", "/t":
		if rest == "" {
			return true, fmt.Errorf("usage: /title <new title>")
		}
		if err := r.app.Controller.EditTitle(ctx, rest); err != nil {
			return true, nil
		}
		fmt.Println(styles.RenderSuccess("Renamed to: " + rest))
		return true, nil

	case "/delete":
		if !r.app.Controller.Bound() {
			return true, fmt.Errorf("no conversation open")
		}
		if err := r.app.Controller.DeleteConversation(ctx); err != nil {
			return true, nil
		}
		fmt.Println(styles.RenderSuccess("Deleted. Back to a blank slate."))
		return true, nil

	case "/attach", "/a":
		return true, r.queueAttachment(rest)

	case "/export", "/e":
		return true, r.export(rest)

	case "/summarize":
		return true, r.summarize(ctx)

	case "/status", "/s":
		r.printStatus()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

func (r *repl) printHelp() {
	rows := [][2]string{
		{"/new", "start a fresh conversation"},
		{"/list [query]", "list or fuzzy-search conversations"},
		{"/open <id|number>", "switch to a conversation"},
		{"/title <text>", "rename the current conversation"},
		{"/delete", "delete the current conversation"},
		{"/attach <path>", "ask the next question about a photo"},
		{"/export [format]", "export transcript (markdown, json, html)"},
		{"/summarize", "save the backend PDF summary"},
		{"/status", "show session status"},
		{"/quit", "exit"},
	}
	for _, row := range rows {
		fmt.Printf("  %s %s\n", commandStyle.Render(fmt.Sprintf("%-18s", row[0])), infoStyle.Render(row[1]))
	}
}

func (r *repl) list(ctx context.Context, query string) error {
	if err := r.app.Controller.RefreshIndex(ctx); err != nil {
		return err
	}
	r.listed = r.app.Index.Search(query)
	if len(r.listed) == 0 {
		fmt.Println(infoStyle.Render("No conversations."))
		return nil
	}
	for i, s := range r.listed {
		marker := "  "
		if s.ID == r.app.Controller.ConversationID() {
			marker = promptStyle.Render("* ")
		}
		line := fmt.Sprintf("%s%2d. %s", marker, i+1, s.DisplayTitle())
		if !s.UpdatedAt.IsZero() {
			line += infoStyle.Render("  (" + s.UpdatedAt.Format("2006-01-02") + ")")
		}
		fmt.Println(line)
	}
	return nil
}

func (r *repl) open(ctx context.Context, arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /open <id|number>")
	}

	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(r.listed) {
			return fmt.Errorf("no entry %d in the last /list", n)
		}
		id = r.listed[n-1].ID
	}

	if err := r.app.Controller.Bind(ctx, id); err != nil {
		return nil // reporter printed it; the empty transcript is bound
	}
	fmt.Println(infoStyle.Render("Opened: ") + titleStyle.Render(r.app.Controller.Title()))
	r.printTranscript()
	return nil
}

func (r *repl) queueAttachment(path string) error {
	if path == "" {
		return fmt.Errorf("usage: /attach <path>")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	r.attach = path
	fmt.Println(styles.RenderSuccess("Photo queued. Your next message will ask about it."))
	return nil
}

func (r *repl) export(format string) error {
	if !r.app.Controller.Bound() {
		return fmt.Errorf("no conversation open")
	}
	if format == "" {
		format = r.app.Config.Export.Format
	}

	dir, err := r.app.Config.ExportDir()
	if err != nil {
		return err
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.BotName = r.app.Config.UI.BotName
	opts.Theme = r.app.Config.UI.Theme

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	path, err := export.ToFile(&export.Transcript{
		ConversationID: r.app.Controller.ConversationID(),
		Title:          r.app.Controller.Title(),
		Messages:       r.app.Controller.Messages(),
	}, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("Exported to " + path))
	return nil
}

func (r *repl) summarize(ctx context.Context) error {
	if !r.app.Controller.Bound() {
		return fmt.Errorf("no conversation open")
	}
	art, err := r.app.Controller.Summarize(ctx)
	if err != nil {
		return nil // reporter printed it
	}
	if len(art.Data) == 0 && art.URL != "" {
		fmt.Println(styles.RenderInfo("Summary ready: " + art.URL))
		return nil
	}
	dir, err := r.app.Config.ExportDir()
	if err != nil {
		return err
	}
	path, err := export.SaveArtifact(art, dir)
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderSuccess("Summary saved to " + path))
	return nil
}

func (r *repl) printStatus() {
	ctrl := r.app.Controller
	fmt.Println(titleStyle.Render("Session"))
	fmt.Println(infoStyle.Render("  backend:   ") + r.app.Config.Backend.BaseURL)
	loggedIn := "no"
	if r.app.Store.HasCredential() {
		loggedIn = "yes"
	}
	fmt.Println(infoStyle.Render("  logged in: ") + loggedIn)
	if ctrl.Bound() {
		fmt.Println(infoStyle.Render("  open:      ") + ctrl.Title() + " (" + ctrl.ConversationID() + ")")
		fmt.Println(infoStyle.Render("  messages:  ") + strconv.Itoa(len(ctrl.Messages())))
		if n := ctrl.PendingSends(); n > 0 {
			fmt.Println(warningStyle.Render(fmt.Sprintf("  in flight: %d", n)))
		}
	} else {
		fmt.Println(infoStyle.Render("  open:      none"))
	}
	if r.attach != "" {
		fmt.Println(infoStyle.Render("  queued:    " + r.attach))
	}
}
