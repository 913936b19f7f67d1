// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdLogin
	CmdLogout
	CmdList
	CmdExport
	CmdSummarize
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool

	// Command-specific
	ConversationID string
	Token          string
	Format         string
	Output         string

	// Raw args remaining after the command word
	Raw []string
}

const usageText = `wayfarer - travel assistant for the terminal

Wayfarer is a terminal client for a travel-assistant backend. It keeps
conversations server-side and renders them locally: text, photo
questions, and route cards.

Usage:
  wayfarer                     Start the full-screen interface (default)
  wayfarer chat                Interactive chat in the plain terminal
  wayfarer login --token TOK   Store the backend access token
  wayfarer logout              Remove the stored token
  wayfarer list [query]        List conversations, optionally filtered
  wayfarer export <id>         Export a conversation transcript
    --format markdown|json|html  Output format (default from config)
    --output DIR                 Output directory (default from config)
  wayfarer summarize <id>      Save the backend PDF summary
    --output DIR                 Output directory (default from config)
  wayfarer status, s           Show backend and login status
  wayfarer version             Show version information
  wayfarer help                Show this help

Chat commands (inside wayfarer chat):
  /new                Start a fresh conversation
  /list [query]       List or search conversations
  /open <id|number>   Switch to a conversation
  /title <text>       Rename the current conversation
  /delete             Delete the current conversation
  /attach <path>      Ask the next question about a photo
  /export [format]    Export the current conversation
  /summarize          Save the backend PDF summary
  /status             Show session status
  /quit               Exit

Environment:
  WAYFARER_BASE_URL   Backend base URL (overrides config)
  WAYFARER_TOKEN      Access token (overrides the token file)

Version: %s
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("wayfarer version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command plus its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(raw []string) (Command, Args) {
	var args Args

	// Global flags may precede the command word.
	var remaining []string
	for _, arg := range raw {
		switch arg {
		case "--quiet", "-q":
			args.Quiet = true
		case "--verbose", "-v":
			args.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining
	parser := NewArgParser(remaining)

	switch cmd {
	case "tui":
		args.ConversationID = parser.Positional(0)
		return CmdTUI, args

	case "chat":
		args.ConversationID = parser.Positional(0)
		return CmdChat, args

	case "login":
		args.Token = parser.Flag("token")
		return CmdLogin, args

	case "logout":
		return CmdLogout, args

	case "list", "ls":
		args.ConversationID = "" // list takes a query, not an id
		return CmdList, args

	case "export":
		args.ConversationID = parser.Positional(0)
		args.Format = parser.Flag("format")
		args.Output = parser.Flag("output")
		return CmdExport, args

	case "summarize", "summary":
		args.ConversationID = parser.Positional(0)
		args.Output = parser.Flag("output")
		return CmdSummarize, args

	case "status", "s":
		return CmdStatus, args

	case "version", "--version":
		return CmdVersion, args

	case "help", "--help", "-h":
		return CmdHelp, args

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		return CmdHelp, args
	}
}
