// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the non-TUI
// commands: the interactive chat REPL, login, export, summarize, and
// status. The default command (no arguments) launches the full-screen
// interface.
package cli
