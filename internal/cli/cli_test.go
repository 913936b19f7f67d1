// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := parseArgs(nil)
	assert.Equal(t, CmdTUI, cmd)
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Command
	}{
		{"tui", []string{"tui"}, CmdTUI},
		{"chat", []string{"chat"}, CmdChat},
		{"login", []string{"login", "--token", "abc"}, CmdLogin},
		{"logout", []string{"logout"}, CmdLogout},
		{"list", []string{"list"}, CmdList},
		{"list alias", []string{"ls"}, CmdList},
		{"export", []string{"export", "conv-1"}, CmdExport},
		{"summarize", []string{"summarize", "conv-1"}, CmdSummarize},
		{"status", []string{"status"}, CmdStatus},
		{"status alias", []string{"s"}, CmdStatus},
		{"version", []string{"version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"unknown", []string{"frobnicate"}, CmdHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := parseArgs(tt.raw)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseExportFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"export", "conv-7", "--format", "html", "--output=/tmp/out"})
	assert.Equal(t, CmdExport, cmd)
	assert.Equal(t, "conv-7", args.ConversationID)
	assert.Equal(t, "html", args.Format)
	assert.Equal(t, "/tmp/out", args.Output)
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"--quiet", "chat"})
	assert.Equal(t, CmdChat, cmd)
	assert.True(t, args.Quiet)
}

func TestParseLoginToken(t *testing.T) {
	_, args := parseArgs([]string{"login", "--token=tok-123"})
	assert.Equal(t, "tok-123", args.Token)
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "--lines", "50", "--since=2025-03-01", "--json", "extra", "words"})

	assert.Equal(t, "show", p.Positional(0))
	assert.Equal(t, "50", p.Flag("lines"))
	assert.Equal(t, "2025-03-01", p.Flag("since"))
	assert.True(t, p.BoolFlag("json"))
	assert.False(t, p.BoolFlag("missing"))
	assert.Equal(t, "", p.Flag("missing"))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
	assert.Equal(t, 3, p.PositionalCount())
	assert.Equal(t, "extra words", p.JoinFrom(1))
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--confirm=false", "--color=true"})
	assert.False(t, p.BoolFlag("confirm"))
	assert.True(t, p.BoolFlag("color"))
}

func TestArgParserOutOfRange(t *testing.T) {
	p := NewArgParser(nil)
	assert.Equal(t, "", p.Positional(0))
	assert.Equal(t, "", p.JoinFrom(2))
}
