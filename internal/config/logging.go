// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config level string to a slog.Level. Unknown strings
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging builds the process logger and installs it as the slog
// default: terse text on stderr, full JSON in the log file. The returned
// closer owns the log file handle.
//
// The TUI owns the terminal, so callers running the full-screen interface
// pass stderrOut=io.Discard and rely on the file log alone.
func SetupLogging(cfg *Config, stderrOut io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Log.Level)

	if stderrOut == nil {
		stderrOut = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(stderrOut, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer
	path, err := cfg.LogFilePath()
	if err == nil && path != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0700); mkErr == nil {
			f, openErr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if openErr == nil {
				handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
				closer = f
			} else {
				err = openErr
			}
		} else {
			err = mkErr
		}
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)

	// A missing file log degrades to stderr-only; report it but keep going.
	if err != nil && path != "" {
		logger.Warn("file logging disabled", "path", path, "error", err)
	}
	return logger, closer, nil
}
