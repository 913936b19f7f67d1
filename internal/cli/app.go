// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/auth"
	"github.com/jeranaias/wayfarer-tui/internal/config"
	"github.com/jeranaias/wayfarer-tui/internal/controller"
	"github.com/jeranaias/wayfarer-tui/internal/index"
)

// =============================================================================
// APP WIRING
// =============================================================================

// App bundles the long-lived pieces every command needs: configuration,
// the token store, the backend client, the sidebar index, and the
// conversation controller.
type App struct {
	Config     *config.Config
	Store      *auth.Store
	Client     *api.Client
	Index      *index.Index
	Controller *controller.Controller
	Logger     *slog.Logger

	logCloser io.Closer
}

// NewApp loads configuration and wires the application graph. logOut is
// where human-readable log lines go; the TUI passes io.Discard and relies
// on the file log. report receives user-visible errors and may be nil.
func NewApp(logOut io.Writer, report controller.Reporter) (*App, error) {
	cfg, cfgErr := config.Load()
	if cfg == nil {
		return nil, cfgErr
	}

	logger, closer, err := config.SetupLogging(cfg, logOut)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	if cfgErr != nil {
		logger.Warn("config file ignored", "error", cfgErr)
	}

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	store := auth.NewStore(tokenPath)

	client := api.NewClient(cfg.Backend.BaseURL, store).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)

	idx := index.New()
	ctrl := controller.New(client, idx, logger, report)

	return &App{
		Config:     cfg,
		Store:      store,
		Client:     client,
		Index:      idx,
		Controller: ctrl,
		Logger:     logger,
		logCloser:  closer,
	}, nil
}

// Close releases the log file handle.
func (a *App) Close() {
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}
