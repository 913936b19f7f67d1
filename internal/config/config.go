// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/wayfarer-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete wayfarer configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend BackendConfig `toml:"backend" json:"backend"`
	Auth    AuthConfig    `toml:"auth" json:"auth"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Export  ExportConfig  `toml:"export" json:"export"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// BackendConfig points at the travel-assistant backend.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. "https://api.wayfarer.example.com".
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds a single backend call. Assistant replies can take
	// a while; keep this generous.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// AuthConfig controls where the bearer token lives.
type AuthConfig struct {
	// TokenPath overrides the token file location
	// (default ~/.wayfarer/token).
	TokenPath string `toml:"token_path" json:"token_path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`
	// BotName is the display name for assistant messages.
	BotName string `toml:"bot_name" json:"bot_name"`
	// SidebarWidth is the conversation sidebar width in cells.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
	// SearchDebounceMs is the sidebar search debounce interval.
	SearchDebounceMs int `toml:"search_debounce_ms" json:"search_debounce_ms"`
}

// ExportConfig contains transcript export settings.
type ExportConfig struct {
	// Dir is where exported transcripts land (default ~/.wayfarer/exports).
	Dir string `toml:"dir" json:"dir"`
	// Format is the default export format: "markdown", "json", or "html".
	Format string `toml:"format" json:"format"`
}

// LogConfig controls the process log.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level"`
	// File overrides the log file path (default ~/.wayfarer/wayfarer.log).
	// Empty string keeps the default; "off" disables the file log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 60,
		},
		UI: UIConfig{
			Theme:            "auto",
			BotName:          "Wayfarer",
			SidebarWidth:     32,
			SearchDebounceMs: 300,
		},
		Export: ExportConfig{
			Format: "markdown",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// fillDefaults fills missing values after a partial file load.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.BotName == "" {
		cfg.UI.BotName = defaults.UI.BotName
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
	if cfg.UI.SearchDebounceMs == 0 {
		cfg.UI.SearchDebounceMs = defaults.UI.SearchDebounceMs
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaults.Export.Format
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.wayfarer, honoring WAYFARER_CONFIG_DIR for tests
// and unusual installs.
func ConfigDir() (string, error) {
	if dir := os.Getenv("WAYFARER_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wayfarer"), nil
}

// EnsureConfigDir creates the config directory with owner-only access.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ConfigPathTOML returns the path of the primary config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path of the JSON fallback config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// TokenPath returns the bearer token file location.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenPath != "" {
		return c.Auth.TokenPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// ExportDir returns the transcript export directory.
func (c *Config) ExportDir() (string, error) {
	if c.Export.Dir != "" {
		return c.Export.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// LogFilePath returns the log file location, or "" when file logging is
// disabled.
func (c *Config) LogFilePath() (string, error) {
	if c.Log.File == "off" {
		return "", nil
	}
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wayfarer.log"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the configuration: TOML first, JSON fallback, then defaults.
// Environment overrides are applied last. A broken config file surfaces as
// a non-nil error alongside usable defaults.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("load %s: %w", tomlPath, err)
			} else {
				return finish(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("load %s: %w", jsonPath, err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err = finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, err
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML config file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON config file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// ApplyEnvOverrides applies WAYFARER_* environment variables on top of the
// loaded file. The token itself is read by the auth package, not here.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("WAYFARER_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("WAYFARER_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("WAYFARER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WAYFARER_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate rejects configurations the rest of the program cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url scheme %q not supported", u.Scheme)
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		return fmt.Errorf("backend.timeout_secs %d out of range 1-600", c.Backend.TimeoutSecs)
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme %q must be dark, light, or auto", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 20 || c.UI.SidebarWidth > 80 {
		return fmt.Errorf("ui.sidebar_width %d out of range 20-80", c.UI.SidebarWidth)
	}
	if c.UI.SearchDebounceMs < 0 || c.UI.SearchDebounceMs > 5000 {
		return fmt.Errorf("ui.search_debounce_ms %d out of range 0-5000", c.UI.SearchDebounceMs)
	}
	switch c.Export.Format {
	case "markdown", "json", "html":
	default:
		return fmt.Errorf("export.format %q must be markdown, json, or html", c.Export.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn, or error", c.Log.Level)
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# wayfarer configuration file\n")
	buf.WriteString("# Edit with care; wayfarer rewrites this file on `wayfarer login`.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
