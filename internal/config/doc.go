// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists wayfarer configuration.
//
// Configuration sources, in order of precedence:
//   - environment variables (WAYFARER_*)
//   - ~/.wayfarer/config.toml
//   - ~/.wayfarer/config.json
//   - built-in defaults
//
// The package also wires the process-wide logger: human-readable output
// on stderr, structured JSON in ~/.wayfarer/wayfarer.log.
package config
