// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the full-screen Bubble Tea interface: the
// transcript viewport, the input line, and the searchable conversation
// sidebar. All conversation state lives in the controller; this package
// only renders it and translates key presses into intents.
package chat
