// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components contains reusable Bubble Tea components for the
// wayfarer chat interface.
package components
