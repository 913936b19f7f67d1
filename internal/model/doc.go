// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// The central type is Message, a closed variant over text, image, and route
// content. Incoming backend records are shaped through ClassifyIncoming,
// which accepts the superset of every message shape the backend has ever
// produced and never fails: unrecognized input degrades to a plain text
// message.
package model
