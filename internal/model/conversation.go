// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DefaultTitle is the sentinel shown until the backend assigns or generates
// a real conversation title.
const DefaultTitle = "New conversation"

// Summary is the lightweight conversation form used by the sidebar index.
// The full transcript is never held here; it lives in the active session.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DisplayTitle returns the title or the sentinel default.
func (s Summary) DisplayTitle() string {
	if s.Title == "" {
		return DefaultTitle
	}
	return s.Title
}
