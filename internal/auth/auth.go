// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores the backend bearer token.
//
// Whether the user is logged in is always derived from the stored
// credential at the moment of asking; nothing caches an is-logged-in flag
// that could drift from the token file.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/wayfarer-tui/internal/util"
)

// EnvToken overrides the token file when set. Useful for CI and one-off
// runs against a scratch backend.
const EnvToken = "WAYFARER_TOKEN"

// Store reads and writes the bearer token at a fixed path. It implements
// the api client's CredentialSource.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string { return s.path }

// Credential returns the current token and whether one exists. The
// environment override wins over the file. A present-but-empty token file
// counts as no credential.
func (s *Store) Credential() (string, bool) {
	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		return tok, true
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", false
	}
	return tok, true
}

// HasCredential reports whether a usable token exists right now.
func (s *Store) HasCredential() bool {
	_, ok := s.Credential()
	return ok
}

// SetToken persists the token with owner-only permissions.
func (s *Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := util.AtomicWriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an already-absent token is not
// an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
