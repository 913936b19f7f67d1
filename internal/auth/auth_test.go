// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(EnvToken, "")
	return NewStore(filepath.Join(t.TempDir(), "token"))
}

func TestCredentialAbsentByDefault(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Credential()
	assert.False(t, ok)
	assert.False(t, s.HasCredential())
}

func TestSetTokenThenCredential(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok-abc123"))

	tok, ok := s.Credential()
	assert.True(t, ok)
	assert.Equal(t, "tok-abc123", tok)
	assert.True(t, s.HasCredential())

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSetTokenTrimsWhitespace(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("  tok-xyz\n"))
	tok, ok := s.Credential()
	assert.True(t, ok)
	assert.Equal(t, "tok-xyz", tok)
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SetToken("   "))
}

func TestEmptyTokenFileCountsAsAbsent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("\n\n"), 0600))
	assert.False(t, s.HasCredential())
}

func TestClearIsDerivedImmediately(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("tok"))
	require.True(t, s.HasCredential())

	require.NoError(t, s.Clear())
	assert.False(t, s.HasCredential(), "logged-in state must follow the store with no caching")

	// Clearing twice is fine.
	require.NoError(t, s.Clear())
}

func TestEnvOverrideWins(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("file-token"))
	t.Setenv(EnvToken, "env-token")

	tok, ok := s.Credential()
	assert.True(t, ok)
	assert.Equal(t, "env-token", tok)
}
