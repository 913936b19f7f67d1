// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/config"
	"github.com/jeranaias/wayfarer-tui/internal/controller"
	"github.com/jeranaias/wayfarer-tui/internal/index"
	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	chats   int
	creates int
}

func (f *fakeBackend) Chat(_ context.Context, prompt, conversationID string) (model.Record, error) {
	f.chats++
	return model.Record{ID: fmt.Sprintf("bot-%d", f.chats), Text: "reply to " + prompt}, nil
}

func (f *fakeBackend) Analyze(_ context.Context, req api.AnalyzeRequest) (model.Record, error) {
	return model.Record{ID: "bot-img", Text: "looks like a beach"}, nil
}

func (f *fakeBackend) FullTranscript(_ context.Context, id string) ([]model.Record, error) {
	return nil, nil
}

func (f *fakeBackend) GetTitle(_ context.Context, id string) (string, error) {
	return "Trip planning", nil
}

func (f *fakeBackend) ListConversations(_ context.Context) ([]model.Summary, error) {
	return []model.Summary{{ID: "c1", Title: "Lisbon weekend"}}, nil
}

func (f *fakeBackend) CreateConversation(_ context.Context) (string, error) {
	f.creates++
	return fmt.Sprintf("conv-%d", f.creates), nil
}

func (f *fakeBackend) RenameConversation(_ context.Context, conversationID, title string) error {
	return nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, conversationID string) error {
	return nil
}

func (f *fakeBackend) ExportPDF(_ context.Context, conversationID string) (api.Artifact, error) {
	return api.Artifact{Filename: "summary.pdf", Data: []byte("%PDF")}, nil
}

func newTestModel(t *testing.T) (Model, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	idx := index.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := controller.New(backend, idx, log, nil)

	cfg := config.Default()
	m := New(ctrl, idx, cfg, log)
	m.width = 100
	m.height = 30
	m.layout()
	return m, backend
}

func pressEnter(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// =============================================================================
// TESTS
// =============================================================================

func TestWindowSizeTriggersLayout(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	assert.True(t, m.ready)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 36, m.viewport.Height)
}

func TestSubmitAppendsOptimisticallyBeforeBackendReply(t *testing.T) {
	m, _ := newTestModel(t)
	require.NoError(t, m.ctrl.Bind(context.Background(), "c1"))

	m.input.SetValue("best tapas in Seville?")
	m, cmd := pressEnter(t, m)

	// The user message is on screen before the completion command runs.
	msgs := m.ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, model.DeliveryPending, msgs[0].Delivery)
	assert.Empty(t, m.input.Value())

	require.NotNil(t, cmd)
	done := findSendDone(t, cmd)
	next, _ := m.Update(done)
	m = next.(Model)

	msgs = m.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.DeliveryConfirmed, msgs[0].Delivery)
	assert.Equal(t, model.SenderBot, msgs[1].Sender)
}

func TestSubmitEmptyInputIsNoop(t *testing.T) {
	m, backend := newTestModel(t)
	require.NoError(t, m.ctrl.Bind(context.Background(), "c1"))

	m.input.SetValue("   ")
	m, cmd := pressEnter(t, m)

	assert.Nil(t, cmd)
	assert.Empty(t, m.ctrl.Messages())
	assert.Zero(t, backend.chats)
}

func TestSlashAttachQueuesNothingForMissingFile(t *testing.T) {
	m, _ := newTestModel(t)

	m.input.SetValue("/attach /no/such/photo.jpg")
	m, _ = pressEnter(t, m)

	assert.Empty(t, m.attach)
	assert.Contains(t, m.toast, "cannot read")
}

func TestSlashUnknownCommandShowsToast(t *testing.T) {
	m, _ := newTestModel(t)

	m.input.SetValue("/teleport home")
	m, _ = pressEnter(t, m)

	assert.Contains(t, m.toast, "unknown command /teleport")
}

func TestToastClearIgnoresStaleSeq(t *testing.T) {
	m, _ := newTestModel(t)

	_ = m.setToast("first")
	stale := m.toastSeq
	_ = m.setToast("second")

	next, _ := m.Update(toastClearMsg{seq: stale})
	m = next.(Model)
	assert.Equal(t, "second", m.toast)

	next, _ = m.Update(toastClearMsg{seq: m.toastSeq})
	m = next.(Model)
	assert.Empty(t, m.toast)
}

func TestTabTogglesFocus(t *testing.T) {
	m, _ := newTestModel(t)
	require.Equal(t, focusInput, m.focus)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, focusSidebar, m.focus)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, focusInput, m.focus)
}

func TestSidebarHiddenIgnoresTab(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	m = next.(Model)
	require.False(t, m.showSidebar)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, focusInput, m.focus)
}

// findSendDone runs a command tree and returns the sendDoneMsg it yields,
// unwrapping batches along the way.
func findSendDone(t *testing.T, cmd tea.Cmd) sendDoneMsg {
	t.Helper()
	var walk func(tea.Cmd) (sendDoneMsg, bool)
	walk = func(c tea.Cmd) (sendDoneMsg, bool) {
		if c == nil {
			return sendDoneMsg{}, false
		}
		switch msg := c().(type) {
		case sendDoneMsg:
			return msg, true
		case tea.BatchMsg:
			for _, sub := range msg {
				if done, ok := walk(sub); ok {
					return done, true
				}
			}
		}
		return sendDoneMsg{}, false
	}
	done, ok := walk(cmd)
	require.True(t, ok, "command tree produced no send completion")
	return done
}
