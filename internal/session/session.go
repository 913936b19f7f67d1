// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authoritative transcript state for one open
// conversation: optimistic local appends, backend dispatch, and
// reconciliation of the message list against server state.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// Backend is the slice of the api client a session needs. Kept narrow so
// tests can drive the reconcile protocol with a fake.
type Backend interface {
	Chat(ctx context.Context, prompt, conversationID string) (model.Record, error)
	Analyze(ctx context.Context, req api.AnalyzeRequest) (model.Record, error)
	FullTranscript(ctx context.Context, conversationID string) ([]model.Record, error)
	GetTitle(ctx context.Context, conversationID string) (string, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session holds the transcript of one conversation. All mutation goes
// through this type; nothing else touches messages or title directly.
//
// Messages are in chronological append order. Optimistic user appends are
// FIFO in call order; bot replies append at the then-current tail in
// completion order. There is no request/response correlation beyond "the
// reply completed while this session was still live".
type Session struct {
	mu sync.Mutex

	conversationID string
	messages       []model.Message
	title          string
	pendingSends   int
	discarded      bool

	backend Backend
}

// New creates a session bound to the given conversation id. The id may be
// empty for a not-yet-created conversation; the controller rebinds before
// any dispatch in that case.
func New(backend Backend, conversationID string) *Session {
	return &Session{
		backend:        backend,
		conversationID: conversationID,
	}
}

// ConversationID returns the bound conversation id.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Title returns the display title, falling back to the sentinel default.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title == "" {
		return model.DefaultTitle
	}
	return s.title
}

// SetTitle updates the cached title after a successful rename.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// PendingSends returns the number of in-flight send operations. The UI
// keys its send-button/spinner state off this.
func (s *Session) PendingSends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSends
}

// =============================================================================
// OPTIMISTIC APPEND + DISPATCH
// =============================================================================

// AppendOptimistic inserts a message at the tail synchronously, before any
// backend round-trip. Pure in-memory mutation; always succeeds. This is
// what makes the user's own message visible with zero latency.
func (s *Session) AppendOptimistic(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// DispatchAndReconcile sends the just-appended optimistic message to
// exactly one backend endpoint chosen by its kind (image -> analyze,
// text -> chat) and, on success, appends exactly one bot reply at the
// then-current tail.
//
// On failure the optimistic message stays in the transcript, flagged
// DeliveryFailed; no bot message is appended and no retry is attempted.
// At-most-once by design: if the request actually landed server-side but
// the response was lost, the next full reload reconciles.
func (s *Session) DispatchAndReconcile(ctx context.Context, userMsg model.Message) (model.Message, error) {
	s.mu.Lock()
	s.pendingSends++
	convID := s.conversationID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pendingSends--
		s.mu.Unlock()
	}()

	rec, err := s.dispatch(ctx, convID, userMsg)
	if err != nil {
		s.setDelivery(userMsg.ID, model.DeliveryFailed)
		return model.Message{}, fmt.Errorf("send %s message: %w", userMsg.Kind, err)
	}

	bot := model.ClassifyIncoming(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		// Session was torn down while the call was in flight; drop the
		// reply rather than resurrecting a dead transcript.
		return bot, nil
	}
	s.setDeliveryLocked(userMsg.ID, model.DeliveryConfirmed)
	s.messages = append(s.messages, bot)
	return bot, nil
}

// dispatch routes the message to the chat or analyze contract.
func (s *Session) dispatch(ctx context.Context, convID string, userMsg model.Message) (model.Record, error) {
	if userMsg.Kind != model.KindImage {
		return s.backend.Chat(ctx, userMsg.Content, convID)
	}

	src := userMsg.ImageSource()
	f, err := os.Open(src)
	if err != nil {
		return model.Record{}, fmt.Errorf("open image %s: %w", src, err)
	}
	defer f.Close()

	return s.backend.Analyze(ctx, api.AnalyzeRequest{
		Image:          f,
		Filename:       filepath.Base(src),
		Question:       userMsg.Content,
		ConversationID: convID,
	})
}

func (s *Session) setDelivery(id string, d model.Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDeliveryLocked(id, d)
}

func (s *Session) setDeliveryLocked(id string, d model.Delivery) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Delivery = d
			return
		}
	}
}

// =============================================================================
// RELOAD
// =============================================================================

// ReloadFromBackend discards the current transcript and title and replaces
// them wholesale from server state via two independent fetches. An empty or
// 404 transcript is a valid new conversation, not an error. Local preview
// attachments of the replaced messages are released.
//
// On error the session is left with an empty transcript and the default
// title; the caller decides how to report it.
func (s *Session) ReloadFromBackend(ctx context.Context) error {
	s.mu.Lock()
	convID := s.conversationID
	s.mu.Unlock()

	records, terr := s.backend.FullTranscript(ctx, convID)
	title, merr := s.backend.GetTitle(ctx, convID)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		s.messages[i].ReleaseLocal()
	}

	if terr != nil {
		s.messages = nil
		s.title = ""
		return fmt.Errorf("reload transcript: %w", terr)
	}

	msgs := make([]model.Message, 0, len(records))
	for i, rec := range records {
		msg := model.ClassifyIncoming(rec)
		if rec.ID == "" {
			// Stable synthesized id so reloading unchanged server state
			// yields an identical list, not one that drifts per reload.
			msg.ID = fmt.Sprintf("%s/%d", convID, i)
		}
		msgs = append(msgs, msg)
	}
	s.messages = msgs

	if merr != nil {
		// Title fetch is best-effort next to the transcript: fall back to
		// the default rather than keeping a stale one.
		s.title = ""
		return fmt.Errorf("reload title: %w", merr)
	}
	s.title = title
	return nil
}

// Discard tears the session down, releasing every local attachment exactly
// once. Replies from still-in-flight dispatches are dropped afterwards.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		s.messages[i].ReleaseLocal()
	}
	s.messages = nil
	s.title = ""
	s.discarded = true
}
