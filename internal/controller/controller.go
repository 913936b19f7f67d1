// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller binds one conversation session to the active
// conversation id and exposes the user-facing intents: send, rename,
// delete, summarize, new conversation.
//
// The controller is the only owner of the active session. Switching
// conversation discards the previous session wholesale; completed backend
// calls that belong to a superseded binding are silently dropped (the
// stale-response guard), never merged into the wrong transcript.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/index"
	"github.com/jeranaias/wayfarer-tui/internal/model"
	"github.com/jeranaias/wayfarer-tui/internal/session"
)

// User-visible failure classes. Internal degradations (stale responses,
// malformed records) are handled silently and never reach the reporter.
var (
	// ErrCreateConversationFailed: the new-conversation call failed before
	// any optimistic append; the send was aborted entirely.
	ErrCreateConversationFailed = errors.New("could not create conversation")

	// ErrSendFailed: the chat/analyze call failed after the optimistic
	// append; the message stays visible, unconfirmed.
	ErrSendFailed = errors.New("message could not be delivered")

	// ErrReloadFailed: transcript or title fetch failed while binding; the
	// view falls back to an empty transcript rather than a stale one.
	ErrReloadFailed = errors.New("could not load conversation")

	// ErrNoConversation: an intent that requires a bound conversation ran
	// in the unbound state.
	ErrNoConversation = errors.New("no conversation open")
)

// Backend is everything the controller needs from the api client.
type Backend interface {
	session.Backend
	ListConversations(ctx context.Context) ([]model.Summary, error)
	CreateConversation(ctx context.Context) (string, error)
	RenameConversation(ctx context.Context, conversationID, title string) error
	DeleteConversation(ctx context.Context, conversationID string) error
	ExportPDF(ctx context.Context, conversationID string) (api.Artifact, error)
}

// Reporter receives user-visible errors (the TUI shows a toast, the REPL
// prints a line). May be nil.
type Reporter func(err error)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller orchestrates the active session against the backend and keeps
// the sidebar index in sync.
type Controller struct {
	mu sync.Mutex

	backend Backend
	idx     *index.Index
	log     *slog.Logger
	report  Reporter

	// sess is nil in the unbound state. epoch increments on every bind
	// and unbind; in-flight work captures the epoch it started under and
	// is dropped when it no longer matches.
	sess  *session.Session
	epoch uint64
}

// New creates an unbound controller.
func New(backend Backend, idx *index.Index, log *slog.Logger, report Reporter) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		backend: backend,
		idx:     idx,
		log:     log,
		report:  report,
	}
}

// Bound reports whether a conversation is currently open.
func (c *Controller) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// ConversationID returns the bound id, or "" when unbound.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.ConversationID()
}

// Messages snapshots the active transcript. Empty when unbound.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Messages()
}

// Title returns the active conversation title or the sentinel default.
func (c *Controller) Title() string {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return model.DefaultTitle
	}
	return s.Title()
}

// PendingSends returns the number of in-flight sends for the active
// session.
func (c *Controller) PendingSends() int {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.PendingSends()
}

// =============================================================================
// BINDING
// =============================================================================

// Bind switches the controller to the given conversation id, discarding
// any previous session, and reloads the transcript unconditionally, even
// for an id this controller just created, so the view always reflects
// server state rather than the client's optimistic guess.
func (c *Controller) Bind(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	if c.sess != nil {
		c.sess.Discard()
	}
	c.epoch++
	e := c.epoch
	s := session.New(c.backend, conversationID)
	c.sess = s
	c.mu.Unlock()

	if err := s.ReloadFromBackend(ctx); err != nil {
		if c.stale(e) {
			c.log.Debug("dropping stale reload result", "conversation", conversationID)
			return nil
		}
		err = fmt.Errorf("%w: %v", ErrReloadFailed, err)
		c.surface(err)
		return err
	}
	return nil
}

// Unbind returns to the no-conversation state.
func (c *Controller) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		c.sess.Discard()
		c.sess = nil
	}
	c.epoch++
}

func (c *Controller) stale(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

func (c *Controller) current() (*session.Session, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess, c.epoch
}

// =============================================================================
// SEND
// =============================================================================

// SendResult is what a completed send produced.
type SendResult struct {
	ConversationID string
	Bot            model.Message
}

// SendFunc runs the backend half of a send. Run it on any goroutine; local
// state is already consistent when SendMessage returns.
type SendFunc func(ctx context.Context) (*SendResult, error)

// SendMessage starts a send. When a conversation is bound the optimistic
// append happens synchronously before this returns, which is what keeps
// rapid successive sends FIFO in local state: callers invoke SendMessage
// from their event loop in user order and run the returned SendFunc
// concurrently.
//
// In the unbound state nothing is appended yet: the returned SendFunc
// first creates a conversation, binds to it (with the mandatory reload),
// and only then appends and dispatches. If creation fails the send is
// aborted entirely and the attachment released.
func (c *Controller) SendMessage(text string, att *model.Attachment) SendFunc {
	c.mu.Lock()
	s := c.sess
	e := c.epoch
	c.mu.Unlock()

	if s == nil {
		return c.sendCreating(text, att, e)
	}

	msg := model.NewOptimisticUserMessage(text, att)
	s.AppendOptimistic(msg)

	return func(ctx context.Context) (*SendResult, error) {
		return c.completeSend(ctx, s, e, msg)
	}
}

// sendCreating handles the unbound first send: create, bind, then append
// and dispatch on the fresh session. queuedAt is the epoch the send was
// queued under; if it moved before the conversation exists, the user
// navigated somewhere and the send is dropped without binding.
func (c *Controller) sendCreating(text string, att *model.Attachment, queuedAt uint64) SendFunc {
	return func(ctx context.Context) (*SendResult, error) {
		id, err := c.backend.CreateConversation(ctx)
		if err != nil {
			att.Release()
			err = fmt.Errorf("%w: %v", ErrCreateConversationFailed, err)
			c.surface(err)
			return nil, err
		}

		if c.stale(queuedAt) {
			// Nothing was appended; drop the send rather than yanking the
			// user out of the conversation they opened meanwhile.
			att.Release()
			c.log.Debug("dropping send for superseded binding", "conversation", id)
			return nil, nil
		}

		if err := c.Bind(ctx, id); err != nil {
			// Bound with an empty transcript; the send still proceeds so
			// the user's message is not lost over a title fetch.
			c.log.Warn("bind after create failed", "conversation", id, "error", err)
		}

		s, e := c.current()
		if s == nil || s.ConversationID() != id {
			att.Release()
			return nil, nil
		}

		msg := model.NewOptimisticUserMessage(text, att)
		s.AppendOptimistic(msg)
		return c.completeSend(ctx, s, e, msg)
	}
}

// completeSend runs the dispatch half and applies the stale-response
// guard: a reply resolving for a binding that is no longer current is
// discarded silently.
func (c *Controller) completeSend(ctx context.Context, s *session.Session, e uint64, msg model.Message) (*SendResult, error) {
	bot, err := s.DispatchAndReconcile(ctx, msg)

	if c.stale(e) {
		// The session was discarded on rebind; the session itself already
		// refused the append. Suppress the error too: a failure for a
		// conversation the user left is noise.
		c.log.Debug("dropping stale send result", "conversation", s.ConversationID())
		return nil, nil
	}

	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSendFailed, err)
		c.surface(err)
		return nil, err
	}

	// Successful exchange: the backend may have (re)generated the title,
	// and updated_at moved. Refresh both, best-effort.
	c.refreshTitle(ctx, s, e)
	c.refreshIndex(ctx)

	return &SendResult{ConversationID: s.ConversationID(), Bot: bot}, nil
}

func (c *Controller) refreshTitle(ctx context.Context, s *session.Session, e uint64) {
	title, err := c.backend.GetTitle(ctx, s.ConversationID())
	if err != nil || c.stale(e) {
		return
	}
	s.SetTitle(title)
}

// =============================================================================
// OTHER INTENTS
// =============================================================================

// NewConversation creates a conversation explicitly and binds to it.
func (c *Controller) NewConversation(ctx context.Context) (string, error) {
	id, err := c.backend.CreateConversation(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCreateConversationFailed, err)
		c.surface(err)
		return "", err
	}
	if err := c.Bind(ctx, id); err != nil {
		return id, err
	}
	c.refreshIndex(ctx)
	return id, nil
}

// EditTitle renames the bound conversation.
func (c *Controller) EditTitle(ctx context.Context, title string) error {
	s, e := c.current()
	if s == nil {
		return ErrNoConversation
	}
	if err := c.backend.RenameConversation(ctx, s.ConversationID(), title); err != nil {
		err = fmt.Errorf("rename conversation: %w", err)
		c.surface(err)
		return err
	}
	if !c.stale(e) {
		s.SetTitle(title)
	}
	c.refreshIndex(ctx)
	return nil
}

// DeleteConversation deletes the bound conversation and falls back to the
// unbound state.
func (c *Controller) DeleteConversation(ctx context.Context) error {
	s, _ := c.current()
	if s == nil {
		return ErrNoConversation
	}
	id := s.ConversationID()
	if err := c.backend.DeleteConversation(ctx, id); err != nil {
		err = fmt.Errorf("delete conversation: %w", err)
		c.surface(err)
		return err
	}

	c.mu.Lock()
	// Only unbind if the deleted conversation is still the bound one; the
	// user may have navigated away while the delete was in flight.
	if c.sess == s {
		s.Discard()
		c.sess = nil
		c.epoch++
	}
	c.mu.Unlock()

	c.refreshIndex(ctx)
	return nil
}

// Summarize exports the bound conversation as a PDF artifact via the
// backend. The summarization itself is entirely backend-side.
func (c *Controller) Summarize(ctx context.Context) (api.Artifact, error) {
	s, _ := c.current()
	if s == nil {
		return api.Artifact{}, ErrNoConversation
	}
	art, err := c.backend.ExportPDF(ctx, s.ConversationID())
	if err != nil {
		err = fmt.Errorf("export conversation: %w", err)
		c.surface(err)
		return api.Artifact{}, err
	}
	c.refreshIndex(ctx)
	return art, nil
}

// =============================================================================
// SIDEBAR
// =============================================================================

// RefreshIndex fetches the conversation list and replaces the sidebar
// index. Called by intents after success and by the UI when the sidebar
// opens.
func (c *Controller) RefreshIndex(ctx context.Context) error {
	summaries, err := c.backend.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	c.idx.SetAll(summaries)
	return nil
}

// refreshIndex is the best-effort flavor used on intent success paths.
func (c *Controller) refreshIndex(ctx context.Context) {
	if err := c.RefreshIndex(ctx); err != nil {
		c.log.Warn("sidebar refresh failed", "error", err)
	}
}

func (c *Controller) surface(err error) {
	c.log.Error("intent failed", "error", err)
	if c.report != nil {
		c.report(err)
	}
}
