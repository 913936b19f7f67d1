// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/wayfarer-tui/internal/util"
)

// =============================================================================
// SENDER / KIND / DELIVERY
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// Kind discriminates the message payload variant.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindRoute Kind = "route"
)

// Delivery tracks the backend confirmation state of a message. Optimistic
// user messages start Pending; they flip to Failed when the paired send
// fails and to Confirmed otherwise. Messages built from a reloaded
// transcript are always Confirmed.
type Delivery int

const (
	DeliveryPending Delivery = iota
	DeliveryConfirmed
	DeliveryFailed
)

// String returns the delivery state name.
func (d Delivery) String() string {
	switch d {
	case DeliveryPending:
		return "pending"
	case DeliveryConfirmed:
		return "confirmed"
	case DeliveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// ROUTE INFO
// =============================================================================

// Unavailable is the placeholder rendered for route sub-fields the backend
// did not supply.
const Unavailable = "unavailable"

// RouteInfo holds the structured payload of a route message.
type RouteInfo struct {
	OriginLabel      string
	DestinationLabel string
	MapEmbedURL      string
	Distance         string
	Duration         string
	TransportMode    string
}

// normalize replaces empty sub-fields with the Unavailable placeholder so
// renderers never have to special-case partial route data. The embed URL is
// left empty when missing; renderers show a "no map" notice instead.
func (r *RouteInfo) normalize() {
	fields := []*string{
		&r.OriginLabel, &r.DestinationLabel,
		&r.Distance, &r.Duration, &r.TransportMode,
	}
	for _, f := range fields {
		if *f == "" {
			*f = Unavailable
		}
	}
}

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment is a local, revocable handle to an image file backing an
// optimistic message preview. It owns whatever cleanup the producer
// registered (temp file removal, decoded buffer release) and guarantees the
// cleanup runs exactly once, either when the message is superseded by a
// reconciled transcript or when the owning session is discarded.
type Attachment struct {
	Path string

	once    sync.Once
	cleanup func()
}

// NewAttachment wraps a local file path with an optional cleanup hook.
func NewAttachment(path string, cleanup func()) *Attachment {
	return &Attachment{Path: path, cleanup: cleanup}
}

// Release revokes the handle. Safe to call more than once; the cleanup hook
// runs only on the first call.
func (a *Attachment) Release() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		if a.cleanup != nil {
			a.cleanup()
		}
	})
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single entry in a conversation transcript. Messages are
// immutable once created apart from the Delivery flag; reconciliation
// replaces them wholesale rather than mutating them.
//
// Exactly one primary payload is populated, consistent with Kind:
// Content for text and route (route keeps Content as lead-in text),
// ImageRef/Attachment for image. An image message may additionally carry
// Content as a caption.
type Message struct {
	ID        string
	Sender    Sender
	Kind      Kind
	CreatedAt time.Time
	Delivery  Delivery

	// Content is the display text (caption for image messages).
	Content string

	// ImageRef is the durable remote URL of an image message once the
	// backend has stored it. Optimistic image messages have an Attachment
	// instead.
	ImageRef string

	// Attachment is the local preview handle of an unconfirmed image
	// message. Nil for everything else.
	Attachment *Attachment

	// RouteInfo is set only for Kind == KindRoute.
	RouteInfo *RouteInfo
}

// NewOptimisticUserMessage builds the locally-appended representation of a
// user action before any backend round-trip. The ID is client-generated and
// is never reconciled against the server-assigned one; a full reload
// replaces the whole list instead.
func NewOptimisticUserMessage(text string, attachment *Attachment) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    SenderUser,
		Kind:      KindText,
		Content:   text,
		CreatedAt: time.Now(),
		Delivery:  DeliveryPending,
	}
	if attachment != nil {
		msg.Kind = KindImage
		msg.Attachment = attachment
	}
	return msg
}

// ImageSource returns the best available image reference: the local
// attachment while the message is unconfirmed, the remote URL afterwards.
func (m *Message) ImageSource() string {
	if m.Attachment != nil {
		return m.Attachment.Path
	}
	return m.ImageRef
}

// ReleaseLocal revokes the local attachment, if any.
func (m *Message) ReleaseLocal() {
	m.Attachment.Release()
}

// Preview returns a one-line truncated preview of the message.
func (m *Message) Preview(maxRunes int) string {
	switch m.Kind {
	case KindImage:
		if m.Content != "" {
			return util.TruncateRunes(util.FirstLine(m.Content), maxRunes)
		}
		return "[image]"
	case KindRoute:
		if m.Content != "" {
			return util.TruncateRunes(util.FirstLine(m.Content), maxRunes)
		}
		return "[route]"
	default:
		return util.TruncateRunes(util.FirstLine(m.Content), maxRunes)
	}
}
