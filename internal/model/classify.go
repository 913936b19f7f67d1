// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// BACKEND RECORD
// =============================================================================

// Record is the superset of every message shape the backend has produced
// across its iterations: plain text only, "answer" instead of "content",
// the early mock's "text" field, image_url as a separate field, and the
// current explicit type + route_data form. Unknown fields are ignored by
// the JSON decoder, so new drift keeps decoding.
type Record struct {
	ID       string     `json:"id,omitempty"`
	Content  string     `json:"content,omitempty"`
	Answer   string     `json:"answer,omitempty"`
	Text     string     `json:"text,omitempty"`
	Sender   string     `json:"sender,omitempty"`
	Type     string     `json:"type,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	Route    *RouteData `json:"route_data,omitempty"`
}

// RouteData is the wire form of a route payload.
type RouteData struct {
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	RouteURL      string `json:"route_url,omitempty"`
	Distance      string `json:"distance,omitempty"`
	Duration      string `json:"duration,omitempty"`
	TransportMode string `json:"transport_mode,omitempty"`
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ClassifyIncoming shapes a backend record into a well-formed Message. It is
// a total function: no input, however malformed, produces an error. The
// discriminating fields are tried in fixed priority order:
//
//  1. image_url present        -> image (content kept as caption)
//  2. route_data present       -> route (missing sub-fields = "unavailable")
//  3. explicit type recognized -> honored
//  4. otherwise                -> text with best-effort content
//
// Messages built here are always DeliveryConfirmed: they came from the
// backend, confirmation is inherent.
func ClassifyIncoming(rec Record) Message {
	msg := Message{
		ID:        rec.ID,
		Sender:    classifySender(rec.Sender),
		Kind:      KindText,
		Content:   bestContent(rec),
		CreatedAt: time.Now(),
		Delivery:  DeliveryConfirmed,
	}
	if msg.ID == "" {
		// Transcript records historically carried no id; synthesize one so
		// list keys stay unique within the conversation.
		msg.ID = uuid.NewString()
	}

	switch {
	case rec.ImageURL != "":
		msg.Kind = KindImage
		msg.ImageRef = rec.ImageURL

	case rec.Route != nil:
		msg.Kind = KindRoute
		msg.RouteInfo = routeFromData(rec.Route)

	default:
		switch rec.Type {
		case "image":
			// Declared image with no URL: degrade to text so the transcript
			// never shows a broken image slot.
			msg.Kind = KindText
		case "route", "map":
			msg.Kind = KindRoute
			msg.RouteInfo = routeFromData(nil)
		case "text", "":
			msg.Kind = KindText
		default:
			// Unknown discriminator from future drift.
			msg.Kind = KindText
		}
	}

	return msg
}

func classifySender(s string) Sender {
	if s == string(SenderUser) {
		return SenderUser
	}
	return SenderBot
}

// bestContent picks the display text out of the three field names the
// backend has used for it over time.
func bestContent(rec Record) string {
	switch {
	case rec.Content != "":
		return rec.Content
	case rec.Answer != "":
		return rec.Answer
	default:
		return rec.Text
	}
}

func routeFromData(d *RouteData) *RouteInfo {
	info := &RouteInfo{}
	if d != nil {
		info.OriginLabel = d.Origin
		info.DestinationLabel = d.Destination
		info.MapEmbedURL = d.RouteURL
		info.Distance = d.Distance
		info.Duration = d.Duration
		info.TransportMode = d.TransportMode
	}
	info.normalize()
	return info
}
