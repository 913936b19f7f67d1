// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders transcripts as pretty-printed JSON for machine
// consumption.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	ConversationID string        `json:"conversation_id"`
	Title          string        `json:"title"`
	ExportedAt     time.Time     `json:"exported_at"`
	Messages       []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	Kind      string     `json:"kind"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	Delivery  string     `json:"delivery"`
	Content   string     `json:"content,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	Route     *jsonRoute `json:"route,omitempty"`
}

type jsonRoute struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Distance      string `json:"distance"`
	Duration      string `json:"duration"`
	TransportMode string `json:"transport_mode"`
	MapEmbedURL   string `json:"map_embed_url,omitempty"`
}

// Export renders the transcript.
func (e *JSONExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	doc := jsonDocument{
		ConversationID: tr.ConversationID,
		Title:          tr.Title,
		ExportedAt:     tr.ExportedAt,
		Messages:       make([]jsonMessage, 0, len(tr.Messages)),
	}
	if doc.ExportedAt.IsZero() {
		doc.ExportedAt = time.Now()
	}

	for _, msg := range tr.Messages {
		jm := jsonMessage{
			ID:        msg.ID,
			Sender:    string(msg.Sender),
			Kind:      string(msg.Kind),
			CreatedAt: msg.CreatedAt,
			Delivery:  msg.Delivery.String(),
			Content:   msg.Content,
			ImageURL:  msg.ImageSource(),
		}
		if r := msg.RouteInfo; r != nil {
			jm.Route = &jsonRoute{
				Origin:        r.OriginLabel,
				Destination:   r.DestinationLabel,
				Distance:      r.Distance,
				Duration:      r.Duration,
				TransportMode: r.TransportMode,
				MapEmbedURL:   r.MapEmbedURL,
			}
		}
		doc.Messages = append(doc.Messages, jm)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
