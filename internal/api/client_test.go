// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// staticCreds is a CredentialSource backed by a plain string.
type staticCreds string

func (s staticCreds) Credential() (string, bool) {
	return string(s), s != ""
}

func TestClient_AttachesBearerWhenPresent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"conversations":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, staticCreds("tok-123"))
	_, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	// Without a credential the header stays absent.
	c = NewClient(server.URL, staticCreds(""))
	_, err = c.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_ListConversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/conversations/", r.URL.Path)
		w.Write([]byte(`{"conversations":[
			{"id":"c1","title":"Jeju trip","created_at":"2025-03-01T10:00:00Z"},
			{"id":"c2","title":""}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, nil)
	got, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "Jeju trip", got[0].Title)
	assert.Equal(t, model.DefaultTitle, got[1].DisplayTitle())
}

func TestClient_CreateConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"conversation_id":"fresh-id"}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL, nil).CreateConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-id", id)
}

func TestClient_CreateConversation_EmptyIDIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, nil).CreateConversation(context.Background())
	var be *BackendError
	require.ErrorAs(t, err, &be)
}

func TestClient_TitleRenameDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"title":"Osaka food tour"}`))
		case r.Method == http.MethodPut:
			assert.Equal(t, "/conversations/c9", r.URL.Path)
			body := make([]byte, r.ContentLength)
			r.Body.Read(body)
			assert.JSONEq(t, `{"title":"renamed"}`, string(body))
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, nil)
	ctx := context.Background()

	title, err := c.GetTitle(ctx, "c9")
	require.NoError(t, err)
	assert.Equal(t, "Osaka food tour", title)

	require.NoError(t, c.RenameConversation(ctx, "c9", "renamed"))
	require.NoError(t, c.DeleteConversation(ctx, "c9"))
}

func TestClient_FullTranscript_404MeansEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	recs, err := NewClient(server.URL, nil).FullTranscript(context.Background(), "new-id")
	require.NoError(t, err, "404 on /full is a valid empty conversation, not an error")
	assert.Empty(t, recs)
	assert.NotNil(t, recs)
}

func TestClient_FullTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/c1/full", r.URL.Path)
		w.Write([]byte(`{"messages":[
			{"content":"plan my trip","sender":"user"},
			{"content":"sure","sender":"bot","route_data":{"origin":"Seoul","destination":"Jeju"}}
		]}`))
	}))
	defer server.Close()

	recs, err := NewClient(server.URL, nil).FullTranscript(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "user", recs[0].Sender)
	require.NotNil(t, recs[1].Route)
	assert.Equal(t, "Jeju", recs[1].Route.Destination)
}

func TestClient_Chat_AnswerField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/", r.URL.Path)
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		assert.JSONEq(t, `{"prompt":"hello","conversation_id":"c1"}`, string(body))
		w.Write([]byte(`{"answer":"hi there"}`))
	}))
	defer server.Close()

	rec, err := NewClient(server.URL, nil).Chat(context.Background(), "hello", "c1")
	require.NoError(t, err)

	msg := model.ClassifyIncoming(rec)
	assert.Equal(t, model.SenderBot, msg.Sender)
	assert.Equal(t, "hi there", msg.Content)
}

func TestClient_Analyze_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "what is this?", r.FormValue("question"))
		assert.Equal(t, "c7", r.FormValue("conversation_id"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "beach.jpg", header.Filename)

		w.Write([]byte(`{"content":"a beach at sunset","image_url":"https://cdn/beach.jpg"}`))
	}))
	defer server.Close()

	rec, err := NewClient(server.URL, nil).Analyze(context.Background(), AnalyzeRequest{
		Image:          strings.NewReader("fake-jpeg-bytes"),
		Filename:       "beach.jpg",
		Question:       "what is this?",
		ConversationID: "c7",
	})
	require.NoError(t, err)

	msg := model.ClassifyIncoming(rec)
	assert.Equal(t, model.KindImage, msg.Kind)
	assert.Equal(t, "https://cdn/beach.jpg", msg.ImageRef)
}

func TestClient_ExportPDF_InlineAndURL(t *testing.T) {
	t.Run("inline pdf body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 fake"))
		}))
		defer server.Close()

		art, err := NewClient(server.URL, nil).ExportPDF(context.Background(), "c1")
		require.NoError(t, err)
		assert.Equal(t, "c1.pdf", art.Filename)
		assert.NotEmpty(t, art.Data)
		assert.Empty(t, art.URL)
	})

	t.Run("json url reference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"url":"https://cdn/export/c1.pdf"}`))
		}))
		defer server.Close()

		art, err := NewClient(server.URL, nil).ExportPDF(context.Background(), "c1")
		require.NoError(t, err)
		assert.Empty(t, art.Data)
		assert.Equal(t, "https://cdn/export/c1.pdf", art.URL)
	})
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"bad token"}`, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, ``, ErrAuthFailed},
		{"not found", http.StatusNotFound, ``, ErrNotFound},
		{"throttled", http.StatusTooManyRequests, ``, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, nil).GetTitle(context.Background(), "c1")
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}

	t.Run("server error carries status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, nil).GetTitle(context.Background(), "c1")
		var be *BackendError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, http.StatusBadGateway, be.Status)
		assert.Contains(t, be.Message, "upstream down")
	})
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, nil).ListConversations(ctx)
	require.Error(t, err)
}
