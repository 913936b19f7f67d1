// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the wayfarer backend.
//
// The backend owns authentication, conversation persistence, chat
// completion, image analysis, and PDF export; this package only speaks its
// request/response contract. Chat and analyze calls are deliberately
// fire-once: the session layer's at-most-once bot-reply policy forbids
// client-side retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout bounds a single backend round-trip.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies to keep a misbehaving backend
	// from exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024

	// requestsPerSecond and burstSize bound the client-side request rate.
	// The backend has its own limits; staying under them avoids turning a
	// fast typist into a 429 storm.
	requestsPerSecond = 8
	burstSize         = 16
)

// Sentinel errors mapped from backend status codes.
var (
	// ErrAuthFailed indicates a missing, invalid, or expired credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the conversation or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the backend is throttling this client.
	ErrRateLimited = errors.New("rate limited")
)

// BackendError carries an unmapped backend failure.
type BackendError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// CredentialSource supplies the opaque bearer token, when one exists.
// Implementations must recompute presence on every call rather than caching
// a logged-in flag; the token store may change underneath a running client.
type CredentialSource interface {
	Credential() (token string, ok bool)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the wayfarer backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	limiter    *rate.Limiter
}

// NewClient creates a backend client for the given base URL. creds may be
// nil, in which case requests go out unauthenticated.
func NewClient(baseURL string, creds CredentialSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		creds:   creds,
		limiter: rate.NewLimiter(requestsPerSecond, burstSize),
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithHTTPClient swaps the underlying HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

type conversationListResponse struct {
	Conversations []model.Summary `json:"conversations"`
}

type createConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

type conversationMetaResponse struct {
	Title string `json:"title"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type transcriptResponse struct {
	Messages []model.Record `json:"messages"`
}

type chatRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversation_id"`
}

type exportRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Artifact references the result of a summarize/export call: either inline
// PDF bytes or a URL the backend stored the document at.
type Artifact struct {
	Filename string
	Data     []byte
	URL      string
}

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// ListConversations fetches the sidebar summary list.
func (c *Client) ListConversations(ctx context.Context) ([]model.Summary, error) {
	var out conversationListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/conversations/", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// CreateConversation asks the backend for a fresh conversation and returns
// its server-assigned id.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var out createConversationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/conversations/", struct{}{}, &out); err != nil {
		return "", err
	}
	if out.ConversationID == "" {
		return "", &BackendError{Status: http.StatusOK, Message: "create returned no conversation_id"}
	}
	return out.ConversationID, nil
}

// GetTitle fetches the conversation's current title.
func (c *Client) GetTitle(ctx context.Context, conversationID string) (string, error) {
	var out conversationMetaResponse
	if err := c.doJSON(ctx, http.MethodGet, "/conversations/"+conversationID, nil, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// RenameConversation changes the conversation title.
func (c *Client) RenameConversation(ctx context.Context, conversationID, title string) error {
	return c.doJSON(ctx, http.MethodPut, "/conversations/"+conversationID, renameRequest{Title: title}, nil)
}

// DeleteConversation removes the conversation server-side.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/conversations/"+conversationID, nil, nil)
}

// FullTranscript fetches the complete message history. A 404 or an empty
// body is a valid "no messages yet" outcome and returns an empty slice with
// no error; only genuine transport or server failures are errors.
func (c *Client) FullTranscript(ctx context.Context, conversationID string) ([]model.Record, error) {
	var out transcriptResponse
	err := c.doJSON(ctx, http.MethodGet, "/conversations/"+conversationID+"/full", nil, &out)
	if errors.Is(err, ErrNotFound) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Messages == nil {
		return []model.Record{}, nil
	}
	return out.Messages, nil
}

// =============================================================================
// CHAT / ANALYZE ENDPOINTS
// =============================================================================

// Chat performs a text turn and returns the backend's reply record.
func (c *Client) Chat(ctx context.Context, prompt, conversationID string) (model.Record, error) {
	var out model.Record
	err := c.doJSON(ctx, http.MethodPost, "/chat/", chatRequest{
		Prompt:         prompt,
		ConversationID: conversationID,
	}, &out)
	if err != nil {
		return model.Record{}, err
	}
	out.Sender = string(model.SenderBot)
	return out, nil
}

// AnalyzeRequest is an image turn: the image bytes, the question asked
// about them, and the conversation to attach the exchange to.
type AnalyzeRequest struct {
	Image          io.Reader
	Filename       string
	Question       string
	ConversationID string
}

// Analyze performs an image turn via multipart upload and returns the
// backend's reply record.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (model.Record, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", req.Filename)
	if err != nil {
		return model.Record{}, fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, req.Image); err != nil {
		return model.Record{}, fmt.Errorf("copy image: %w", err)
	}
	if err := w.WriteField("question", req.Question); err != nil {
		return model.Record{}, fmt.Errorf("write question: %w", err)
	}
	if err := w.WriteField("conversation_id", req.ConversationID); err != nil {
		return model.Record{}, fmt.Errorf("write conversation_id: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.Record{}, fmt.Errorf("finalize multipart: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/analyze", &buf, w.FormDataContentType())
	if err != nil {
		return model.Record{}, err
	}

	var out model.Record
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Record{}, fmt.Errorf("parse analyze response: %w", err)
	}
	out.Sender = string(model.SenderBot)
	return out, nil
}

// =============================================================================
// EXPORT ENDPOINT
// =============================================================================

// ExportPDF asks the backend to summarize the conversation into a PDF.
// Depending on backend version the artifact comes back inline
// (application/pdf body) or as a JSON reference {url}.
func (c *Client) ExportPDF(ctx context.Context, conversationID string) (Artifact, error) {
	reqBody, err := json.Marshal(exportRequest{ConversationID: conversationID})
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal export request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/export/pdf", bytes.NewReader(reqBody))
	if err != nil {
		return Artifact{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCredential(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return Artifact{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body)
	if err != nil {
		return Artifact{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Artifact{}, mapStatus(resp.StatusCode, body)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/pdf") {
		return Artifact{
			Filename: conversationID + ".pdf",
			Data:     body,
		}, nil
	}

	var ref struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &ref); err != nil || ref.URL == "" {
		return Artifact{}, &BackendError{Status: resp.StatusCode, Message: "export returned no artifact"}
	}
	return Artifact{URL: ref.URL}, nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// doJSON performs a JSON round-trip. out may be nil for endpoints whose
// body the caller does not care about.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	respBody, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	c.attachCredential(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapStatus(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// attachCredential adds the bearer header when a token is present right
// now. Presence is re-derived on every request, never cached.
func (c *Client) attachCredential(req *http.Request) {
	if c.creds == nil {
		return
	}
	if token, ok := c.creds.Credential(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// readLimited reads a response body with the size cap applied.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded %d bytes", MaxResponseSize)
	}
	return body, nil
}

// mapStatus converts an HTTP error status into the client's error taxonomy.
func mapStatus(status int, body []byte) error {
	var detail struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Detail != "" {
			msg = detail.Detail
		} else {
			msg = detail.Message
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
		}
		return ErrAuthFailed
	case http.StatusNotFound:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return ErrNotFound
	case http.StatusTooManyRequests:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return ErrRateLimited
	default:
		if msg == "" {
			msg = strings.TrimSpace(string(body))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return &BackendError{Status: status, Message: msg}
	}
}
