// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wayfarer-tui/internal/api"
	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// fakeBackend drives the session without HTTP. Each chat call can be gated
// on a channel to simulate out-of-order completion.
type fakeBackend struct {
	mu sync.Mutex

	chatFn    func(prompt string) (model.Record, error)
	analyzeFn func(req api.AnalyzeRequest) (model.Record, error)

	transcript []model.Record
	title      string

	transcriptErr error
	titleErr      error

	transcriptCalls int
}

func (f *fakeBackend) Chat(_ context.Context, prompt, _ string) (model.Record, error) {
	if f.chatFn != nil {
		return f.chatFn(prompt)
	}
	return model.Record{Answer: "echo: " + prompt, Sender: "bot"}, nil
}

func (f *fakeBackend) Analyze(_ context.Context, req api.AnalyzeRequest) (model.Record, error) {
	if f.analyzeFn != nil {
		return f.analyzeFn(req)
	}
	return model.Record{Content: "image reply", Sender: "bot"}, nil
}

func (f *fakeBackend) FullTranscript(_ context.Context, _ string) ([]model.Record, error) {
	f.mu.Lock()
	f.transcriptCalls++
	f.mu.Unlock()
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}
	return f.transcript, nil
}

func (f *fakeBackend) GetTitle(_ context.Context, _ string) (string, error) {
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}

// =============================================================================
// OPTIMISTIC APPEND
// =============================================================================

func TestAppendOptimistic_VisibleBeforeDispatch(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		chatFn: func(prompt string) (model.Record, error) {
			<-release
			return model.Record{Answer: "done"}, nil
		},
	}
	s := New(backend, "c1")

	msg := model.NewOptimisticUserMessage("hello", nil)
	s.AppendOptimistic(msg)

	// The user message is in the transcript while the backend call has not
	// even started resolving.
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, model.DeliveryPending, s.Messages()[0].Delivery)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.DispatchAndReconcile(context.Background(), msg)
		assert.NoError(t, err)
	}()

	close(release)
	<-done

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.DeliveryConfirmed, msgs[0].Delivery)
	assert.Equal(t, model.SenderBot, msgs[1].Sender)
	assert.Equal(t, "done", msgs[1].Content)
}

func TestDispatch_FailureKeepsOptimisticMessage(t *testing.T) {
	backend := &fakeBackend{
		chatFn: func(string) (model.Record, error) {
			return model.Record{}, errors.New("boom")
		},
	}
	s := New(backend, "c1")

	msg := model.NewOptimisticUserMessage("hello", nil)
	s.AppendOptimistic(msg)

	_, err := s.DispatchAndReconcile(context.Background(), msg)
	require.Error(t, err)

	msgs := s.Messages()
	require.Len(t, msgs, 1, "optimistic message is never rolled back; no bot reply on failure")
	assert.Equal(t, model.DeliveryFailed, msgs[0].Delivery)
	assert.Equal(t, 0, s.PendingSends())
}

func TestDispatch_ImageGoesToAnalyze(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "beach.jpg")
	require.NoError(t, os.WriteFile(imgPath, []byte("jpeg"), 0o600))

	var gotQuestion, gotFilename string
	backend := &fakeBackend{
		analyzeFn: func(req api.AnalyzeRequest) (model.Record, error) {
			gotQuestion = req.Question
			gotFilename = req.Filename
			io.Copy(io.Discard, req.Image)
			return model.Record{Content: "looks sunny", ImageURL: "https://cdn/beach.jpg"}, nil
		},
	}
	s := New(backend, "c1")

	msg := model.NewOptimisticUserMessage("what beach is this?", model.NewAttachment(imgPath, nil))
	s.AppendOptimistic(msg)

	bot, err := s.DispatchAndReconcile(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "what beach is this?", gotQuestion)
	assert.Equal(t, "beach.jpg", gotFilename)
	assert.Equal(t, model.KindImage, bot.Kind)
}

// Two rapid sends stay FIFO in local state while their bot replies land at
// the then-current tail in completion order, even when the second call
// finishes first.
func TestDispatch_RepliesAppendAtTailInCompletionOrder(t *testing.T) {
	firstGate := make(chan struct{})
	backend := &fakeBackend{
		chatFn: func(prompt string) (model.Record, error) {
			if prompt == "hello" {
				<-firstGate // hold the first reply until the second lands
			}
			return model.Record{Answer: "re: " + prompt}, nil
		},
	}
	s := New(backend, "c1")

	m1 := model.NewOptimisticUserMessage("hello", nil)
	s.AppendOptimistic(m1)
	m2 := model.NewOptimisticUserMessage("world", nil)
	s.AppendOptimistic(m2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.DispatchAndReconcile(context.Background(), m1)
	}()

	secondDone := make(chan struct{})
	go func() {
		defer wg.Done()
		s.DispatchAndReconcile(context.Background(), m2)
		close(secondDone)
	}()

	<-secondDone
	close(firstGate)
	wg.Wait()

	msgs := s.Messages()
	require.Len(t, msgs, 4)

	// User messages in send order.
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "world", msgs[1].Content)

	// Replies at the tail in completion order: second finished first.
	assert.Equal(t, "re: world", msgs[2].Content)
	assert.Equal(t, "re: hello", msgs[3].Content)
}

func TestPendingSends_TracksInFlight(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	backend := &fakeBackend{
		chatFn: func(string) (model.Record, error) {
			started <- struct{}{}
			<-gate
			return model.Record{Answer: "ok"}, nil
		},
	}
	s := New(backend, "c1")

	msg := model.NewOptimisticUserMessage("hi", nil)
	s.AppendOptimistic(msg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.DispatchAndReconcile(context.Background(), msg)
	}()

	<-started
	assert.Equal(t, 1, s.PendingSends())
	close(gate)
	<-done
	assert.Equal(t, 0, s.PendingSends())
}

// =============================================================================
// RELOAD
// =============================================================================

func TestReload_ReplacesWholesale(t *testing.T) {
	backend := &fakeBackend{
		transcript: []model.Record{
			{Content: "plan my trip", Sender: "user"},
			{Answer: "sure, where to?", Sender: "bot"},
		},
		title: "Trip planning",
	}
	s := New(backend, "c1")
	s.AppendOptimistic(model.NewOptimisticUserMessage("stale local", nil))

	require.NoError(t, s.ReloadFromBackend(context.Background()))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "plan my trip", msgs[0].Content)
	assert.Equal(t, model.DeliveryConfirmed, msgs[0].Delivery)
	assert.Equal(t, "Trip planning", s.Title())
}

func TestReload_Idempotent(t *testing.T) {
	backend := &fakeBackend{
		transcript: []model.Record{
			{Content: "a", Sender: "user"},
			{Content: "b", Sender: "bot", ImageURL: "https://x/1.jpg"},
		},
		title: "t",
	}
	s := New(backend, "c1")

	require.NoError(t, s.ReloadFromBackend(context.Background()))
	first := s.Messages()
	require.NoError(t, s.ReloadFromBackend(context.Background()))
	second := s.Messages()

	// Identical both times: no duplication, no drift, stable ids.
	require.Equal(t, len(first), len(second))
	for i := range first {
		// CreatedAt is assigned at classification time; everything else
		// must match exactly.
		first[i].CreatedAt = second[i].CreatedAt
	}
	assert.True(t, reflect.DeepEqual(first, second), "reload must be idempotent")
}

func TestReload_EmptyBootstrap(t *testing.T) {
	// FullTranscript maps a backend 404 to an empty slice with nil error;
	// the session must treat that as a valid new conversation.
	backend := &fakeBackend{transcript: []model.Record{}, title: ""}
	s := New(backend, "new-id")

	require.NoError(t, s.ReloadFromBackend(context.Background()))
	assert.Empty(t, s.Messages())
	assert.Equal(t, model.DefaultTitle, s.Title())
}

func TestReload_TranscriptFailureFallsBackEmpty(t *testing.T) {
	backend := &fakeBackend{transcriptErr: errors.New("network down")}
	s := New(backend, "c1")
	s.AppendOptimistic(model.NewOptimisticUserMessage("x", nil))

	err := s.ReloadFromBackend(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Messages(), "failed reload falls back to an empty transcript, not a stale one")
	assert.Equal(t, model.DefaultTitle, s.Title())
}

func TestReload_ReleasesLocalAttachments(t *testing.T) {
	released := 0
	backend := &fakeBackend{transcript: []model.Record{}}
	s := New(backend, "c1")

	att := model.NewAttachment("/tmp/preview", func() { released++ })
	s.AppendOptimistic(model.NewOptimisticUserMessage("pic", att))

	require.NoError(t, s.ReloadFromBackend(context.Background()))
	assert.Equal(t, 1, released, "reload supersedes the optimistic message; its handle must be released")
}

// =============================================================================
// DISCARD
// =============================================================================

func TestDiscard_ReleasesAttachmentsExactlyOnce(t *testing.T) {
	released := 0
	s := New(&fakeBackend{}, "c1")
	s.AppendOptimistic(model.NewOptimisticUserMessage("pic", model.NewAttachment("/tmp/p", func() { released++ })))

	s.Discard()
	s.Discard()

	assert.Equal(t, 1, released)
	assert.Empty(t, s.Messages())
}

func TestDiscard_DropsLateReply(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		chatFn: func(string) (model.Record, error) {
			<-gate
			return model.Record{Answer: "late"}, nil
		},
	}
	s := New(backend, "c1")

	msg := model.NewOptimisticUserMessage("hi", nil)
	s.AppendOptimistic(msg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.DispatchAndReconcile(context.Background(), msg)
	}()

	s.Discard()
	close(gate)
	<-done

	assert.Empty(t, s.Messages(), "a reply completing after Discard must not resurrect the transcript")
}
