// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

type fakeBackend struct {
	chunks    []string
	chatErr   error
	block     chan struct{}
	started   chan struct{}
	uploadErr error
	resetErr  error

	chatCalls   int32
	uploadCalls int32
	resetCalls  int32
	lastUpload  string
	lastBody    []byte
}

func (f *fakeBackend) ChatStream(ctx context.Context, message string, onChunk backend.ChunkHandler) error {
	atomic.AddInt32(&f.chatCalls, 1)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.chatErr
}

func (f *fakeBackend) UploadPDF(ctx context.Context, filename string, r io.Reader) (*backend.UploadResult, error) {
	atomic.AddInt32(&f.uploadCalls, 1)
	f.lastUpload = filename
	if r != nil {
		f.lastBody, _ = io.ReadAll(r)
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &backend.UploadResult{Message: "ok", Filename: filename}, nil
}

func (f *fakeBackend) Reset(ctx context.Context) (*backend.ResetResult, error) {
	atomic.AddInt32(&f.resetCalls, 1)
	if f.resetErr != nil {
		return nil, f.resetErr
	}
	return &backend.ResetResult{Message: "reset"}, nil
}

func yes() bool { return true }
func no() bool  { return false }

func TestSubmit_StreamsIntoAssistantMessage(t *testing.T) {
	fb := &fakeBackend{chunks: []string{"Hel", "lo"}}
	c := NewController(fb, nil)

	var changes int32
	c.SetOnChange(func() { atomic.AddInt32(&changes, 1) })

	require.NoError(t, c.Submit(context.Background(), "  hi there  "))

	st := c.Snapshot()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, model.RoleUser, st.Messages[0].Role)
	assert.Equal(t, "hi there", st.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, st.Messages[1].Role)
	assert.Equal(t, "Hello", st.Messages[1].Content)
	assert.False(t, st.Messages[1].IsStreaming)
	assert.False(t, st.Loading)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&changes), int32(3))
}

func TestSubmit_EmptyInputSendsNothing(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, nil)

	for _, in := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, c.Submit(context.Background(), in), ErrEmptyMessage)
	}
	assert.Zero(t, atomic.LoadInt32(&fb.chatCalls))
	assert.Empty(t, c.Snapshot().Messages)
}

func TestSubmit_RejectedWhileBusy(t *testing.T) {
	fb := &fakeBackend{
		chunks:  []string{"done"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := NewController(fb, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Submit(context.Background(), "first") }()
	<-fb.started

	assert.True(t, c.Loading())
	assert.False(t, c.CanReset())
	assert.ErrorIs(t, c.Submit(context.Background(), "second"), ErrBusy)
	assert.ErrorIs(t, c.UploadReader(context.Background(), "a.pdf", nil), ErrBusy)

	// Only one assistant message may be streaming at a time.
	streaming := 0
	for _, m := range c.Snapshot().Messages {
		if m.IsStreaming {
			streaming++
		}
	}
	assert.Equal(t, 1, streaming)

	close(fb.block)
	require.NoError(t, <-errc)
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestSubmit_FailureKeepsPartialAndAppendsError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	fb := &fakeBackend{
		chunks:  []string{"partial"},
		chatErr: &backend.ClientError{Type: backend.ErrTypeUnavailable, Op: "chat"},
	}
	c := NewController(fb, zap.New(core))

	err := c.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, backend.IsUnavailable(err))

	st := c.Snapshot()
	require.Len(t, st.Messages, 3)
	assert.Equal(t, "partial", st.Messages[1].Content)
	assert.False(t, st.Messages[1].IsStreaming)
	assert.Equal(t, model.RoleSystem, st.Messages[2].Role)
	assert.Equal(t, MsgChatFailed, st.Messages[2].Content)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, logs.FilterMessage("CHAT_FAILED").Len())
}

func TestUpload_RejectsNonPDFBeforeNetwork(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, nil)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0600))

	assert.ErrorIs(t, c.Upload(context.Background(), path), ErrNotPDF)
	assert.ErrorIs(t, c.Upload(context.Background(), "/no/such/REPORT.PDF"), ErrNotPDF)
	assert.Zero(t, atomic.LoadInt32(&fb.uploadCalls))
	assert.False(t, c.Snapshot().Upload.Active)
}

func TestUpload_SuccessActivatesAndAnnounces(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, nil)

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))

	require.NoError(t, c.Upload(context.Background(), path))
	assert.Equal(t, "report.pdf", fb.lastUpload)
	assert.Equal(t, []byte("%PDF-1.4"), fb.lastBody)

	st := c.Snapshot()
	assert.Equal(t, UploadState{Active: true, FileName: "report.pdf"}, st.Upload)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, model.RoleSystem, st.Messages[0].Role)
	assert.Equal(t, `📄 PDF "report.pdf" uploaded successfully! You can now ask questions about it.`, st.Messages[0].Content)
}

func TestUpload_FailureLeavesStateUnchanged(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, nil)
	path := filepath.Join(t.TempDir(), "first.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0600))
	require.NoError(t, c.Upload(context.Background(), path))
	before := c.Snapshot()

	fb.uploadErr = &backend.ClientError{Type: backend.ErrTypeStatus, Op: "upload", Status: 500}
	err := c.UploadReader(context.Background(), "second.pdf", nil)
	require.Error(t, err)
	assert.Equal(t, 500, backend.StatusCode(err))

	after := c.Snapshot()
	assert.Equal(t, before.Upload, after.Upload)
	assert.Len(t, after.Messages, len(before.Messages))
	assert.False(t, after.Loading)
}

func TestUpload_MissingFile(t *testing.T) {
	fb := &fakeBackend{}
	c := NewController(fb, nil)

	err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Zero(t, atomic.LoadInt32(&fb.uploadCalls))
}

func TestReset_DeclinedChangesNothing(t *testing.T) {
	fb := &fakeBackend{chunks: []string{"hi"}}
	c := NewController(fb, nil)
	require.NoError(t, c.Submit(context.Background(), "hello"))

	assert.ErrorIs(t, c.Reset(context.Background(), no), ErrCancelled)
	assert.Zero(t, atomic.LoadInt32(&fb.resetCalls))
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestReset_ClearsEvenWhenRemoteFails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	fb := &fakeBackend{chunks: []string{"hi"}}
	c := NewController(fb, zap.New(core))

	require.NoError(t, c.UploadReader(context.Background(), "a.pdf", nil))
	require.NoError(t, c.Submit(context.Background(), "hello"))
	assert.True(t, c.CanReset())

	fb.resetErr = &backend.ClientError{Type: backend.ErrTypeUnavailable, Op: "reset"}
	err := c.Reset(context.Background(), yes)
	require.Error(t, err)
	assert.True(t, backend.IsUnavailable(err))

	st := c.Snapshot()
	assert.Empty(t, st.Messages)
	assert.Equal(t, UploadState{}, st.Upload)
	assert.False(t, c.CanReset())
	assert.Equal(t, 1, logs.FilterMessage("RESET_FAILED").Len())
}

func TestReset_Success(t *testing.T) {
	fb := &fakeBackend{chunks: []string{"hi"}}
	c := NewController(fb, nil)
	require.NoError(t, c.Submit(context.Background(), "hello"))

	require.NoError(t, c.Reset(context.Background(), yes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.resetCalls))
	assert.Empty(t, c.Snapshot().Messages)
}

func TestClear(t *testing.T) {
	fb := &fakeBackend{chunks: []string{"hi"}}
	c := NewController(fb, nil)
	require.NoError(t, c.UploadReader(context.Background(), "a.pdf", nil))
	require.NoError(t, c.Submit(context.Background(), "hello"))

	c.Clear()
	st := c.Snapshot()
	assert.Empty(t, st.Messages)
	assert.False(t, st.Upload.Active)
	assert.Zero(t, atomic.LoadInt32(&fb.resetCalls), "logout clears locally only")
}

func TestClear_DropsReplyStillInFlight(t *testing.T) {
	fb := &fakeBackend{
		chunks:  []string{"late"},
		chatErr: errors.New("connection reset"),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := NewController(fb, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Submit(context.Background(), "question") }()
	<-fb.started

	c.Clear()
	close(fb.block)

	assert.ErrorIs(t, <-errc, ErrCleared)
	st := c.Snapshot()
	assert.Empty(t, st.Messages)
	assert.False(t, st.Loading)
}

func TestIsPDFName(t *testing.T) {
	assert.True(t, IsPDFName("a.pdf"))
	assert.False(t, IsPDFName("a.PDF"))
	assert.False(t, IsPDFName("a.pdf.txt"))
	assert.False(t, IsPDFName("pdf"))
}
