// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

// Errors
var (
	// ErrEmptyMessage is returned for blank input; nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned while another request is in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrNotPDF is returned for files whose name does not end in ".pdf".
	ErrNotPDF = errors.New("not a PDF file")

	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrCleared is returned by a request whose result was dropped because
	// Clear ran while it was in flight.
	ErrCleared = errors.New("chat was cleared")
)

// User-facing text.
const (
	MsgChatFailed   = "❌ Error: Failed to get response. Please try again."
	AlertNotPDF     = "Please upload a PDF file"
	AlertUploadFail = "Failed to upload PDF. Please try again."
	AlertResetFail  = "Failed to reset chat. Please try again."
	ResetPrompt     = "Are you sure you want to reset the chat? This will clear all messages and PDF context."
)

// UploadNotice is the system message appended after a successful upload.
func UploadNotice(name string) string {
	return fmt.Sprintf("📄 PDF %q uploaded successfully! You can now ask questions about it.", name)
}

// Backend is the subset of the backend client the controller needs.
type Backend interface {
	ChatStream(ctx context.Context, message string, onChunk backend.ChunkHandler) error
	UploadPDF(ctx context.Context, filename string, r io.Reader) (*backend.UploadResult, error)
	Reset(ctx context.Context) (*backend.ResetResult, error)
}

// UploadState records the document the backend currently answers from.
type UploadState struct {
	Active   bool
	FileName string
}

// ViewState is a point-in-time copy of everything the chat screen renders.
type ViewState struct {
	Messages []model.Message
	Loading  bool
	Upload   UploadState
}

// Controller owns the chat screen's state. Only its action methods mutate
// that state, under one mutex, and every mutation is followed by a call to
// the change hook outside the lock.
type Controller struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	conv     *model.Conversation
	loading  bool
	upload   UploadState
	onChange func()

	// epoch changes on Clear; results of requests started before it are dropped.
	epoch uint64
}

// NewController creates a controller with an empty transcript.
func NewController(b Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend: b,
		logger:  logger,
		conv:    model.NewConversation(),
	}
}

// SetOnChange installs the hook called after every state change. It runs on
// whichever goroutine made the change and must not block.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Snapshot returns a copy of the current view state.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ViewState{
		Messages: c.conv.Snapshot(),
		Loading:  c.loading,
		Upload:   c.upload,
	}
}

// Loading reports whether a request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// CanReset reports whether the reset action should be offered: nothing in
// flight and something to clear.
func (c *Controller) CanReset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loading && !c.conv.IsEmpty()
}

// begin marks a request in flight, failing with ErrBusy if one already is.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	c.loading = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.notify()
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends input to the backend and streams the reply into the
// transcript. It blocks until the stream ends.
//
// Blank input returns ErrEmptyMessage and a call while busy returns ErrBusy;
// neither touches the transcript. On a stream or transport failure the
// assistant message keeps whatever text arrived, a system error message is
// appended, and the error is returned.
func (c *Controller) Submit(ctx context.Context, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyMessage
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	epoch := c.epoch
	preview := c.conv.AddUserMessage(text).Preview(40)
	c.conv.AddAssistantPlaceholder()
	c.mu.Unlock()
	c.notify()
	c.logger.Debug("CHAT_SUBMIT", zap.String("preview", preview))

	err := c.backend.ChatStream(ctx, text, func(chunk string) {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.conv.AppendToLast(chunk)
		c.mu.Unlock()
		c.notify()
	})

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("CHAT_DISCARDED", zap.Error(err))
		return ErrCleared
	}
	if err != nil {
		c.conv.AddSystemMessage(MsgChatFailed)
	} else {
		c.conv.FinishLast()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("CHAT_FAILED", zap.Error(err), zap.Bool("stream_error", backend.IsStreamError(err)))
		return err
	}
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset asks confirm first; a refusal returns ErrCancelled and changes
// nothing. After confirmation the backend session is reset and the local
// transcript and upload state are cleared whether or not the remote call
// succeeded. The remote error, if any, is returned for the caller to show.
func (c *Controller) Reset(ctx context.Context, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return ErrCancelled
	}
	if err := c.begin(); err != nil {
		return err
	}

	_, err := c.backend.Reset(ctx)

	c.mu.Lock()
	c.conv.Clear()
	c.upload = UploadState{}
	c.mu.Unlock()
	c.end()

	if err != nil {
		c.logger.Error("RESET_FAILED", zap.Error(err))
		return fmt.Errorf("reset: %w", err)
	}
	c.logger.Info("RESET")
	return nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload sends the PDF at path. Names not ending in ".pdf" are rejected with
// ErrNotPDF before the file is opened.
func (c *Controller) Upload(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if !IsPDFName(name) {
		return ErrNotPDF
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	return c.UploadReader(ctx, name, f)
}

// UploadReader sends r as a PDF named name. On success the upload becomes
// active and a confirmation message is appended; on failure upload state is
// left unchanged.
func (c *Controller) UploadReader(ctx context.Context, name string, r io.Reader) error {
	if !IsPDFName(name) {
		return ErrNotPDF
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	if _, err := c.backend.UploadPDF(ctx, name, r); err != nil {
		c.logger.Error("UPLOAD_FAILED", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("upload %s: %w", name, err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return ErrCleared
	}
	c.upload = UploadState{Active: true, FileName: name}
	c.conv.AddSystemMessage(UploadNotice(name))
	c.mu.Unlock()
	return nil
}

// IsPDFName reports whether name has the ".pdf" extension. The check is
// case-sensitive, matching the backend's own check.
func IsPDFName(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

// =============================================================================
// CLEAR
// =============================================================================

// Clear empties the transcript and upload state. Used on logout. A request
// still in flight keeps running until its context ends, but its result is
// dropped.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.epoch++
	c.conv.Clear()
	c.upload = UploadState{}
	c.mu.Unlock()
	c.notify()
}
