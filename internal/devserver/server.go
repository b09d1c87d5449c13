// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultAddr is where `chatbot devserver` listens unless told otherwise.
const DefaultAddr = "127.0.0.1:8000"

const (
	defaultSessionID = "default"
	maxUploadSize    = 32 << 20
	contextPreview   = 3000
)

// ReplyFunc produces the full assistant reply for a message. A non-nil error
// is sent to the client as an error frame.
type ReplyFunc func(message string, doc *Document) (string, error)

// Options configures a Server. The zero value is usable.
type Options struct {
	Logger *zap.Logger

	// Reply generates answers. Defaults to EchoReply.
	Reply ReplyFunc

	// ChunkDelay is slept between streamed chunks.
	ChunkDelay time.Duration
}

// Document is the upload attached to a session.
type Document struct {
	Filename string
	Size     int
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type session struct {
	history []turn
	doc     *Document
}

// Server is an in-memory stand-in for the chat backend.
type Server struct {
	logger *zap.Logger
	reply  ReplyFunc
	delay  time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		logger:   opts.Logger,
		reply:    opts.Reply,
		delay:    opts.ChunkDelay,
		sessions: make(map[string]*session),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.reply == nil {
		s.reply = EchoReply
	}
	return s
}

// EchoReply answers by repeating the message, mentioning the document when
// one is attached.
func EchoReply(message string, doc *Document) (string, error) {
	if doc != nil {
		return fmt.Sprintf("Based on %s: you asked %q.", doc.Filename, message), nil
	}
	return "You said: " + message, nil
}

// Handler returns the HTTP routes.
//
//	GET  /                        health
//	POST /api/upload-pdf          multipart "file", ?session_id=
//	POST /api/chat                {"message","session_id"} -> SSE
//	GET  /api/history/{session}   server-side history
//	POST /api/reset               {"session_id"}
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogging(s.logger))

	r.Get("/", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-pdf", s.handleUpload)
		r.Post("/chat", s.handleChat)
		r.Get("/history/{sessionID}", s.handleHistory)
		r.Post("/reset", s.handleReset)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("DEVSERVER_LISTENING", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// getOrCreate must be called with s.mu held.
func (s *Server) getOrCreate(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Chatbot dev server is running",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".pdf") {
		writeDetail(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Error uploading PDF: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeDetail(w, http.StatusBadRequest, "No text found in PDF")
		return
	}

	id := sessionParam(r)
	s.mu.Lock()
	s.getOrCreate(id).doc = &Document{Filename: header.Filename, Size: len(data)}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "PDF uploaded successfully",
		"filename":    header.Filename,
		"text_length": min(len(data), contextPreview),
		"session_id":  id,
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	s.mu.Lock()
	sess := s.getOrCreate(req.SessionID)
	sess.history = append(sess.history, turn{Role: "user", Content: req.Message})
	var doc *Document
	if sess.doc != nil {
		d := *sess.doc
		doc = &d
	}
	s.mu.Unlock()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(v any) bool {
		b, _ := json.Marshal(v)
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	reply, err := s.reply(req.Message, doc)
	if err != nil {
		s.logger.Warn("DEVSERVER_REPLY_FAILED", zap.Error(err))
		send(map[string]string{"error": "Error generating response: " + err.Error()})
		return
	}

	for _, chunk := range SplitChunks(reply) {
		if r.Context().Err() != nil {
			return
		}
		if !send(map[string]string{"chunk": chunk}) {
			return
		}
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-r.Context().Done():
				return
			}
		}
	}

	s.mu.Lock()
	sess = s.getOrCreate(req.SessionID)
	sess.history = append(sess.history, turn{Role: "assistant", Content: reply})
	s.mu.Unlock()

	send(map[string]bool{"done": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	sess := s.getOrCreate(id)
	history := append([]turn{}, sess.history...)
	hasPDF := sess.doc != nil
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"history":    history,
		"has_pdf":    hasPDF,
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	s.mu.Lock()
	delete(s.sessions, req.SessionID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Chat session reset successfully",
		"session_id": req.SessionID,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// SplitChunks breaks a reply into word-sized pieces, each keeping its
// trailing whitespace so the pieces concatenate back to the input.
func SplitChunks(s string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !isSpace {
			out = append(out, s[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func sessionParam(r *http.Request) string {
	if id := r.URL.Query().Get("session_id"); id != "" {
		return id
	}
	if id := r.FormValue("session_id"); id != "" {
		return id
	}
	return defaultSessionID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
