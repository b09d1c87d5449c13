// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sseHandler(t *testing.T, frames ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zap.DebugLevel)
	return NewClient(Config{BaseURL: srv.URL + "/", SessionID: "default", Logger: zap.New(core)}), logs
}

func collect(t *testing.T, c *Client, msg string) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := c.ChatStream(context.Background(), msg, func(chunk string) { sb.WriteString(chunk) })
	return sb.String(), err
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultSessionID, c.SessionID())
	assert.Equal(t, DefaultRequestTimeout, c.timeout)
}

func TestChatStream_SendsRequestAndAccumulates(t *testing.T) {
	var got chatRequest
	var accept string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		accept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		sseHandler(t, `{"chunk": "Hel"}`, `{"chunk": "lo"}`, `{"done": true}`)(w, r)
	}))

	text, err := collect(t, c, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, chatRequest{Message: "hi there", SessionID: "default"}, got)
	assert.Equal(t, "text/event-stream", accept)
}

func TestChatStream_SkipsMalformedFrames(t *testing.T) {
	c, logs := newTestClient(t, sseHandler(t, `{"chunk": "Hel"}`, `{broken`, `{"chunk": "lo"}`, `{"done": true}`))

	text, err := collect(t, c, "x")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, 1, logs.FilterMessage("STREAM_FRAME_MALFORMED").Len())
}

func TestChatStream_LinesWithoutBlankSeparators(t *testing.T) {
	c, logs := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"chunk\": \"Hel\"}\ndata: {broken\ndata: {\"chunk\": \"lo\"}\ndata: {\"done\": true}\n")
	}))

	text, err := collect(t, c, "x")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, 1, logs.FilterMessage("STREAM_FRAME_MALFORMED").Len())
}

func TestChatStream_StopsAtDone(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(t, `{"chunk": "a"}`, `{"done": true}`, `{"chunk": "ignored"}`))

	text, err := collect(t, c, "x")
	require.NoError(t, err)
	assert.Equal(t, "a", text)
}

func TestChatStream_ErrorFrameAborts(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(t, `{"chunk": "par"}`, `{"error": "model overloaded"}`, `{"chunk": "never"}`))

	text, err := collect(t, c, "x")
	require.Error(t, err)
	assert.True(t, IsStreamError(err))
	assert.Equal(t, "par", text, "chunks before the error are delivered")

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "model overloaded", ce.Message)
}

func TestChatStream_EOFWithoutDoneSucceeds(t *testing.T) {
	c, logs := newTestClient(t, sseHandler(t, `{"chunk": "partial"}`))

	text, err := collect(t, c, "x")
	require.NoError(t, err)
	assert.Equal(t, "partial", text)
	assert.Equal(t, 1, logs.FilterMessage("STREAM_ENDED_WITHOUT_DONE").Len())
}

func TestChatStream_NonOKStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail": "GROQ_API_KEY not set"}`)
	}))

	_, err := collect(t, c, "x")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeStatus, ce.Type)
	assert.Equal(t, "GROQ_API_KEY not set", ce.Message)
}

func TestChatStream_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url})
	_, err := collect(t, c, "x")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err), "got %v", err)
}

func TestUploadPDF_SendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload-pdf", r.URL.Path)
		assert.Equal(t, "default", r.URL.Query().Get("session_id"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "default", r.FormValue("session_id"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4 test", string(data))

		json.NewEncoder(w).Encode(UploadResult{
			Message:    "PDF uploaded and processed successfully",
			Filename:   hdr.Filename,
			TextLength: 42,
			SessionID:  "default",
		})
	}))

	res, err := c.UploadPDF(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", res.Filename)
	assert.Equal(t, 42, res.TextLength)
}

func TestUploadPDF_Rejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "Only PDF files are allowed"}`)
	}))

	_, err := c.UploadPDF(context.Background(), "report.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Contains(t, err.Error(), "Only PDF files are allowed")
}

func TestUploadPDF_InvalidJSONIsFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>proxy page</html>")
	}))

	_, err := c.UploadPDF(context.Background(), "report.pdf", strings.NewReader("x"))
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
}

func TestReset_SendsSessionID(t *testing.T) {
	var got resetRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reset", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"message": "Chat history cleared", "session_id": "default"}`)
	}))

	res, err := c.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", got.SessionID)
	assert.Equal(t, "Chat history cleared", res.Message)
}

func TestHealthAndHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "ok", "message": "GenAI Chatbot API is running"}`)
	})
	mux.HandleFunc("/api/history/default", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"session_id": "default", "history": [{"role": "user", "content": "hi"}], "has_pdf": true}`)
	})
	c, _ := newTestClient(t, mux)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	hist, err := c.History(context.Background())
	require.NoError(t, err)
	assert.True(t, hist.HasPDF)
	assert.Equal(t, []HistoryEntry{{Role: "user", Content: "hi"}}, hist.History)
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestClientError_Message(t *testing.T) {
	err := &ClientError{Type: ErrTypeStatus, Op: "upload", Status: 400, Message: "Only PDF files are allowed"}
	assert.Equal(t, "upload: status (HTTP 400): Only PDF files are allowed", err.Error())
}
