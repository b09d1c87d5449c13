// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultSessionID is the backend conversation id.
	DefaultSessionID = "default"

	// DefaultRequestTimeout bounds every call except the chat stream.
	DefaultRequestTimeout = 2 * time.Minute

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 4096
)

// sharedHTTPClient pools connections across clients. It has no Timeout:
// the chat stream may run indefinitely and other calls are bounded through
// their context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL is the backend base URL (default: http://localhost:8000).
	BaseURL string

	// SessionID is sent with chat, upload and reset (default: "default").
	SessionID string

	// RequestTimeout bounds upload, reset, health and history.
	// Zero means DefaultRequestTimeout; negative disables it.
	RequestTimeout time.Duration

	// HTTPClient overrides the shared client.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Client talks to the chatbot backend.
type Client struct {
	baseURL   string
	sessionID string
	timeout   time.Duration
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a client, filling zero-valued options with defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		sessionID: cfg.SessionID,
		timeout:   cfg.RequestTimeout,
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.sessionID == "" {
		c.sessionID = DefaultSessionID
	}
	if c.timeout == 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.http == nil {
		c.http = sharedHTTPClient
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SessionID returns the backend session id.
func (c *Client) SessionID() string { return c.sessionID }

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// UploadResult is the backend's reply to a PDF upload.
type UploadResult struct {
	Message    string `json:"message"`
	Filename   string `json:"filename"`
	TextLength int    `json:"text_length"`
	SessionID  string `json:"session_id"`
}

// ResetResult is the backend's reply to a reset.
type ResetResult struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// HealthStatus is the backend's reply on its root path.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HistoryEntry is one turn of server-side history.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is the server-side view of a session.
type History struct {
	SessionID string         `json:"session_id"`
	History   []HistoryEntry `json:"history"`
	HasPDF    bool           `json:"has_pdf"`
}

// =============================================================================
// CHAT STREAM
// =============================================================================

// ChunkHandler receives each text fragment of a streamed reply in order.
type ChunkHandler func(chunk string)

// ChatStream sends message and feeds the streamed reply to onChunk.
//
// It returns nil when the server sends a done frame or closes the stream,
// and a ClientError of type ErrTypeStream when the server sends an error
// frame. Malformed frames are logged and skipped. The stream has no timeout;
// cancel ctx to abandon it.
func (c *Client) ChatStream(ctx context.Context, message string, onChunk ChunkHandler) error {
	body, err := json.Marshal(chatRequest{Message: message, SessionID: c.sessionID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("chat", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("chat", resp)
	}

	n, err := c.readStream(ctx, resp.Body, onChunk)
	c.logger.Debug("CHAT_STREAM_END",
		zap.Int("chunks", n),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

// readStream consumes frames until done, an error frame, or EOF. It returns
// the number of chunks delivered.
func (c *Client) readStream(ctx context.Context, body io.Reader, onChunk ChunkHandler) (int, error) {
	dec := NewFrameDecoder(body)
	chunks := 0

	for {
		if err := ctx.Err(); err != nil {
			return chunks, transportError("chat", err)
		}

		frame, err := dec.Next()
		if err != nil {
			var malformed *MalformedFrameError
			switch {
			case errors.Is(err, io.EOF):
				c.logger.Warn("STREAM_ENDED_WITHOUT_DONE", zap.Int("chunks", chunks))
				return chunks, nil
			case errors.As(err, &malformed):
				c.logger.Warn("STREAM_FRAME_MALFORMED",
					zap.String("data", truncate(malformed.Data, 200)),
					zap.Error(malformed.Err))
				continue
			case errors.Is(err, ErrFrameTooLarge):
				return chunks, &ClientError{Type: ErrTypeInvalidResponse, Op: "chat", Cause: err}
			default:
				return chunks, transportError("chat", err)
			}
		}

		if frame.Chunk != "" {
			chunks++
			onChunk(frame.Chunk)
		}
		if frame.Error != "" {
			c.logger.Warn("STREAM_ERROR_FRAME", zap.String("error", frame.Error))
			return chunks, &ClientError{Type: ErrTypeStream, Op: "chat", Message: frame.Error}
		}
		if frame.Done {
			return chunks, nil
		}
	}
}

// =============================================================================
// UPLOAD / RESET / HEALTH / HISTORY
// =============================================================================

// UploadPDF sends a PDF as multipart form data with fields "file" and
// "session_id". The session id is also passed as a query parameter.
func (c *Client) UploadPDF(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.WriteField("session_id", c.sessionID); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	endpoint := c.baseURL + "/api/upload-pdf?session_id=" + url.QueryEscape(c.sessionID)

	var result UploadResult
	err = c.doJSON(ctx, "upload", http.MethodPost, endpoint, mw.FormDataContentType(), &buf, &result)
	if err != nil {
		return nil, err
	}
	c.logger.Info("PDF_UPLOADED", zap.String("file", filename), zap.Int("text_length", result.TextLength))
	return &result, nil
}

// Reset clears the backend conversation and any uploaded document.
func (c *Client) Reset(ctx context.Context) (*ResetResult, error) {
	body, err := json.Marshal(resetRequest{SessionID: c.sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var result ResetResult
	if err := c.doJSON(ctx, "reset", http.MethodPost, c.baseURL+"/api/reset", "application/json", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health queries the backend root path.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var result HealthStatus
	if err := c.doJSON(ctx, "health", http.MethodGet, c.baseURL+"/", "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches the server-side history of the session.
func (c *Client) History(ctx context.Context) (*History, error) {
	var result History
	endpoint := c.baseURL + "/api/history/" + url.PathEscape(c.sessionID)
	if err := c.doJSON(ctx, "history", http.MethodGet, endpoint, "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON performs a bounded request and decodes a JSON reply into out.
func (c *Client) doJSON(ctx context.Context, op, method, endpoint, contentType string, body io.Reader, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("REQUEST_FAILED", zap.String("op", op), zap.Error(err))
		return transportError(op, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(op, resp)
		c.logger.Warn("REQUEST_REJECTED", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(err))
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return transportError(op, ctxErr)
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Op: op, Cause: err}
	}
	return nil
}

// statusError builds a ClientError from a non-2xx response. FastAPI-style
// {"detail": "..."} bodies provide the message; otherwise the raw text does.
func statusError(op string, resp *http.Response) *ClientError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil {
			msg = detail
		} else {
			msg = string(body.Detail)
		}
	}
	return &ClientError{Type: ErrTypeStatus, Op: op, Status: resp.StatusCode, Message: truncate(msg, 300)}
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	r.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
