// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the chatbot backend.
//
// # Endpoints
//
//   - POST /api/chat: streamed reply as text/event-stream
//   - POST /api/upload-pdf: multipart PDF upload
//   - POST /api/reset: clear conversation and document
//   - GET /api/history/{session_id}: server-side history
//   - GET /: health
//
// # Streaming
//
// Each event carries one JSON frame: {"chunk": "..."}, {"done": true} or
// {"error": "..."}. FrameDecoder reassembles events split across network
// reads; ChatStream hands chunks to a callback and stops at done or error.
//
//	err := client.ChatStream(ctx, "hello", func(chunk string) {
//	    fmt.Print(chunk)
//	})
//	if backend.IsStreamError(err) { ... }
//
// # Errors
//
// Failures are *ClientError values classified by ErrorType; use IsUnavailable,
// IsTimeout, IsStreamError and StatusCode to branch on them.
package backend
