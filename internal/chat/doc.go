// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the chat screen's state and the actions that change it.
//
// Controller is the single owner of the transcript, the loading flag and the
// active-upload state. Front-ends (the full-screen UI, the line REPL, the
// one-shot commands) call its actions and render Snapshot; none of them
// mutate state directly.
//
// # Actions
//
//   - Submit: append the user message and a streaming assistant message,
//     then stream the reply into it
//   - Reset: confirm, reset the backend session, clear local state
//   - Upload: reject non-PDF names, send the file, record it as active
//   - Clear: drop everything (logout)
package chat
