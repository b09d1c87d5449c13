// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the client-side key/value scopes that hold
// accounts and sessions.
//
// # Scopes
//
// Two scopes mirror the browser model the client was designed around:
//
//   - Durable scope: survives restarts and is shared by every chatbot
//     process of the user. SQLiteStore (default) or FileStore.
//   - Tab scope: MemoryStore, gone when the process exits.
//
// # Keys
//
//   - chatbot_session: the active session record
//   - chatbot_users: the registered-user array
//
// # Watching
//
// Watcher turns filesystem events on a durable scope into a debounced change
// signal, so a logout in one terminal can be noticed by another.
package storage
