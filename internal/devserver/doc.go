// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is a local stand-in for the chat backend. It speaks the
// same HTTP and event-stream protocol, keeps per-session state in memory and
// answers with a canned reply instead of a model. PDFs are stored by name and
// size only.
package devserver
