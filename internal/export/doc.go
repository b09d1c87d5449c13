// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to Markdown or JSON files.
//
// A Transcript comes either from the local conversation (FromMessages) or
// from the backend's record of a session (FromHistory). The file extension
// picks the format:
//
//	t := export.FromMessages(ctl.Snapshot().Messages)
//	t.User = "Ada <ada@example.com>"
//	err := export.WriteFile(t, "chat.md", nil)
package export
