// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat transcript data structures.
//
// # Key Types
//
//   - Message: one transcript entry with role, content and streaming state
//   - Conversation: ordered transcript that keeps at most one streaming
//     message, always the last one
//
// # Streaming
//
//	conv.AddUserMessage("hi")
//	conv.AddAssistantPlaceholder()
//	conv.AppendToLast("Hel")
//	conv.AppendToLast("lo")
//	conv.FinishLast() // last message now has Content "Hello"
package model
