// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model. It gates the chat screen behind
// the login screen, handles logout, and follows session changes made by
// other processes through the durable storage watcher.
package app
