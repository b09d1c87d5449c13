// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides colors and lipgloss styles for the chatbot UI.
//
// Colors are lipgloss.AdaptiveColor pairs. NewTheme resolves the terminal
// background (or takes a forced "dark"/"light") and builds one Theme that
// both screens share. GlamourStyle picks the matching Markdown style.
package styles
