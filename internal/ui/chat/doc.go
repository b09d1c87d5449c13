// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea chat screen.
//
// The screen renders a chat.Controller snapshot and turns key presses into
// controller actions run as tea.Cmds. It never mutates conversation state
// itself. Controller changes made on other goroutines reach the screen as
// StateChangedMsg, throttled by a Repainter.
//
// # Keys
//
//	enter              send
//	alt+enter, ctrl+j  new line
//	ctrl+u             upload a PDF (asks for a path)
//	ctrl+r             reset the chat (asks y/n)
//	ctrl+l             log out
//	pgup, pgdn         scroll
//	esc                dismiss alert or prompt
//
// Input, upload and reset are ignored while a request is in flight.
package chat
