// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// StateChangedMsg asks the screen to re-read the controller's state.
type StateChangedMsg struct{}

// LogoutMsg is emitted when the user asks to log out. The root model owns
// the session and handles it.
type LogoutMsg struct{}

// submitDoneMsg reports the end of a Submit call.
type submitDoneMsg struct {
	text string
	err  error
}

// uploadDoneMsg reports the end of an Upload call.
type uploadDoneMsg struct {
	name string
	err  error
}

// resetDoneMsg reports the end of a Reset call.
type resetDoneMsg struct{ err error }
