// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "time"

// User is one entry of the registry stored under chatbot_users.
//
// The password is stored as typed. The registry is a local prototype and the
// JSON layout is shared with other clients of the same store, so it must not
// be hashed here.
type User struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionUser is the public part of a user carried in a session.
type SessionUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the record stored under chatbot_session.
type Session struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            SessionUser `json:"user"`
	LoginTime       time.Time   `json:"loginTime"`
	RememberMe      bool        `json:"rememberMe"`
}
