// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements local sign-up, login and session handling.
//
// Accounts live in the durable storage scope under chatbot_users. A login
// writes a Session under chatbot_session, to the durable scope when the user
// asks to be remembered and to the tab scope otherwise.
//
// This is prototype authentication: credentials never leave the machine and
// passwords are stored as typed. It gates the chat screen; it does not
// protect anything on the backend.
//
// # Errors
//
// Rejections come back as FieldErrors keyed by form field, carrying the
// message the form shows next to that field:
//
//	sess, err := mgr.Login(auth.Form{Email: e, Password: p}, true)
//	var fe auth.FieldErrors
//	if errors.As(err, &fe) {
//	    show(fe[auth.FieldEmail])
//	}
package auth
