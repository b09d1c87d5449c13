// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login is the Bubble Tea login and signup screen.
//
// The form shows email and password plus a remember-me checkbox when logging
// in, and name, email, password and confirmation when signing up. Switching
// modes clears the form. Validation and credential errors from the auth
// package are shown under the field they belong to; a successful submit
// emits LoggedInMsg.
package login
