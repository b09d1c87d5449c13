// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Mode selects which form is being submitted.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

func (m Mode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeSignup {
		return ModeLogin
	}
	return ModeSignup
}

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// Field names used as FieldErrors keys.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// User-facing messages.
const (
	MsgNameRequired       = "Name is required"
	MsgEmailRequired      = "Email is required"
	MsgEmailInvalid       = "Email is invalid"
	MsgPasswordRequired   = "Password is required"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgConfirmRequired    = "Please confirm your password"
	MsgPasswordsMismatch  = "Passwords do not match"
	MsgEmailRegistered    = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Form holds the raw login/signup input.
type Form struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Normalized returns a copy with name and email trimmed and NFC-normalized so
// that visually identical addresses typed on different keyboards match.
// Passwords are compared byte-for-byte and left untouched.
func (f Form) Normalized() Form {
	f.Name = norm.NFC.String(strings.TrimSpace(f.Name))
	f.Email = norm.NFC.String(strings.TrimSpace(f.Email))
	return f
}

// FieldErrors maps a form field to its message. It is returned as an error
// by Manager when the form or the credentials are rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Validate checks the form for mode and returns nil when it is acceptable.
func (f Form) Validate(mode Mode) FieldErrors {
	errs := FieldErrors{}

	if mode == ModeSignup && strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = MsgNameRequired
	}

	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		errs[FieldEmail] = MsgEmailRequired
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = MsgEmailInvalid
	}

	switch {
	case f.Password == "":
		errs[FieldPassword] = MsgPasswordRequired
	case utf8.RuneCountInString(f.Password) < MinPasswordLength:
		errs[FieldPassword] = MsgPasswordTooShort
	}

	if mode == ModeSignup {
		switch {
		case f.ConfirmPassword == "":
			errs[FieldConfirmPassword] = MsgConfirmRequired
		case f.Password != f.ConfirmPassword:
			errs[FieldConfirmPassword] = MsgPasswordsMismatch
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
