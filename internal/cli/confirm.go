// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive commands.
//
// The pattern is:
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm (no prompts in JSON mode)
//  3. otherwise the question is asked on stdin
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned in JSON mode when --confirm is missing.
var ErrConfirmationRequired = errors.New("confirmation required: pass --confirm")

// ConfirmationOptions configures RequireConfirmation.
type ConfirmationOptions struct {
	// ConfirmFlag indicates if --confirm was passed
	ConfirmFlag bool
	// JSONMode indicates if --json was passed
	JSONMode bool
}

// RequireConfirmation asks question unless opts already settle it. It
// returns false with a nil error when the user declines.
func (e *Env) RequireConfirmation(question string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}
	if opts.JSONMode {
		return false, ErrConfirmationRequired
	}
	return e.PromptYesNo(question), nil
}

// PromptYesNo asks question on In. Anything but y or yes, including end of
// input, is no.
func (e *Env) PromptYesNo(question string) bool {
	answer, err := e.readLine(question + " [y/N]: ")
	if err != nil {
		fmt.Fprintln(e.Err)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// ShowCancellationMessage reports a declined confirmation.
func (e *Env) ShowCancellationMessage() {
	fmt.Fprintln(e.Err, "Cancelled.")
}
