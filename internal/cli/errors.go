// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all CLI commands.
//
// Handlers always return errors and never print them; main decides how to
// display the error and which exit code to use.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing session or rejected credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached or failed
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "upload")
	Action  string // Action being performed (e.g., "send")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string // optional
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON envelope in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var fe auth.FieldErrors
	if errors.As(err, &fe) && len(fe) > 1 {
		for _, line := range strings.Split(fe.Error(), "; ") {
			fmt.Fprintf(w, "  %s\n", DimStyle.Render(line))
		}
	}
	if backend.IsUnavailable(err) {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render("Backend unreachable. Start a local one with 'chatbot devserver'."))
	}
}

func displayErrorJSON(w io.Writer, command string, err error) {
	output := map[string]interface{}{
		"success":    false,
		"command":    command,
		"error":      err.Error(),
		"error_type": errorKind(err),
	}

	var fe auth.FieldErrors
	var ve *ValidationError
	var ce *backend.ClientError
	switch {
	case errors.As(err, &fe):
		output["fields"] = map[string]string(fe)
	case errors.As(err, &ve):
		output["field"] = ve.Field
		output["reason"] = ve.Reason
	case errors.As(err, &ce):
		output["backend_error"] = ce.Type.String()
		if ce.Status != 0 {
			output["status"] = ce.Status
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

func errorKind(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "backend_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	default:
		return "generic_error"
	}
}

// GetExitCode maps an error to an exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		unknownCmd    *UnknownCommandError
		fieldErrs     auth.FieldErrors
		configErrs    config.ValidateErrors
		notLoggedIn   *NotLoggedInError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &unknownCmd),
		errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrNotPDF),
		errors.Is(err, ErrConfirmationRequired):
		return ExitUsageError
	case errors.As(err, &notFoundErr):
		return ExitNotFoundError
	case errors.As(err, &configErrs):
		return ExitConfigError
	case errors.As(err, &notLoggedIn), errors.As(err, &fieldErrs), errors.Is(err, auth.ErrNoSession):
		return ExitAuthError
	case backend.IsTimeout(err):
		return ExitTimeoutError
	}

	var clientErr *backend.ClientError
	if errors.As(err, &clientErr) {
		return ExitNetworkError
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "config"):
		return ExitConfigError
	case strings.Contains(errMsg, "deadline exceeded"), strings.Contains(errMsg, "timed out"):
		return ExitTimeoutError
	}
	return ExitGeneralError
}
