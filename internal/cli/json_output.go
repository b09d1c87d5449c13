// json_output.go - JSON output support for scripting.
//
// Every command that honours --json prints one JSONResponse envelope on
// stdout. Human-readable progress goes to stderr in that mode.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope for all --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC 3339, UTC)
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// OutputJSON runs handler and, in JSON mode, wraps its result or error in an
// envelope on w. Outside JSON mode it only runs the handler.
func OutputJSON(w io.Writer, jsonMode bool, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	if !jsonMode {
		return err
	}
	if err != nil {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return err
	}
	return NewJSONResponse(command, data).Write(w)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// SessionData describes the logged-in user.
type SessionData struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	LoginTime  time.Time `json:"login_time"`
	RememberMe bool      `json:"remember_me"`

	// MemberSince is set by whoami from the registry entry.
	MemberSince *time.Time `json:"member_since,omitempty"`
}

// StatusData is returned by the status command.
type StatusData struct {
	Version    string       `json:"version"`
	Session    *SessionData `json:"session"`
	BackendURL string       `json:"backend_url"`
	SessionID  string       `json:"session_id"`
	Reachable  bool         `json:"backend_reachable"`
	Health     string       `json:"backend_health,omitempty"`
	Storage    string       `json:"storage_backend"`
	DataDir    string       `json:"data_dir"`
	ConfigFile string       `json:"config_file"`
}

// AskData is returned by the ask command.
type AskData struct {
	Question string `json:"question"`
	Reply    string `json:"reply"`
	PDF      string `json:"pdf,omitempty"`
	Duration string `json:"duration"`
}

// UploadData is returned by the upload command.
type UploadData struct {
	Filename   string `json:"filename"`
	TextLength int    `json:"text_length"`
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
}

// HistoryData is returned by the history command.
type HistoryData struct {
	SessionID string        `json:"session_id"`
	HasPDF    bool          `json:"has_pdf"`
	Turns     []HistoryTurn `json:"turns"`
}

// HistoryTurn is one message of HistoryData.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
