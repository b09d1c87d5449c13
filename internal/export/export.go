// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/util"
)

var (
	// ErrEmpty is returned when there is nothing to export.
	ErrEmpty = errors.New("conversation has no messages")

	// ErrUnsupportedFormat is returned for an unknown file extension.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a conversation ready for export.
type Transcript struct {
	Title     string    `json:"title"`
	User      string    `json:"user,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	PDF       string    `json:"pdf,omitempty"`
	Exported  time.Time `json:"exported"`
	Entries   []Entry   `json:"messages"`
}

// Entry is one message. Timestamp is zero for turns read back from the
// backend, which does not record times.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// FromMessages builds a transcript from the local conversation. Messages
// still streaming are exported with what has arrived so far.
func FromMessages(msgs []model.Message) *Transcript {
	t := &Transcript{Title: "Chat", Exported: time.Now()}
	for _, m := range msgs {
		t.Entries = append(t.Entries, Entry{
			Role:      m.Role.String(),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return t
}

// FromHistory builds a transcript from the backend's record of a session.
func FromHistory(h *backend.History) *Transcript {
	t := &Transcript{Title: "Chat", SessionID: h.SessionID, Exported: time.Now()}
	for _, e := range h.History {
		t.Entries = append(t.Entries, Entry{Role: e.Role, Content: e.Content})
	}
	return t
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, with the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the frontmatter and session section.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message times where known.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForPath picks an exporter from the extension of path.
func ForPath(path string, opts *Options) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), nil
	case ".json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w %q: use .md or .json", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// WriteFile exports t to path in the format its extension names. The file is
// written atomically with owner-only permissions.
func WriteFile(t *Transcript, path string, opts *Options) error {
	exporter, err := ForPath(path, opts)
	if err != nil {
		return err
	}
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, content, 0600, 0755); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
