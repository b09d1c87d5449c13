// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

func sampleTranscript() *Transcript {
	at := time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC)
	return &Transcript{
		Title:    "Chat",
		User:     "Ada Lovelace <ada@example.com>",
		PDF:      "guide.pdf",
		Exported: at,
		Entries: []Entry{
			{Role: "user", Content: "What is it about?", Timestamp: at},
			{Role: "assistant", Content: "It covers the **engine**.", Timestamp: at},
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"---\ntitle: Chat\n",
		"pdf: guide.pdf\n",
		"messages: 2\n",
		"### [User] <sub>14:30:05</sub>",
		"What is it about?",
		"### [Assistant]",
		"It covers the **engine**.",
		"- **PDF**: guide.pdf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownExport_WithoutMetadata(t *testing.T) {
	opts := &Options{IncludeMetadata: false, IncludeTimestamps: false}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	if strings.HasPrefix(md, "---") {
		t.Error("frontmatter written without metadata")
	}
	if strings.Contains(md, "<sub>") {
		t.Error("timestamps written when disabled")
	}
}

// A user value with a newline must not start a new frontmatter key.
func TestMarkdownExport_YAMLNewlineInjection(t *testing.T) {
	tr := sampleTranscript()
	tr.User = "Ada\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(out), "\n")
	for i, line := range lines {
		if i > 0 && i < 10 && strings.HasPrefix(line, "Injection:") {
			t.Error("newline in user value was not escaped in frontmatter")
		}
	}
	if !strings.Contains(string(out), `user: "Ada\nInjection: malicious"`) {
		t.Errorf("expected quoted user value:\n%s", out)
	}
}

func TestMarkdownExport_HistoryHasNoTimestamps(t *testing.T) {
	tr := FromHistory(&backend.History{
		SessionID: "default",
		History: []backend.HistoryEntry{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "You said: hi"},
		},
	})

	out, err := NewMarkdownExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<sub>") {
		t.Error("zero timestamps should not be rendered")
	}
	if !strings.Contains(string(out), "session: default") {
		t.Errorf("session id missing:\n%s", out)
	}
}

func TestExport_EmptyTranscript(t *testing.T) {
	for _, e := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		if _, err := e.Export(&Transcript{}); !errors.Is(err, ErrEmpty) {
			t.Errorf("%T: err = %v, want ErrEmpty", e, err)
		}
	}
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		PDF      string `json:"pdf"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.PDF != "guide.pdf" || len(decoded.Messages) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Messages[1].Role != "assistant" {
		t.Errorf("role = %q", decoded.Messages[1].Role)
	}
}

func TestFromMessages(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("hello")
	conv.AddAssistantPlaceholder()
	conv.AppendToLast("partial")

	tr := FromMessages(conv.Snapshot())
	if len(tr.Entries) != 2 {
		t.Fatalf("entries = %d", len(tr.Entries))
	}
	if tr.Entries[0].Role != "user" || tr.Entries[0].Content != "hello" {
		t.Errorf("entry 0 = %+v", tr.Entries[0])
	}
	if tr.Entries[1].Content != "partial" {
		t.Errorf("streaming content = %q", tr.Entries[1].Content)
	}
	if tr.Entries[0].Timestamp.IsZero() {
		t.Error("local messages should carry timestamps")
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		ext  string
	}{
		{"chat.md", ".md"},
		{"CHAT.MARKDOWN", ".md"},
		{"out/chat.json", ".json"},
	}
	for _, tt := range tests {
		e, err := ForPath(tt.path, nil)
		if err != nil {
			t.Fatalf("ForPath(%q): %v", tt.path, err)
		}
		if e.FileExtension() != tt.ext {
			t.Errorf("ForPath(%q) ext = %q", tt.path, e.FileExtension())
		}
	}

	if _, err := ForPath("chat.html", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("html err = %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "chat.md")

	if err := WriteFile(sampleTranscript(), path, nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "What is it about?") {
		t.Error("content missing from written file")
	}

	if err := WriteFile(&Transcript{}, path+".json", nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty transcript err = %v", err)
	}
}
