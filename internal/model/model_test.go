// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"testing"
)

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("bot"), "bot"},
	}
	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("%s.DisplayName() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestMessage_StreamLifecycle(t *testing.T) {
	m := NewAssistantPlaceholder()
	if !m.IsStreaming || !m.IsEmpty() {
		t.Fatal("placeholder should be empty and streaming")
	}

	m.AppendToken("Hel")
	m.AppendToken("lo")
	if got := m.DisplayContent(); got != "Hello" {
		t.Errorf("DisplayContent while streaming = %q", got)
	}
	if m.Content != "" {
		t.Error("Content should stay empty until finalized")
	}

	m.FinalizeStream()
	if m.IsStreaming {
		t.Error("IsStreaming should be false after FinalizeStream")
	}
	if m.Content != "Hello" {
		t.Errorf("Content = %q, want Hello", m.Content)
	}

	m.AppendToken(" again")
	if m.Content != "Hello" {
		t.Error("tokens after finalize must be ignored")
	}
}

func TestMessage_IDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserMessage("x").ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestMessage_Preview(t *testing.T) {
	m := NewUserMessage("Summarize the uploaded PDF please")
	if got := m.Preview(12); got != "Summarize..." {
		t.Errorf("Preview = %q", got)
	}
	if got := m.Preview(100); got != m.Content {
		t.Errorf("short content should be unchanged, got %q", got)
	}
}

func TestConversation_AtMostOneStreaming(t *testing.T) {
	c := NewConversation()
	c.AddUserMessage("first")
	first := c.AddAssistantPlaceholder()
	c.AppendToLast("partial")

	c.AddSystemMessage("error")

	if first.IsStreaming {
		t.Error("appending a message must finalize the previous streaming one")
	}
	if first.Content != "partial" {
		t.Errorf("partial content lost: %q", first.Content)
	}

	streaming := 0
	for _, m := range c.Snapshot() {
		if m.IsStreaming {
			streaming++
		}
	}
	if streaming != 0 {
		t.Errorf("expected no streaming messages, got %d", streaming)
	}
}

func TestConversation_AppendToLastRequiresStreaming(t *testing.T) {
	c := NewConversation()
	if c.AppendToLast("x") {
		t.Error("AppendToLast on empty conversation should report false")
	}

	c.AddUserMessage("hi")
	if c.AppendToLast("x") {
		t.Error("AppendToLast on a user message should report false")
	}
	if c.Last().Content != "hi" {
		t.Error("user message must not be modified")
	}
}

func TestConversation_SnapshotIsIndependent(t *testing.T) {
	c := NewConversation()
	c.AddAssistantPlaceholder()
	c.AppendToLast("Hel")

	snap := c.Snapshot()
	c.AppendToLast("lo")

	if snap[0].Content != "Hel" || !snap[0].IsStreaming {
		t.Errorf("snapshot changed after later append: %+v", snap[0])
	}
	if got := snap[0].DisplayContent(); got != "Hel" {
		t.Errorf("snapshot DisplayContent = %q, want Hel", got)
	}
	c.FinishLast()
	if c.Last().Content != "Hello" {
		t.Errorf("Content = %q", c.Last().Content)
	}
}

func TestConversation_Clear(t *testing.T) {
	c := NewConversation()
	c.AddUserMessage("a")
	c.AddAssistantPlaceholder()
	c.Clear()

	if !c.IsEmpty() || c.Len() != 0 || c.Last() != nil {
		t.Error("Clear should leave an empty conversation")
	}
}

func TestConversation_KeepsEveryMessage(t *testing.T) {
	c := NewConversation()
	for i := 0; i < 1500; i++ {
		c.AddUserMessage(fmt.Sprintf("m%d", i))
	}
	if c.Len() != 1500 {
		t.Errorf("Len = %d, want 1500", c.Len())
	}
	if first := c.Snapshot()[0].Content; first != "m0" {
		t.Errorf("first message = %q, want m0", first)
	}
}
