// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Conversation is the ordered, append-only transcript shown in the chat view.
//
// At most one message is streaming at any time and it is always the last
// one: adding a message finalizes a still-streaming predecessor.
//
// Conversation is not safe for concurrent use; the chat controller guards it.
type Conversation struct {
	messages []*Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{messages: make([]*Message, 0)}
}

// AddMessage appends msg, finalizing any message still streaming.
func (c *Conversation) AddMessage(msg *Message) {
	if last := c.Last(); last != nil && last.IsStreaming {
		last.FinalizeStream()
	}
	c.messages = append(c.messages, msg)
}

// AddUserMessage appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantPlaceholder appends an empty streaming assistant message.
func (c *Conversation) AddAssistantPlaceholder() *Message {
	msg := NewAssistantPlaceholder()
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage appends a system notice.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// Last returns the most recent message, or nil.
func (c *Conversation) Last() *Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// Streaming returns the in-progress message, or nil.
func (c *Conversation) Streaming() *Message {
	if last := c.Last(); last != nil && last.IsStreaming {
		return last
	}
	return nil
}

// AppendToLast appends a fragment to the in-progress message. It reports
// false when nothing is streaming.
func (c *Conversation) AppendToLast(token string) bool {
	m := c.Streaming()
	if m == nil {
		return false
	}
	m.AppendToken(token)
	return true
}

// FinishLast finalizes the in-progress message, if any.
func (c *Conversation) FinishLast() {
	if m := c.Streaming(); m != nil {
		m.FinalizeStream()
	}
}

// Clear removes every message.
func (c *Conversation) Clear() {
	c.messages = make([]*Message, 0)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty reports whether there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// Snapshot returns copies of every message in order.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Snapshot()
	}
	return out
}
