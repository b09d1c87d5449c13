// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	chatctl "github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
	"github.com/jeranaias/chatbot-tui/internal/util"
)

// View renders the screen. Layout, top to bottom: header, optional document
// banner, transcript, optional alert, input (or prompt), status bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	parts := []string{m.renderHeader()}
	if m.state.Upload.Active {
		parts = append(parts, m.theme.DocBanner.Render(
			styles.StatusIndicators.Success+" PDF Active: "+util.TruncateWidth(m.state.Upload.FileName, m.width-20)))
	}
	parts = append(parts, m.viewport.View())
	if m.alert != "" {
		parts = append(parts, m.theme.Alert.Render(styles.StatusIndicators.Error+" "+m.alert+"  (esc)"))
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	left := m.theme.HeaderBrand.Render("GenAI Chatbot")
	right := m.theme.HeaderUser.Render(m.user.Name)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderInput() string {
	var body string
	switch m.mode {
	case modeConfirmReset:
		body = m.theme.ConfirmBox.Render(chatctl.ResetPrompt + "  " +
			m.theme.PromptLabel.Render("[y/n]"))
	case modeUploadPath:
		body = m.path.View() + "\n" +
			m.theme.ShortcutDesc.Render("enter to upload, esc to cancel")
	default:
		if m.state.Loading {
			body = m.theme.InputDisabled.Render(m.spinner.View() + " Waiting for response...")
		} else {
			body = m.input.View()
		}
	}
	return m.theme.InputContainer.Width(m.width).Height(inputHeight).Render(body)
}

func (m Model) renderStatusBar() string {
	var b strings.Builder
	for i, k := range m.keys.ShortHelp() {
		if i > 0 {
			b.WriteString("  ")
		}
		h := k.Help()
		b.WriteString(m.theme.ShortcutKey.Render(h.Key))
		b.WriteString(" ")
		b.WriteString(m.theme.ShortcutDesc.Render(h.Desc))
	}
	b.WriteString("  ")
	b.WriteString(m.theme.ShortcutKey.Render("ctrl+c"))
	b.WriteString(" ")
	b.WriteString(m.theme.ShortcutDesc.Render("quit"))
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).Render(b.String())
}

// renderMessages rebuilds the viewport content and keeps it scrolled to
// the newest message.
func (m *Model) renderMessages() {
	if m.viewport.Width == 0 {
		return
	}

	if len(m.state.Messages) == 0 {
		m.viewport.SetContent(m.renderWelcome())
		return
	}

	var b strings.Builder
	for i := range m.state.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(&m.state.Messages[i]))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) renderWelcome() string {
	text := m.theme.FormTitle.Render("Welcome to GenAI Chatbot") + "\n\n" +
		m.theme.FormSubtitle.Render("Start a conversation or upload a PDF to ask questions about it.")
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, text)
}

func (m *Model) renderMessage(msg *model.Message) string {
	t := m.theme
	stamp := t.Timestamp.Render(msg.Timestamp.Format("15:04"))
	bodyWidth := m.viewport.Width - 4
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	switch msg.Role {
	case model.RoleUser:
		head := t.UserLabel.Render(msg.Role.DisplayName()) + " " + stamp
		return head + "\n" + t.UserBubble.Width(bodyWidth).Render(msg.DisplayContent())

	case model.RoleSystem:
		return t.SystemBubble.Width(bodyWidth).Render(msg.DisplayContent())

	default:
		head := t.AssistantLabel.Render(msg.Role.DisplayName()) + " " + stamp
		if msg.IsStreaming {
			body := msg.DisplayContent()
			if body != "" {
				body += " "
			}
			body += m.spinner.View()
			return head + "\n" + t.AssistantBody.Width(bodyWidth).Render(body)
		}
		return head + "\n" + t.AssistantBody.Width(bodyWidth).Render(m.markdownFor(msg, bodyWidth-2))
	}
}

// markdownFor renders a finished assistant message, caching by message ID.
// Streaming messages are shown as plain text.
func (m *Model) markdownFor(msg *model.Message, width int) string {
	if !m.markdown {
		return msg.Content
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.markdown = false
			return msg.Content
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = out
	return out
}
