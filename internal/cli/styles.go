// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for line-mode commands.
//
// Colors come from the same palette as the full-screen UI and are disabled
// for non-TTY output and when NO_COLOR is set.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels in key/value listings
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for hints and secondary text
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)

	// PromptStyle colors the line-mode chat prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Role labels in transcripts
	UserLabelStyle      = lipgloss.NewStyle().Foreground(styles.UserBubbleBorder).Bold(true)
	AssistantLabelStyle = lipgloss.NewStyle().Foreground(styles.AssistantBubbleBorder).Bold(true)
	SystemLabelStyle    = lipgloss.NewStyle().Foreground(styles.SystemBubbleBorder).Bold(true)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 60 columns unless width is
// given.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("─", w))
}

// RenderStatus renders an ASCII status marker in its color.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success":
		return SuccessStyle.Render(styles.StatusIndicators.Success)
	case "error", "fail":
		return ErrorStyle.Render(styles.StatusIndicators.Error)
	case "warning", "warn":
		return WarningStyle.Render(styles.StatusIndicators.Warning)
	default:
		return DimStyle.Render(styles.StatusIndicators.Info)
	}
}

// RenderLabel renders a label padded to the shared width.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// roleLabel renders the transcript label for a role name.
func roleLabel(role string) string {
	switch role {
	case "user":
		return UserLabelStyle.Render("You")
	case "assistant":
		return AssistantLabelStyle.Render("Assistant")
	default:
		return SystemLabelStyle.Render("System")
	}
}
