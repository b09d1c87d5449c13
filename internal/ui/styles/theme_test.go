// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	dark := NewTheme(ThemeDark)
	if !dark.IsDark {
		t.Error("dark theme should report IsDark")
	}
	light := NewTheme(ThemeLight)
	if light.IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestTheme_StylesRender(t *testing.T) {
	theme := NewTheme(ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AssistantBody", theme.AssistantBody},
		{"SystemBubble", theme.SystemBubble},
		{"Alert", theme.Alert},
		{"ConfirmBox", theme.ConfirmBox},
		{"FormBox", theme.FormBox},
		{"FieldError", theme.FieldError},
	}
	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s rendered empty", s.name)
		}
	}
}

func TestTheme_GlamourStyle(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		dark    bool
		want    string
	}{
		{termenv.Ascii, true, "notty"},
		{termenv.TrueColor, true, "dark"},
		{termenv.ANSI256, false, "light"},
	}
	for _, tt := range tests {
		th := &Theme{ColorProfile: tt.profile, IsDark: tt.dark}
		if got := th.GlamourStyle(); got != tt.want {
			t.Errorf("GlamourStyle(profile=%v, dark=%v) = %q, want %q", tt.profile, tt.dark, got, tt.want)
		}
	}
}
