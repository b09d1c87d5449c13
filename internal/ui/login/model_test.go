// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

func newManager() (*auth.Manager, *storage.MemoryStore, *storage.MemoryStore) {
	durable := storage.NewMemoryStore()
	tab := storage.NewMemoryStore()
	return auth.NewManager(durable, tab, nil), durable, tab
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

func TestLogin_ValidationErrorsShownPerField(t *testing.T) {
	mgr, _, _ := newManager()
	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)

	m = typeText(m, "not-an-email")
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)

	errs := m.Errors()
	assert.Equal(t, auth.MsgEmailInvalid, errs[auth.FieldEmail])
	assert.Equal(t, auth.MsgPasswordRequired, errs[auth.FieldPassword])
	assert.Contains(t, m.View(), auth.MsgEmailInvalid)
}

func TestLogin_EditingClearsFieldError(t *testing.T) {
	mgr, _, _ := newManager()
	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)

	m, _ = press(m, tea.KeyEnter)
	require.NotEmpty(t, m.Errors()[auth.FieldEmail])

	m = typeText(m, "a")
	assert.Empty(t, m.Errors()[auth.FieldEmail])
	assert.NotEmpty(t, m.Errors()[auth.FieldPassword])
}

func TestSignupThenLogin(t *testing.T) {
	mgr, durable, tab := newManager()
	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)

	m, _ = press(m, tea.KeyCtrlT)
	require.Equal(t, auth.ModeSignup, m.Mode())

	m = typeText(m, "Ada")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "ada@example.com")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "secret1")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "secret1")

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	msg, ok := cmd().(LoggedInMsg)
	require.True(t, ok)
	assert.Equal(t, "Ada", msg.Session.User.Name)

	_, inDurable, _ := durable.Get(storage.SessionKey)
	_, inTab, _ := tab.Get(storage.SessionKey)
	assert.True(t, inDurable, "remember defaults on, so the session is durable")
	assert.False(t, inTab)
}

func TestLogin_RememberUncheckedUsesTabScope(t *testing.T) {
	mgr, durable, tab := newManager()
	_, err := mgr.Signup(auth.Form{Name: "Bo", Email: "bo@example.com", Password: "hunter22", ConfirmPassword: "hunter22"}, true)
	require.NoError(t, err)
	require.NoError(t, mgr.Logout())

	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)
	m = typeText(m, "bo@example.com")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "hunter22")
	m, _ = press(m, tea.KeyTab)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	_, ok := cmd().(LoggedInMsg)
	require.True(t, ok)

	_, inDurable, _ := durable.Get(storage.SessionKey)
	_, inTab, _ := tab.Get(storage.SessionKey)
	assert.False(t, inDurable)
	assert.True(t, inTab)
}

func TestLogin_WrongPassword(t *testing.T) {
	mgr, _, _ := newManager()
	_, err := mgr.Signup(auth.Form{Name: "Cy", Email: "cy@example.com", Password: "hunter22", ConfirmPassword: "hunter22"}, false)
	require.NoError(t, err)

	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)
	m = typeText(m, "cy@example.com")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "hunter23")

	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, auth.MsgInvalidCredentials, m.Errors()[auth.FieldEmail])
}

func TestToggleMode_ClearsForm(t *testing.T) {
	mgr, _, _ := newManager()
	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)

	m = typeText(m, "someone@example.com")
	m, _ = press(m, tea.KeyEnter)
	require.NotEmpty(t, m.Errors())

	m, _ = press(m, tea.KeyCtrlT)
	assert.Empty(t, m.Errors())
	assert.NotContains(t, m.View(), "someone@example.com")
	assert.Contains(t, m.View(), "Create your account")

	m, _ = press(m, tea.KeyCtrlT)
	assert.Equal(t, auth.ModeLogin, m.Mode())
	assert.Contains(t, m.View(), "Welcome back!")
}

func TestPasswordMasking(t *testing.T) {
	mgr, _, _ := newManager()
	m := New(styles.NewTheme(styles.ThemeDark), mgr, true)

	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "topsecret")
	assert.False(t, strings.Contains(m.View(), "topsecret"))

	m, _ = press(m, tea.KeyCtrlP)
	assert.True(t, strings.Contains(m.View(), "topsecret"))
}
