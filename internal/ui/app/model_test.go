// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/backend"
	chatctl "github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/devserver"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	uichat "github.com/jeranaias/chatbot-tui/internal/ui/chat"
	"github.com/jeranaias/chatbot-tui/internal/ui/login"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

type fixture struct {
	durable *storage.MemoryStore
	tab     *storage.MemoryStore
	mgr     *auth.Manager
	ctl     *chatctl.Controller
	changes chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ts := httptest.NewServer(devserver.New(devserver.Options{}).Handler())
	t.Cleanup(ts.Close)

	f := &fixture{
		durable: storage.NewMemoryStore(),
		tab:     storage.NewMemoryStore(),
		changes: make(chan struct{}, 1),
	}
	f.mgr = auth.NewManager(f.durable, f.tab, nil)
	f.ctl = chatctl.NewController(backend.NewClient(backend.Config{BaseURL: ts.URL}), nil)
	return f
}

func (f *fixture) model() Model {
	m := New(context.Background(), Options{
		Sessions:        f.mgr,
		Controller:      f.ctl,
		Theme:           styles.NewTheme(styles.ThemeDark),
		RememberDefault: true,
		StorageChanges:  f.changes,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func (f *fixture) signup(t *testing.T, remember bool) *auth.Session {
	t.Helper()
	sess, err := f.mgr.Signup(auth.Form{
		Name: "Ada", Email: "ada@example.com",
		Password: "secret1", ConfirmPassword: "secret1",
	}, remember)
	require.NoError(t, err)
	return sess
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestStartsOnLoginWithoutSession(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	assert.Equal(t, "login", m.Screen())
	assert.Contains(t, m.View(), "Welcome back!")
}

func TestStartsOnChatWithSession(t *testing.T) {
	f := newFixture(t)
	f.signup(t, true)

	m := f.model()
	assert.Equal(t, "chat", m.Screen())
	assert.Contains(t, m.View(), "Ada")
}

func TestLoginSwitchesToChat(t *testing.T) {
	f := newFixture(t)
	sess := f.signup(t, false)

	m := f.model()
	// A non-remembered session lives in this process's tab scope.
	assert.Equal(t, "chat", m.Screen())

	require.NoError(t, f.mgr.Logout())
	m, _ = update(m, uichat.LogoutMsg{})
	require.Equal(t, "login", m.Screen())

	m, _ = update(m, login.LoggedInMsg{Session: sess})
	assert.Equal(t, "chat", m.Screen())
	assert.Equal(t, "Ada", m.Session().User.Name)
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.signup(t, true)
	m := f.model()

	require.NoError(t, f.ctl.Submit(context.Background(), "hello"))
	require.NotEmpty(t, f.ctl.Snapshot().Messages)

	m, _ = update(m, uichat.LogoutMsg{})
	assert.Equal(t, "login", m.Screen())
	assert.Nil(t, m.Session())
	assert.Empty(t, f.ctl.Snapshot().Messages)

	_, inDurable, _ := f.durable.Get(storage.SessionKey)
	_, inTab, _ := f.tab.Get(storage.SessionKey)
	assert.False(t, inDurable)
	assert.False(t, inTab)

	users, err := f.mgr.Users()
	require.NoError(t, err)
	assert.Len(t, users, 1, "logout keeps the registry")
}

func TestStorageChange_LogoutElsewhere(t *testing.T) {
	f := newFixture(t)
	f.signup(t, true)
	m := f.model()
	require.Equal(t, "chat", m.Screen())

	// Another process removes the durable session.
	require.NoError(t, f.durable.Remove(storage.SessionKey))

	m, cmd := update(m, storageChangedMsg{})
	assert.Equal(t, "login", m.Screen())
	assert.NotNil(t, cmd, "the watcher is re-armed")
}

func TestStorageChange_LoginElsewhere(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	require.Equal(t, "login", m.Screen())

	f.signup(t, true)
	m, _ = update(m, storageChangedMsg{})
	assert.Equal(t, "chat", m.Screen())
}

func TestWaitForStorage(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	cmd := m.waitForStorage()
	require.NotNil(t, cmd)
	f.changes <- struct{}{}
	assert.Equal(t, storageChangedMsg{}, cmd())

	close(f.changes)
	assert.Nil(t, m.waitForStorage()())
}

func TestCtrlCQuits(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
