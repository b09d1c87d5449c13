// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	chatctl "github.com/jeranaias/chatbot-tui/internal/chat"
	uichat "github.com/jeranaias/chatbot-tui/internal/ui/chat"
	"github.com/jeranaias/chatbot-tui/internal/ui/login"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// Sessions is what the root model needs from auth.Manager.
type Sessions interface {
	login.Authenticator
	Current() (*auth.Session, error)
	Logout() error
}

// Controller is what the root model needs from chat.Controller.
type Controller interface {
	uichat.Controller
	Clear()
}

// Options configures the root model.
type Options struct {
	Sessions   Sessions
	Controller Controller
	Theme      *styles.Theme
	Logger     *zap.Logger

	RememberDefault bool
	Markdown        bool

	// StorageChanges signals that another process touched durable storage.
	// Nil disables cross-process session checks.
	StorageChanges <-chan struct{}
}

type screen int

const (
	screenLogin screen = iota
	screenChat
)

// storageChangedMsg is delivered for each watcher signal.
type storageChangedMsg struct{}

// Model is the root Bubble Tea model. It shows the login screen until a
// session exists and the chat screen afterwards.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *zap.Logger

	screen  screen
	session *auth.Session
	login   login.Model
	chat    uichat.Model

	// stopChat cancels the requests started by the current chat screen.
	stopChat context.CancelFunc

	width  int
	height int
}

// New creates the root model, starting on the chat screen if a session is
// already active.
func New(ctx context.Context, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ThemeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{ctx: ctx, opts: opts, logger: logger}
	if sess := m.currentSession(); sess != nil {
		m.enterChat(sess)
	} else {
		m.enterLogin()
	}
	return m
}

// Screen reports which screen is showing: "login" or "chat".
func (m Model) Screen() string {
	if m.screen == screenChat {
		return "chat"
	}
	return "login"
}

// Session returns the active session, or nil on the login screen.
func (m Model) Session() *auth.Session { return m.session }

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.screen == screenChat {
		cmds = append(cmds, m.chat.Init())
	} else {
		cmds = append(cmds, m.login.Init())
	}
	cmds = append(cmds, m.waitForStorage())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case login.LoggedInMsg:
		m.enterChat(msg.Session)
		return m, m.chat.Init()

	case uichat.LogoutMsg:
		m.logout()
		return m, m.login.Init()

	case storageChangedMsg:
		return m, tea.Batch(m.recheckSession(), m.waitForStorage())
	}

	var cmd tea.Cmd
	if m.screen == screenChat {
		m.chat, cmd = m.chat.Update(msg)
	} else {
		m.login, cmd = m.login.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	if m.screen == screenChat {
		return m.chat.View()
	}
	return m.login.View()
}

// =============================================================================
// SCREEN TRANSITIONS
// =============================================================================

func (m *Model) currentSession() *auth.Session {
	sess, err := m.opts.Sessions.Current()
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			m.logger.Warn("SESSION_CHECK_FAILED", zap.Error(err))
		}
		return nil
	}
	return sess
}

func (m *Model) enterChat(sess *auth.Session) {
	m.session = sess
	m.screen = screenChat
	ctx, cancel := context.WithCancel(m.ctx)
	m.stopChat = cancel
	m.chat = uichat.New(ctx, m.opts.Controller, uichat.Options{
		Theme:    m.opts.Theme,
		User:     sess.User,
		Markdown: m.opts.Markdown,
	})
	if m.width > 0 {
		m.chat, _ = m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
}

func (m *Model) enterLogin() {
	if m.stopChat != nil {
		m.stopChat()
		m.stopChat = nil
	}
	m.session = nil
	m.screen = screenLogin
	m.login = login.New(m.opts.Theme, m.opts.Sessions, m.opts.RememberDefault)
	if m.width > 0 {
		m.login, _ = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
}

// logout ends the session in both scopes and drops all chat state.
func (m *Model) logout() {
	if err := m.opts.Sessions.Logout(); err != nil {
		m.logger.Error("LOGOUT_FAILED", zap.Error(err))
	}
	m.opts.Controller.Clear()
	m.logger.Info("LOGOUT")
	m.enterLogin()
}

// recheckSession follows session changes made by another process.
func (m *Model) recheckSession() tea.Cmd {
	sess := m.currentSession()
	switch {
	case m.screen == screenChat && sess == nil:
		m.logger.Info("SESSION_ENDED_ELSEWHERE")
		m.opts.Controller.Clear()
		m.enterLogin()
		return m.login.Init()
	case m.screen == screenLogin && sess != nil:
		m.logger.Info("SESSION_STARTED_ELSEWHERE", zap.String("email", sess.User.Email))
		m.enterChat(sess)
		return m.chat.Init()
	}
	return nil
}

func (m Model) waitForStorage() tea.Cmd {
	ch := m.opts.StorageChanges
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storageChangedMsg{}
	}
}

var _ Controller = (*chatctl.Controller)(nil)
