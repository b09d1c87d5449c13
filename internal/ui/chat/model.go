// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	chatctl "github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// Controller is what the screen needs from chat.Controller.
type Controller interface {
	Submit(ctx context.Context, input string) error
	Reset(ctx context.Context, confirm func() bool) error
	Upload(ctx context.Context, path string) error
	Snapshot() chatctl.ViewState
	CanReset() bool
}

// inputMode selects what the bottom of the screen is collecting.
type inputMode int

const (
	modeChat inputMode = iota
	modeUploadPath
	modeConfirmReset
)

// Layout constants.
const (
	inputHeight  = 3
	headerHeight = 1
	statusHeight = 1
)

// Options configures a Model.
type Options struct {
	Theme    *styles.Theme
	User     auth.SessionUser
	Markdown bool
}

// Model is the chat screen.
type Model struct {
	ctx   context.Context
	ctl   Controller
	theme *styles.Theme
	keys  KeyMap
	user  auth.SessionUser

	state chatctl.ViewState
	mode  inputMode
	alert string

	viewport viewport.Model
	input    textarea.Model
	path     textinput.Model
	spinner  spinner.Model

	markdown bool
	renderer *glamour.TermRenderer
	rendered map[string]string

	width  int
	height int
}

// New creates the chat screen. ctx bounds every backend call it starts.
func New(ctx context.Context, ctl Controller, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message... (Alt+Enter for new line)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "PDF path: "
	ti.Placeholder = "~/Documents/report.pdf"

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Streaming

	m := Model{
		ctx:      ctx,
		ctl:      ctl,
		theme:    theme,
		keys:     DefaultKeyMap(),
		user:     opts.User,
		viewport: viewport.New(0, 0),
		input:    ta,
		path:     ti,
		spinner:  sp,
		markdown: opts.Markdown,
		rendered: make(map[string]string),
	}
	m.state = ctl.Snapshot()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Alert returns the alert currently shown, if any.
func (m Model) Alert() string { return m.alert }

// Update handles messages for the chat screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case StateChangedMsg:
		return m, m.refresh()

	case submitDoneMsg:
		// The controller already put any failure into the transcript. A
		// busy rejection sent nothing, so the text goes back in the input.
		if errors.Is(msg.err, chatctl.ErrBusy) && m.input.Value() == "" {
			m.input.SetValue(msg.text)
		}
		return m, m.refresh()

	case uploadDoneMsg:
		switch {
		case msg.err == nil, errors.Is(msg.err, chatctl.ErrBusy), errors.Is(msg.err, chatctl.ErrCleared):
		case errors.Is(msg.err, chatctl.ErrNotPDF):
			m.alert = chatctl.AlertNotPDF
		default:
			m.alert = chatctl.AlertUploadFail
		}
		return m, m.refresh()

	case resetDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, chatctl.ErrBusy) {
			m.alert = chatctl.AlertResetFail
		}
		m.rendered = make(map[string]string)
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.renderMessages()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmReset:
		return m.handleConfirmKey(msg)
	case modeUploadPath:
		return m.handlePathKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m, func() tea.Msg { return LogoutMsg{} }
	case key.Matches(msg, m.keys.Dismiss):
		m.setAlert("")
		return m, nil
	}

	if m.state.Loading {
		// Input, upload and reset are disabled while a request is in flight.
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Upload):
		m.mode = modeUploadPath
		m.input.Blur()
		m.path.Reset()
		m.resize()
		return m, m.path.Focus()
	case key.Matches(msg, m.keys.Reset):
		if !m.ctl.CanReset() {
			return m, nil
		}
		m.mode = modeConfirmReset
		m.input.Blur()
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.leavePrompt()
		ctx, ctl := m.ctx, m.ctl
		return m, tea.Batch(
			func() tea.Msg {
				return resetDoneMsg{err: ctl.Reset(ctx, func() bool { return true })}
			},
			m.spinner.Tick,
		)
	case key.Matches(msg, m.keys.Decline):
		m.leavePrompt()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) handlePathKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.leavePrompt()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Submit):
		path := expandHome(strings.TrimSpace(m.path.Value()))
		m.leavePrompt()
		if path == "" {
			return m, m.input.Focus()
		}
		if !chatctl.IsPDFName(filepath.Base(path)) {
			m.setAlert(chatctl.AlertNotPDF)
			return m, m.input.Focus()
		}
		ctx, ctl := m.ctx, m.ctl
		return m, tea.Batch(
			func() tea.Msg {
				return uploadDoneMsg{name: filepath.Base(path), err: ctl.Upload(ctx, path)}
			},
			m.spinner.Tick,
		)
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) leavePrompt() {
	m.mode = modeChat
	m.path.Blur()
	m.resize()
}

func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.setAlert("")
	// Loading until the controller's own state arrives, so a second Enter
	// before then is ignored.
	m.state.Loading = true

	ctx, ctl := m.ctx, m.ctl
	return m, tea.Batch(
		func() tea.Msg { return submitDoneMsg{text: text, err: ctl.Submit(ctx, text)} },
		m.spinner.Tick,
	)
}

// refresh re-reads controller state and redraws the transcript.
func (m *Model) refresh() tea.Cmd {
	wasLoading := m.state.Loading
	m.state = m.ctl.Snapshot()

	var cmd tea.Cmd
	if m.state.Loading {
		m.input.Blur()
		if !wasLoading {
			cmd = m.spinner.Tick
		}
	} else if m.mode == modeChat && !m.input.Focused() {
		cmd = m.input.Focus()
	}

	m.resize()
	return cmd
}

func (m *Model) setAlert(s string) {
	if m.alert == s {
		return
	}
	m.alert = s
	m.resize()
}

// resize recomputes component sizes from the window and the optional rows.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	m.input.SetWidth(m.width - 2)
	m.path.Width = m.width - len(m.path.Prompt) - 2

	h := m.height - headerHeight - statusHeight - inputHeight - 1
	if m.state.Upload.Active {
		h--
	}
	if m.alert != "" {
		h--
	}
	if h < 1 {
		h = 1
	}

	widthChanged := m.viewport.Width != m.width
	m.viewport.Width = m.width
	m.viewport.Height = h
	if widthChanged {
		m.renderer = nil
		m.rendered = make(map[string]string)
	}
	m.renderMessages()
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
