// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// Authenticator creates sessions from form input.
type Authenticator interface {
	Signup(form auth.Form, remember bool) (*auth.Session, error)
	Login(form auth.Form, remember bool) (*auth.Session, error)
}

// LoggedInMsg is emitted after a successful login or signup.
type LoggedInMsg struct {
	Session *auth.Session
}

// slot is a focusable element of the form.
type slot int

const (
	slotName slot = iota
	slotEmail
	slotPassword
	slotConfirm
	slotRemember
)

var slotFields = map[slot]string{
	slotName:     auth.FieldName,
	slotEmail:    auth.FieldEmail,
	slotPassword: auth.FieldPassword,
	slotConfirm:  auth.FieldConfirmPassword,
}

// KeyMap holds the form's bindings.
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Submit     key.Binding
	ToggleMode key.Binding
	Reveal     key.Binding
	Check      key.Binding
}

// DefaultKeyMap returns the form's default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:       key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("Tab", "next field")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("S-Tab", "previous field")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "submit")),
		ToggleMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "log in / sign up")),
		Reveal:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("C-p", "show password")),
		Check:      key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "toggle")),
	}
}

// Model is the login/signup screen.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	auth   Authenticator
	mode   auth.Mode
	inputs map[slot]*textinput.Model
	focus  slot

	remember bool
	reveal   bool
	errs     auth.FieldErrors
	alert    string

	width  int
	height int
}

// New creates the form in login mode.
func New(theme *styles.Theme, a Authenticator, rememberDefault bool) Model {
	m := Model{
		theme:    theme,
		keys:     DefaultKeyMap(),
		auth:     a,
		mode:     auth.ModeLogin,
		remember: rememberDefault,
		inputs:   make(map[slot]*textinput.Model),
	}

	newInput := func(placeholder string, secret bool) *textinput.Model {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholder
		ti.CharLimit = 256
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		return &ti
	}
	m.inputs[slotName] = newInput("John Doe", false)
	m.inputs[slotEmail] = newInput("john@example.com", false)
	m.inputs[slotPassword] = newInput("••••••••", true)
	m.inputs[slotConfirm] = newInput("••••••••", true)

	m.focus = slotEmail
	m.inputs[slotEmail].Focus()
	return m
}

// Mode returns the current form mode.
func (m Model) Mode() auth.Mode { return m.mode }

// Errors returns the field errors from the last submit.
func (m Model) Errors() auth.FieldErrors { return m.errs }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// slots lists the focusable elements for the current mode, in order.
func (m Model) slots() []slot {
	if m.mode == auth.ModeSignup {
		return []slot{slotName, slotEmail, slotPassword, slotConfirm}
	}
	return []slot{slotEmail, slotPassword, slotRemember}
}

func (m *Model) setFocus(s slot) tea.Cmd {
	for k, in := range m.inputs {
		if k != s {
			in.Blur()
		}
	}
	m.focus = s
	if in, ok := m.inputs[s]; ok {
		return in.Focus()
	}
	return nil
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	order := m.slots()
	idx := 0
	for i, s := range order {
		if s == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return m.setFocus(order[idx])
}

// toggleMode switches login/signup and clears the form.
func (m *Model) toggleMode() tea.Cmd {
	m.mode = m.mode.Toggle()
	for _, in := range m.inputs {
		in.Reset()
	}
	m.errs = nil
	m.alert = ""
	return m.setFocus(m.slots()[0])
}

func (m *Model) setReveal(on bool) {
	m.reveal = on
	mode := textinput.EchoPassword
	if on {
		mode = textinput.EchoNormal
	}
	m.inputs[slotPassword].EchoMode = mode
	m.inputs[slotConfirm].EchoMode = mode
}

func (m Model) form() auth.Form {
	f := auth.Form{
		Email:    m.inputs[slotEmail].Value(),
		Password: m.inputs[slotPassword].Value(),
	}
	if m.mode == auth.ModeSignup {
		f.Name = m.inputs[slotName].Value()
		f.ConfirmPassword = m.inputs[slotConfirm].Value()
	}
	return f
}

func (m *Model) submit() tea.Cmd {
	m.alert = ""

	var (
		sess *auth.Session
		err  error
	)
	if m.mode == auth.ModeSignup {
		sess, err = m.auth.Signup(m.form(), m.remember)
	} else {
		sess, err = m.auth.Login(m.form(), m.remember)
	}

	if err != nil {
		var fe auth.FieldErrors
		if errors.As(err, &fe) {
			m.errs = fe
		} else {
			m.errs = nil
			m.alert = err.Error()
		}
		return nil
	}

	m.errs = nil
	return func() tea.Msg { return LoggedInMsg{Session: sess} }
}

// Update handles input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Next):
			return m, m.moveFocus(1)
		case key.Matches(msg, m.keys.Prev):
			return m, m.moveFocus(-1)
		case key.Matches(msg, m.keys.ToggleMode):
			return m, m.toggleMode()
		case key.Matches(msg, m.keys.Reveal):
			m.setReveal(!m.reveal)
			return m, nil
		case m.focus == slotRemember && key.Matches(msg, m.keys.Check):
			m.remember = !m.remember
			return m, nil
		}
	}

	in, ok := m.inputs[m.focus]
	if !ok {
		return m, nil
	}
	before := in.Value()
	updated, cmd := in.Update(msg)
	*in = updated
	if in.Value() != before {
		// Editing a field clears its error.
		if field := slotFields[m.focus]; m.errs != nil {
			delete(m.errs, field)
		}
	}
	return m, cmd
}

// View renders the form centered in the window.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("GenAI Chatbot"))
	b.WriteString("\n")
	if m.mode == auth.ModeSignup {
		b.WriteString(t.FormSubtitle.Render("Create your account"))
	} else {
		b.WriteString(t.FormSubtitle.Render("Welcome back!"))
	}
	b.WriteString("\n\n")

	labels := map[slot]string{
		slotName:     "Full Name",
		slotEmail:    "Email",
		slotPassword: "Password",
		slotConfirm:  "Confirm Password",
	}

	for _, s := range m.slots() {
		if s == slotRemember {
			box := "[ ]"
			if m.remember {
				box = "[x]"
			}
			line := box + " Remember me"
			if m.focus == s {
				line = t.FieldFocused.Render(line)
			} else {
				line = t.Checkbox.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n\n")
			continue
		}

		label := labels[s]
		if m.focus == s {
			b.WriteString(t.FieldFocused.Render("> " + label))
		} else {
			b.WriteString(t.FieldLabel.Render("  " + label))
		}
		b.WriteString("\n  ")
		b.WriteString(m.inputs[s].View())
		b.WriteString("\n")
		if msg := m.errs[slotFields[s]]; msg != "" {
			b.WriteString("  ")
			b.WriteString(t.FieldError.Render(styles.StatusIndicators.Error + " " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.mode == auth.ModeSignup {
		b.WriteString(t.ButtonPrimary.Render("Sign Up"))
	} else {
		b.WriteString(t.ButtonPrimary.Render("Log In"))
	}
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(t.Alert.Render(m.alert))
		b.WriteString("\n\n")
	}

	if m.mode == auth.ModeSignup {
		b.WriteString(t.FormSubtitle.Render("Already have an account? "))
		b.WriteString(t.Link.Render("Log In"))
	} else {
		b.WriteString(t.FormSubtitle.Render("Don't have an account? "))
		b.WriteString(t.Link.Render("Sign Up"))
	}
	b.WriteString(t.ShortcutDesc.Render(" (ctrl+t)"))
	b.WriteString("\n")

	reveal := "show password"
	if m.reveal {
		reveal = "hide password"
	}
	b.WriteString(t.ShortcutKey.Render("tab") + t.ShortcutDesc.Render(" next  "))
	b.WriteString(t.ShortcutKey.Render("ctrl+p") + t.ShortcutDesc.Render(" "+reveal+"  "))
	b.WriteString(t.ShortcutKey.Render("ctrl+c") + t.ShortcutDesc.Render(" quit"))

	box := t.FormBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
