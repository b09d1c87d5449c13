// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/storage"
)

// ErrNoSession is returned by Current when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Manager owns the user registry and the session record.
//
// The registry always lives in the durable scope. The session goes to the
// durable scope when "remember me" is set and to the tab scope otherwise;
// the other scope's copy is removed so only one session record exists.
type Manager struct {
	durable storage.Scope
	tab     storage.Scope
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex // serializes registry read-modify-write
}

// NewManager creates a Manager over the two scopes.
func NewManager(durable, tab storage.Scope, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		durable: durable,
		tab:     tab,
		logger:  logger,
		now:     time.Now,
	}
}

// Signup validates the form, registers a new user and starts a session.
// A duplicate email yields FieldErrors{"email": "Email already registered"}
// and leaves the registry unchanged.
func (m *Manager) Signup(form Form, remember bool) (*Session, error) {
	if errs := form.Validate(ModeSignup); errs != nil {
		return nil, errs
	}
	form = form.Normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == form.Email {
			m.logger.Info("SIGNUP_REJECTED", zap.String("email", form.Email), zap.String("reason", "duplicate"))
			return nil, FieldErrors{FieldEmail: MsgEmailRegistered}
		}
	}

	user := User{
		Name:      form.Name,
		Email:     form.Email,
		Password:  form.Password,
		CreatedAt: m.now().UTC(),
	}
	users = append(users, user)
	if err := storage.SetJSON(m.durable, storage.UsersKey, users); err != nil {
		return nil, fmt.Errorf("failed to save user registry: %w", err)
	}

	m.logger.Info("SIGNUP", zap.String("email", user.Email), zap.Bool("remember", remember))
	return m.startSession(user, remember)
}

// Login validates the form and starts a session for a matching email and
// password. A miss yields FieldErrors{"email": "Invalid email or password"}
// and no session is written.
func (m *Manager) Login(form Form, remember bool) (*Session, error) {
	if errs := form.Validate(ModeLogin); errs != nil {
		return nil, errs
	}
	form = form.Normalized()

	m.mu.Lock()
	users, err := m.loadUsers()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == form.Email && u.Password == form.Password {
			m.logger.Info("LOGIN", zap.String("email", u.Email), zap.Bool("remember", remember))
			return m.startSession(u, remember)
		}
	}

	m.logger.Info("LOGIN_FAILED", zap.String("email", form.Email))
	return nil, FieldErrors{FieldEmail: MsgInvalidCredentials}
}

// Current returns the active session, reading the durable scope first and
// the tab scope second. A malformed or unauthenticated record counts as
// logged out.
func (m *Manager) Current() (*Session, error) {
	for _, scope := range []struct {
		name string
		s    storage.Scope
	}{{"durable", m.durable}, {"tab", m.tab}} {
		raw, ok, err := scope.s.Get(storage.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read session: %w", err)
		}
		if !ok || raw == "" {
			continue
		}

		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			m.logger.Warn("SESSION_LOAD_FAILED", zap.String("scope", scope.name), zap.Error(err))
			return nil, ErrNoSession
		}
		if !sess.IsAuthenticated {
			return nil, ErrNoSession
		}
		return &sess, nil
	}
	return nil, ErrNoSession
}

// Logout removes the session record from both scopes.
func (m *Manager) Logout() error {
	errDurable := m.durable.Remove(storage.SessionKey)
	errTab := m.tab.Remove(storage.SessionKey)
	if err := errors.Join(errDurable, errTab); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.logger.Info("LOGOUT")
	return nil
}

// Users returns the registered users.
func (m *Manager) Users() ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUsers()
}

func (m *Manager) loadUsers() ([]User, error) {
	var users []User
	if _, err := storage.GetJSON(m.durable, storage.UsersKey, &users); err != nil {
		return nil, fmt.Errorf("user registry is unreadable: %w", err)
	}
	return users, nil
}

func (m *Manager) startSession(u User, remember bool) (*Session, error) {
	sess := &Session{
		IsAuthenticated: true,
		User:            SessionUser{Name: u.Name, Email: u.Email},
		LoginTime:       m.now().UTC(),
		RememberMe:      remember,
	}

	target, other := m.tab, m.durable
	if remember {
		target, other = m.durable, m.tab
	}
	if err := storage.SetJSON(target, storage.SessionKey, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if err := other.Remove(storage.SessionKey); err != nil {
		return nil, fmt.Errorf("failed to clear stale session: %w", err)
	}
	return sess, nil
}
