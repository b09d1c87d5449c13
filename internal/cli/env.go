// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/logging"
	"github.com/jeranaias/chatbot-tui/internal/storage"
)

// Env is the wired set of components a command runs against.
type Env struct {
	Config  *config.Config
	Logger  *zap.Logger
	Durable storage.Scope
	Tab     storage.Scope
	Auth    *auth.Manager
	Backend *backend.Client
	Chat    *chat.Controller

	// DataDir is where the durable store lives.
	DataDir string

	In  io.Reader
	Out io.Writer
	Err io.Writer

	reader  *bufio.Reader
	closers []func()
}

// Bootstrap loads configuration and wires logging, storage, auth, the
// backend client and the chat controller. Call Close when done.
func Bootstrap(args Args) (*Env, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	logFile, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, flush, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   logFile,
		Stderr: args.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		flush()
		return nil, err
	}
	durable, err := storage.OpenDurable(cfg.Storage.Backend, dataDir)
	if err != nil {
		flush()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	env := NewEnv(cfg, logger, durable, storage.NewMemoryStore(), nil)
	env.DataDir = dataDir
	env.closers = append(env.closers, flush)
	logger.Debug("BOOTSTRAP",
		zap.String("backend", cfg.Backend.URL),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("data_dir", dataDir))
	return env, nil
}

// NewConsole returns an Env with only the standard streams set, for
// commands that need no backend or storage.
func NewConsole() *Env {
	return &Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, Logger: zap.NewNop()}
}

// NewEnv wires the components over already-open stores. httpClient may be
// nil.
func NewEnv(cfg *config.Config, logger *zap.Logger, durable, tab storage.Scope, httpClient *http.Client) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Backend.RequestTimeout()
	if timeout == 0 {
		timeout = -1
	}
	client := backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.URL,
		SessionID:      cfg.Backend.SessionID,
		RequestTimeout: timeout,
		HTTPClient:     httpClient,
		Logger:         logger.Named("backend"),
	})

	env := &Env{
		Config:  cfg,
		Logger:  logger,
		Durable: durable,
		Tab:     tab,
		Auth:    auth.NewManager(durable, tab, logger.Named("auth")),
		Backend: client,
		Chat:    chat.NewController(client, logger.Named("chat")),
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
	env.closers = append(env.closers, func() {
		_ = tab.Close()
		_ = durable.Close()
	})
	return env
}

// Close releases stores and flushes the logger, in reverse order of setup.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigFile != "" {
		cfg, err = config.LoadFromPath(args.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.BackendURL != "" {
		cfg.Backend.URL = strings.TrimRight(args.BackendURL, "/")
	}
	if args.SessionID != "" {
		cfg.Backend.SessionID = args.SessionID
	}
	if args.BackendURL != "" || args.SessionID != "" {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flag: %w", err)
		}
	}
	return cfg, nil
}

// RequireSession returns the active session or an error telling the user
// to log in.
func (e *Env) RequireSession() (*auth.Session, error) {
	sess, err := e.Auth.Current()
	if errors.Is(err, auth.ErrNoSession) {
		return nil, &NotLoggedInError{}
	}
	return sess, err
}

// NotLoggedInError is returned by commands that need a session.
type NotLoggedInError struct{}

func (e *NotLoggedInError) Error() string {
	return "not logged in; run 'chatbot login' or 'chatbot signup' first"
}

func (e *NotLoggedInError) Unwrap() error { return auth.ErrNoSession }

// =============================================================================
// INPUT
// =============================================================================

// interactive reports whether In is a terminal.
func (e *Env) interactive() bool { return isTerminal(e.In) }

// outputIsTerminal reports whether Out is a terminal.
func (e *Env) outputIsTerminal() bool { return isTerminal(e.Out) }

// readLine prints prompt to Err and reads one line from In. End of input
// with nothing typed is io.EOF.
func (e *Env) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(e.Err, prompt)
	}
	if e.reader == nil {
		e.reader = bufio.NewReader(e.In)
	}
	line, err := e.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret reads a line without echo when In is a terminal.
func (e *Env) readSecret(prompt string) (string, error) {
	if !e.interactive() {
		return e.readLine(prompt)
	}
	fmt.Fprint(e.Err, prompt)
	f := e.In.(*os.File)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(e.Err)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
