// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for terminals where the full-screen UI is not
// wanted.
//
// Command: chat
// Short:   Start an interactive line-mode chat session
//
// Interactive Commands (during chat):
//   /upload FILE.pdf    Attach a PDF
//   /reset              Clear the conversation and the PDF (asks first)
//   /history            Reprint this session's transcript
//   /export FILE        Save the transcript as .md or .json
//   /logout             Log out and leave
//   /help, /h           Show available commands
//   /quit, /q           Leave
//   line ending in \    Continue the message on the next line
//   Ctrl+C              Cancel the reply being streamed
//   Ctrl+D              Leave
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/export"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

const (
	chatPrompt         = "you> "
	continuationPrompt = "...> "
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input. ReadInput returns io.EOF at end of
// input and liner.ErrPromptAborted when the user presses Ctrl+C.
type LineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose history lives in the config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-blank lines are added
// to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession runs one line-mode conversation.
type chatSession struct {
	env    *Env
	user   auth.SessionUser
	reader LineReader

	// interrupt derives the per-reply context; Ctrl+C cancels only the
	// reply in flight.
	interrupt func(ctx context.Context) (context.Context, context.CancelFunc)
}

// HandleChat starts line-mode chat for the logged-in user.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	sess, err := env.RequireSession()
	if err != nil {
		return err
	}
	reader := NewChatCLI()
	defer reader.Close()
	return RunChat(ctx, env, sess, reader)
}

// RunChat drives the conversation until /quit, /logout or end of input.
func RunChat(ctx context.Context, env *Env, sess *auth.Session, reader LineReader) error {
	s := &chatSession{
		env:    env,
		user:   sess.User,
		reader: reader,
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
	return s.run(ctx)
}

func (s *chatSession) run(ctx context.Context) error {
	s.printWelcome()

	for {
		text, err := readMessage(s.reader)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(s.env.Out, DimStyle.Render("(input cleared; /quit to leave)"))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.env.Out)
			return nil
		case err != nil:
			return err
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "/") {
			quit, err := s.handleSlashCommand(ctx, trimmed)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		s.send(ctx, text)
	}
}

// readMessage reads one message. A line ending in a backslash continues on
// the next line; the backslash is dropped and a newline kept.
func readMessage(r LineReader) (string, error) {
	var lines []string
	prompt := chatPrompt
	for {
		line, err := r.ReadInput(prompt)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(line, `\`) {
			lines = append(lines, strings.TrimSuffix(line, `\`))
			prompt = continuationPrompt
			continue
		}
		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}

// send submits text and prints the reply as it streams.
func (s *chatSession) send(ctx context.Context, text string) {
	ctx, stop := s.interrupt(ctx)
	defer stop()

	out := s.env.Out
	fmt.Fprintf(out, "%s ", AssistantLabelStyle.Render("Assistant:"))

	var streamID string
	printed := 0
	s.env.Chat.SetOnChange(func() {
		msgs := s.env.Chat.Snapshot().Messages
		if len(msgs) == 0 {
			return
		}
		last := msgs[len(msgs)-1]
		if last.Role != model.RoleAssistant {
			return
		}
		if streamID == "" {
			streamID = last.ID
		}
		if last.ID != streamID || len(last.Content) <= printed {
			return
		}
		fmt.Fprint(out, last.Content[printed:])
		printed = len(last.Content)
	})
	defer s.env.Chat.SetOnChange(nil)

	err := s.env.Chat.Submit(ctx, text)
	fmt.Fprintln(out)
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, DimStyle.Render("(reply cancelled)"))
	}
	msgs := s.env.Chat.Snapshot().Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleSystem {
		fmt.Fprintln(out, ErrorStyle.Render(msgs[n-1].Content))
	}
	s.env.Logger.Debug("CHAT_LINE_FAILED", zap.Error(err))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a /command and reports whether the session should
// end. Command failures are printed, not returned; the error result is for
// failures that make continuing pointless.
func (s *chatSession) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	out := s.env.Out

	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h", "/?":
		printChatHelp(out)

	case "/upload", "/u":
		if rest == "" {
			fmt.Fprintln(out, WarningStyle.Render("Usage: /upload FILE.pdf"))
			return false, nil
		}
		s.upload(ctx, rest)

	case "/reset":
		err := s.env.Chat.Reset(ctx, func() bool { return s.env.PromptYesNo(chat.ResetPrompt) })
		switch {
		case errors.Is(err, chat.ErrCancelled):
			s.env.ShowCancellationMessage()
		case err != nil:
			fmt.Fprintf(out, "%s %s\n", RenderStatus("error"), chat.AlertResetFail)
		default:
			fmt.Fprintf(out, "%s Chat reset.\n", RenderStatus("ok"))
		}

	case "/history":
		printTranscript(out, s.env.Chat.Snapshot())

	case "/export":
		if rest == "" {
			fmt.Fprintln(out, WarningStyle.Render("Usage: /export FILE.md|FILE.json"))
			return false, nil
		}
		s.export(expandPath(strings.Trim(rest, `"'`)))

	case "/logout":
		if err := s.env.Auth.Logout(); err != nil {
			return true, err
		}
		s.env.Chat.Clear()
		fmt.Fprintf(out, "%s Logged out.\n", RenderStatus("ok"))
		return true, nil

	default:
		fmt.Fprintf(out, "%s Unknown command %s. Type /help for a list.\n", RenderStatus("warn"), name)
	}
	return false, nil
}

func (s *chatSession) upload(ctx context.Context, path string) {
	out := s.env.Out
	path = expandPath(strings.Trim(path, `"'`))

	err := s.env.Chat.Upload(ctx, path)
	switch {
	case errors.Is(err, chat.ErrNotPDF):
		fmt.Fprintf(out, "%s %s\n", RenderStatus("warn"), chat.AlertNotPDF)
	case err != nil:
		fmt.Fprintf(out, "%s %s\n", RenderStatus("error"), chat.AlertUploadFail)
		s.env.Logger.Debug("UPLOAD_LINE_FAILED", zap.Error(err))
	default:
		msgs := s.env.Chat.Snapshot().Messages
		fmt.Fprintln(out, SuccessStyle.Render(msgs[len(msgs)-1].Content))
	}
}

func (s *chatSession) export(path string) {
	out := s.env.Out
	state := s.env.Chat.Snapshot()
	t := export.FromMessages(state.Messages)
	t.User = fmt.Sprintf("%s <%s>", s.user.Name, s.user.Email)
	if state.Upload.Active {
		t.PDF = state.Upload.FileName
	}

	err := export.WriteFile(t, path, nil)
	switch {
	case errors.Is(err, export.ErrEmpty):
		fmt.Fprintln(out, DimStyle.Render("(no messages yet)"))
	case errors.Is(err, export.ErrUnsupportedFormat):
		fmt.Fprintf(out, "%s Export file must end in .md or .json\n", RenderStatus("warn"))
	case err != nil:
		fmt.Fprintf(out, "%s Export failed: %v\n", RenderStatus("error"), err)
	default:
		fmt.Fprintf(out, "%s Exported %d messages to %s\n", RenderStatus("ok"), len(t.Entries), path)
	}
}

func (s *chatSession) printWelcome() {
	out := s.env.Out
	fmt.Fprintln(out, TitleStyle.Render("GenAI Chatbot"))
	fmt.Fprintf(out, "Logged in as %s <%s>\n", s.user.Name, s.user.Email)
	fmt.Fprintln(out, DimStyle.Render("Type a message, /upload FILE.pdf to ask about a document, /help for commands."))
	fmt.Fprintln(out, RenderSeparator())
}

func printChatHelp(w io.Writer) {
	cmds := [][2]string{
		{"/upload FILE.pdf", "Attach a PDF to ask questions about"},
		{"/reset", "Clear the conversation and the PDF"},
		{"/history", "Reprint this session's messages"},
		{"/export FILE", "Save the conversation as .md or .json"},
		{"/logout", "Log out and leave"},
		{"/quit", "Leave (Ctrl+D also works)"},
		{`line ending in \`, "Continue the message on the next line"},
	}
	for _, c := range cmds {
		fmt.Fprintf(w, "  %s %s\n", PromptStyle.Render(fmt.Sprintf("%-18s", c[0])), c[1])
	}
}

// printTranscript writes every message of state with its role label.
func printTranscript(w io.Writer, state chat.ViewState) {
	if len(state.Messages) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(no messages yet)"))
		return
	}
	if state.Upload.Active {
		fmt.Fprintf(w, "%s PDF Active: %s\n", RenderStatus("info"), state.Upload.FileName)
	}
	for _, m := range state.Messages {
		fmt.Fprintf(w, "%s %s\n", roleLabel(m.Role.String())+":", m.Content)
	}
}
