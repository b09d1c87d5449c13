// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single message command handler.
//
// Command: ask [question]
// Short:   Send one message and print the reply
//
// Examples:
//   chatbot ask "What does chapter 2 cover?"
//   chatbot ask --pdf guide.pdf "Summarize this document"
//   chatbot ask --raw "Hello" | tee reply.txt
//   chatbot ask --json "Hello"
//
// Flags:
//   --pdf FILE          Upload FILE before asking
//   --raw               Stream plain text instead of rendering markdown
//   --json              Output response as JSON
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

var askBoolFlags = []string{"raw"}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for the terminal in the configured theme.
// The original text is returned if rendering fails.
func renderMarkdown(content, theme string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.NewTheme(theme).GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// ASK
// =============================================================================

// HandleAsk sends one message. The reply streams to stdout as it arrives
// unless stdout is a terminal with markdown enabled, in which case it is
// rendered once complete.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, askBoolFlags...)
	question := strings.TrimSpace(JoinPositionalArgs(p, 0))
	if question == "" {
		return ErrMissingArgument("question", `chatbot ask "What is this document about?"`)
	}
	if _, err := env.RequireSession(); err != nil {
		return err
	}

	data := AskData{Question: question}
	if pdf := p.Flag("pdf"); pdf != "" {
		res, err := uploadFile(ctx, env, pdf)
		if err != nil {
			return err
		}
		data.PDF = res.Filename
		if !args.Quiet {
			fmt.Fprintln(env.Err, DimStyle.Render(fmt.Sprintf("Uploaded %s (%d characters extracted)", res.Filename, res.TextLength)))
		}
	}

	render := !args.JSON && !p.BoolFlag("raw") && env.Config.UI.Markdown && env.outputIsTerminal()
	stream := !args.JSON && !render

	var reply strings.Builder
	start := time.Now()
	err := env.Backend.ChatStream(ctx, question, func(chunk string) {
		reply.WriteString(chunk)
		if stream {
			fmt.Fprint(env.Out, chunk)
		}
	})
	data.Reply = reply.String()
	data.Duration = time.Since(start).Round(time.Millisecond).String()

	if stream && reply.Len() > 0 && !strings.HasSuffix(data.Reply, "\n") {
		fmt.Fprintln(env.Out)
	}
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	switch {
	case args.JSON:
		return NewJSONResponse("ask", data).Write(env.Out)
	case render:
		fmt.Fprint(env.Out, renderMarkdown(data.Reply, env.Config.UI.Theme, GetTerminalWidth()))
	}
	return nil
}
