// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - upload, reset and history: commands acting on the
// backend session.
//
// Examples:
//   chatbot upload ~/papers/guide.pdf
//   chatbot reset --confirm
//   chatbot history --json
//   chatbot history --export chat.md
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeranaias/chatbot-tui/internal/auth"
	"github.com/jeranaias/chatbot-tui/internal/backend"
	"github.com/jeranaias/chatbot-tui/internal/chat"
	"github.com/jeranaias/chatbot-tui/internal/export"
)

// HandleUpload sends a PDF to the backend session.
func HandleUpload(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	path := p.Positional(0)
	if path == "" {
		return ErrMissingArgument("file", "chatbot upload guide.pdf")
	}
	if _, err := env.RequireSession(); err != nil {
		return err
	}

	return OutputJSON(env.Out, args.JSON, "upload", func() (interface{}, error) {
		res, err := uploadFile(ctx, env, path)
		if err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintf(env.Out, "%s %s\n", RenderStatus("ok"), chat.UploadNotice(res.Filename))
			if !args.Quiet {
				fmt.Fprintf(env.Out, "%s%d\n", RenderLabel("Text extracted"), res.TextLength)
				fmt.Fprintf(env.Out, "%s%s\n", RenderLabel("Session"), res.SessionID)
			}
		}
		return UploadData{
			Filename:   res.Filename,
			TextLength: res.TextLength,
			SessionID:  res.SessionID,
			Message:    res.Message,
		}, nil
	})
}

// uploadFile checks the name, opens path and uploads it.
func uploadFile(ctx context.Context, env *Env, path string) (*backend.UploadResult, error) {
	path = expandPath(path)
	name := filepath.Base(path)
	if !chat.IsPDFName(name) {
		return nil, &ValidationError{Field: "file", Value: name, Reason: chat.AlertNotPDF}
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Resource: "file", ID: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	res, err := env.Backend.UploadPDF(ctx, name, f)
	if err != nil {
		return nil, NewCommandError("upload", "send", chat.AlertUploadFail, err)
	}
	return res, nil
}

// HandleReset clears the backend session after confirmation.
func HandleReset(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "confirm", "yes", "y")
	if _, err := env.RequireSession(); err != nil {
		return err
	}

	confirmed, err := env.RequireConfirmation(chat.ResetPrompt, ConfirmationOptions{
		ConfirmFlag: p.BoolFlag("confirm") || p.BoolFlag("yes") || p.BoolFlag("y"),
		JSONMode:    args.JSON,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		env.ShowCancellationMessage()
		return nil
	}

	return OutputJSON(env.Out, args.JSON, "reset", func() (interface{}, error) {
		res, err := env.Backend.Reset(ctx)
		if err != nil {
			return nil, NewCommandError("reset", "send", chat.AlertResetFail, err)
		}
		if !args.JSON {
			fmt.Fprintf(env.Out, "%s Chat reset.\n", RenderStatus("ok"))
		}
		return res, nil
	})
}

// HandleHistory prints the backend's record of the session.
func HandleHistory(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	sess, err := env.RequireSession()
	if err != nil {
		return err
	}
	if path := p.Flag("export"); path != "" {
		return exportHistory(ctx, env, args, sess, expandPath(path))
	}

	return OutputJSON(env.Out, args.JSON, "history", func() (interface{}, error) {
		h, err := env.Backend.History(ctx)
		if err != nil {
			return nil, err
		}
		data := HistoryData{SessionID: h.SessionID, HasPDF: h.HasPDF, Turns: []HistoryTurn{}}
		for _, e := range h.History {
			data.Turns = append(data.Turns, HistoryTurn{Role: e.Role, Content: e.Content})
		}
		if !args.JSON {
			printHistory(env, data)
		}
		return data, nil
	})
}

func printHistory(env *Env, data HistoryData) {
	out := env.Out
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Session"), data.SessionID)
	pdf := "none"
	if data.HasPDF {
		pdf = "attached"
	}
	fmt.Fprintf(out, "%s%s\n", RenderLabel("PDF"), pdf)
	fmt.Fprintln(out, RenderSeparator())
	if len(data.Turns) == 0 {
		fmt.Fprintln(out, DimStyle.Render("(no messages)"))
		return
	}
	for _, t := range data.Turns {
		fmt.Fprintf(out, "%s %s\n", roleLabel(t.Role)+":", t.Content)
	}
}

// exportHistory writes the backend's record of the session to path.
func exportHistory(ctx context.Context, env *Env, args Args, sess *auth.Session, path string) error {
	return OutputJSON(env.Out, args.JSON, "history", func() (interface{}, error) {
		h, err := env.Backend.History(ctx)
		if err != nil {
			return nil, err
		}
		t := export.FromHistory(h)
		t.User = fmt.Sprintf("%s <%s>", sess.User.Name, sess.User.Email)
		if err := export.WriteFile(t, path, nil); err != nil {
			if errors.Is(err, export.ErrUnsupportedFormat) {
				return nil, &ValidationError{Field: "export", Value: path, Reason: "file must end in .md or .json"}
			}
			return nil, NewCommandError("history", "export", path, err)
		}
		if !args.JSON && !args.Quiet {
			fmt.Fprintf(env.Out, "%s Exported %d messages to %s\n", RenderStatus("ok"), len(t.Entries), path)
		}
		return map[string]interface{}{"path": path, "messages": len(t.Entries)}, nil
	})
}
