// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command: session, backend and storage at a glance.
//
// Command: status
// Aliases: s
//
// Examples:
//   chatbot status
//   chatbot status --json
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/config"
)

// HandleStatus reports the current session and whether the backend answers.
// An unreachable backend is reported, not returned as an error.
func HandleStatus(ctx context.Context, env *Env, args Args) error {
	data := collectStatus(ctx, env)
	if args.JSON {
		return NewJSONResponse("status", data).Write(env.Out)
	}

	out := env.Out
	fmt.Fprintln(out, TitleStyle.Render("chatbot "+data.Version))
	fmt.Fprintln(out, RenderSeparator())

	if data.Session != nil {
		fmt.Fprintf(out, "%s%s %s <%s>\n", RenderLabel("User"), RenderStatus("ok"), data.Session.Name, data.Session.Email)
	} else {
		fmt.Fprintf(out, "%s%s not logged in\n", RenderLabel("User"), RenderStatus("warn"))
	}

	if data.Reachable {
		fmt.Fprintf(out, "%s%s %s\n", RenderLabel("Backend"), RenderStatus("ok"), data.BackendURL)
		if data.Health != "" {
			fmt.Fprintf(out, "%s%s\n", RenderLabel(""), DimStyle.Render(data.Health))
		}
	} else {
		fmt.Fprintf(out, "%s%s %s (unreachable)\n", RenderLabel("Backend"), RenderStatus("error"), data.BackendURL)
	}

	fmt.Fprintf(out, "%s%s\n", RenderLabel("Session ID"), data.SessionID)
	fmt.Fprintf(out, "%s%s in %s\n", RenderLabel("Storage"), data.Storage, data.DataDir)
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Config"), data.ConfigFile)
	return nil
}

func collectStatus(ctx context.Context, env *Env) StatusData {
	data := StatusData{
		Version:    Version,
		BackendURL: env.Backend.BaseURL(),
		SessionID:  env.Backend.SessionID(),
		Storage:    env.Config.Storage.Backend,
		DataDir:    env.DataDir,
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		data.ConfigFile = path
	}

	if sess, err := env.Auth.Current(); err == nil {
		sd := sessionData(sess)
		data.Session = &sd
	}

	health, err := env.Backend.Health(ctx)
	if err != nil {
		env.Logger.Debug("HEALTH_CHECK_FAILED", zap.Error(err))
		return data
	}
	data.Reachable = true
	data.Health = health.Message
	return data
}
