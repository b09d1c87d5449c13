// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of
// chatbot.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed global flags plus the arguments after the command word
//   - Env: Configuration, logger, stores, auth manager, backend client and
//     chat controller wired together by Bootstrap
//
// # Usage
//
//	cmd, args := cli.Parse()
//	env, err := cli.Bootstrap(args)
//	if err != nil { ... }
//	defer env.Close()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	// ... other commands
//	}
//
// Handlers return errors and never exit; GetExitCode maps an error to the
// process exit code and DisplayError prints it.
//
// Commands that reach the backend require a logged-in session, the same
// session the full-screen UI uses.
package cli
