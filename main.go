// chatbot - A terminal client for a PDF-aware GenAI chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/cli"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/ui/app"
	uichat "github.com/jeranaias/chatbot-tui/internal/ui/chat"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(cmd cli.Command, args cli.Args) error {
	// Commands that touch neither storage nor the backend.
	switch cmd {
	case cli.CmdVersion:
		return cli.HandleVersion(os.Stdout, args)
	case cli.CmdHelp:
		cli.HandleHelp(os.Stdout)
		return nil
	case cli.CmdUnknown:
		return cli.HandleUnknown(args)
	case cli.CmdConfig:
		return cli.HandleConfig(cli.NewConsole(), args)
	case cli.CmdDevServer:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.HandleDevServer(ctx, cli.NewConsole(), args)
	}

	env, err := cli.Bootstrap(args)
	if err != nil {
		return err
	}
	defer env.Close()

	// Line-mode chat installs its own per-reply interrupt handling.
	if cmd == cli.CmdChat {
		return cli.HandleChat(context.Background(), env, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdTUI:
		return runTUI(ctx, env)
	case cli.CmdLogin:
		return cli.HandleLogin(env, args)
	case cli.CmdSignup:
		return cli.HandleSignup(env, args)
	case cli.CmdLogout:
		return cli.HandleLogout(env, args)
	case cli.CmdWhoami:
		return cli.HandleWhoami(env, args)
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, env, args)
	case cli.CmdUpload:
		return cli.HandleUpload(ctx, env, args)
	case cli.CmdReset:
		return cli.HandleReset(ctx, env, args)
	case cli.CmdHistory:
		return cli.HandleHistory(ctx, env, args)
	case cli.CmdStatus:
		return cli.HandleStatus(ctx, env, args)
	default:
		return fmt.Errorf("unhandled command %s", cmd)
	}
}

// runTUI starts the full-screen interface and blocks until it exits.
func runTUI(ctx context.Context, env *cli.Env) error {
	cfg := env.Config
	logger := env.Logger.Named("tui")

	var changes <-chan struct{}
	if cfg.Storage.WatchSession {
		if w, ok := env.Durable.(storage.Watchable); ok {
			watcher, err := storage.NewWatcher(w, 0, logger)
			if err != nil {
				logger.Warn("STORAGE_WATCH_DISABLED", zap.Error(err))
			} else {
				defer watcher.Close()
				changes = watcher.Changes()
			}
		}
	}

	model := app.New(ctx, app.Options{
		Sessions:        env.Auth,
		Controller:      env.Chat,
		Theme:           styles.NewTheme(cfg.UI.Theme),
		Logger:          logger,
		RememberDefault: cfg.Auth.RememberMeDefault,
		Markdown:        cfg.UI.Markdown,
		StorageChanges:  changes,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse wheel scrolling
		tea.WithContext(ctx),
	)

	// Streaming tokens arrive off the UI goroutine; coalesce them into
	// repaints at the configured rate.
	repainter := uichat.NewRepainter(cfg.UI.RepaintFPS, p.Send)
	env.Chat.SetOnChange(repainter.Notify)
	defer env.Chat.SetOnChange(nil)

	logger.Info("TUI_START", zap.String("backend", cfg.Backend.URL))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}
	return nil
}
