// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/devserver"
	"github.com/jeranaias/chatbot-tui/internal/logging"
)

// HandleDevServer runs the in-memory stand-in backend until ctx ends. It logs
// requests to stderr so the traffic of a client in another terminal can be
// watched.
func HandleDevServer(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	addr := p.FlagOrDefault("addr", devserver.DefaultAddr)

	delayMS, err := parseNonNegative(p, "delay")
	if err != nil {
		return err
	}

	lvl, err := logging.ParseLevel(p.FlagOrDefault("log-level", "info"))
	if err != nil {
		return &ValidationError{Field: "log-level", Value: p.Flag("log-level"), Reason: err.Error()}
	}
	logger := logging.NewWithWriter(env.Err, lvl, true).Named("devserver")
	defer func() { _ = logger.Sync() }()

	srv := devserver.New(devserver.Options{
		Logger:     logger,
		ChunkDelay: time.Duration(delayMS) * time.Millisecond,
	})

	if !args.Quiet {
		fmt.Fprintf(env.Out, "%s Dev backend on http://%s (Ctrl+C to stop)\n", RenderStatus("ok"), addr)
	}
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return NewCommandError("devserver", "listen", addr, err)
	}
	logger.Info("DEVSERVER_STOPPED", zap.String("addr", addr))
	return nil
}

func parseNonNegative(p *ArgParser, name string) (int, error) {
	if !p.HasFlag(name) {
		return 0, nil
	}
	n, err := p.FlagInt(name)
	if err != nil || n < 0 {
		return 0, &ValidationError{Field: name, Value: p.Flag(name), Reason: "must be a non-negative integer"}
	}
	return n, nil
}
