// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for chatbot.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value and save
//   keys                List every key
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   chatbot config set backend.url http://chat.internal:8000
//   chatbot config set auth.remember_me_default false
//   chatbot config set ui.theme light
//   chatbot config get storage.backend
//   chatbot config show --json
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/chatbot-tui/internal/config"
)

// HandleConfig handles the "config" command. It only needs In, Out and Err
// from env, so it works when storage cannot be opened.
func HandleConfig(env *Env, args Args) error {
	p := NewArgParser(args.Raw, "confirm")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		return handleConfigShow(env, args)
	case "get":
		return handleConfigGet(env, args, p.Positional(1))
	case "set":
		return handleConfigSet(env, args, p.Positional(1), JoinPositionalArgs(p, 2))
	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(env.Out, k)
		}
		return nil
	case "reset":
		return handleConfigReset(env, args, p.BoolFlag("confirm"))
	case "path":
		return handleConfigPath(env, args)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown config subcommand",
			Example: "chatbot config show|get|set|keys|reset|path",
		}
	}
}

func configPath(args Args) (string, error) {
	if args.ConfigFile != "" {
		return args.ConfigFile, nil
	}
	return config.ConfigPathTOML()
}

// loadForEdit loads the file that set and reset will write back. A missing
// file starts from defaults.
func loadForEdit(args Args) (*config.Config, string, error) {
	path, err := configPath(args)
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), path, nil
	}
	cfg, err := config.LoadFromPath(path)
	return cfg, path, err
}

func handleConfigShow(env *Env, args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", cfg).Write(env.Out)
	}

	section := ""
	for _, key := range config.Keys() {
		head, _, _ := strings.Cut(key, ".")
		if head != section {
			if section != "" {
				fmt.Fprintln(env.Out)
			}
			fmt.Fprintln(env.Out, TitleStyle.Render("["+head+"]"))
			section = head
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%s %s\n", LabelStyle.Width(28).Render(key), formatConfigValue(v))
	}
	return nil
}

func formatConfigValue(v interface{}) string {
	if s, ok := v.(string); ok && s == "" {
		return DimStyle.Render("(not set)")
	}
	return ValueStyle.Render(fmt.Sprint(v))
}

func handleConfigGet(env *Env, args Args, key string) error {
	if key == "" {
		return ErrMissingArgument("key", "chatbot config get backend.url")
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(strings.ToLower(key))
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: key}
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{key: v}).Write(env.Out)
	}
	fmt.Fprintln(env.Out, v)
	return nil
}

func handleConfigSet(env *Env, args Args, key, value string) error {
	if key == "" {
		return ErrMissingArgument("key", "chatbot config set <key> <value>")
	}
	if value == "" {
		return ErrMissingArgument("value", fmt.Sprintf("chatbot config set %s <value>", key))
	}

	cfg, path, err := loadForEdit(args)
	if err != nil {
		return err
	}
	key = strings.ToLower(key)
	var typed interface{} = value
	if cur, err := cfg.Get(key); err == nil {
		if _, isBool := cur.(bool); isBool {
			b, err := ParseBoolString(value)
			if err != nil {
				return &ValidationError{Field: key, Value: value, Reason: err.Error()}
			}
			typed = b
		}
	}
	if err := cfg.Set(key, typed); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{"key": key, "value": value, "path": path}).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s = %s\n", RenderStatus("ok"), key, value)
	return nil
}

func handleConfigReset(env *Env, args Args, confirmFlag bool) error {
	confirmed, err := env.RequireConfirmation("Reset the configuration file to defaults?", ConfirmationOptions{
		ConfirmFlag: confirmFlag,
		JSONMode:    args.JSON,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		env.ShowCancellationMessage()
		return nil
	}

	path, err := configPath(args)
	if err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s Configuration reset to defaults.\n", RenderStatus("ok"))
	return nil
}

func handleConfigPath(env *Env, args Args) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	if args.JSON {
		_, statErr := os.Stat(path)
		return NewJSONResponse("config", map[string]interface{}{
			"path":   path,
			"exists": statErr == nil,
		}).Write(env.Out)
	}
	fmt.Fprintln(env.Out, path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(env.Err, "%s file does not exist; 'config set' creates it\n", DimStyle.Render("Note:"))
	}
	return nil
}
