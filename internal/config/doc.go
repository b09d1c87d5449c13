// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// chatbot client.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - BackendConfig: backend base URL, session id and request timeout
//   - StorageConfig: data directory and durable store backend
//   - ValidateErrors: every validation failure found in one pass
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATBOT_*)
//   - $CHATBOT_HOME/config.toml (default ~/.chatbot/config.toml)
//   - $CHATBOT_HOME/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.URL})
package config
