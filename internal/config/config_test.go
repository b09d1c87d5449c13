// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points CHATBOT_HOME at a temp dir and clears overrides that a
// developer shell might export.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHATBOT_HOME", dir)
	for _, k := range []string{
		"CHATBOT_BACKEND_URL", "CHATBOT_SESSION_ID", "CHATBOT_DATA_DIR",
		"CHATBOT_STORAGE_BACKEND", "CHATBOT_LOG_LEVEL", "CHATBOT_REMEMBER_ME",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.SessionID != "default" {
		t.Errorf("Backend.SessionID = %q", cfg.Backend.SessionID)
	}
	if !cfg.Auth.RememberMeDefault {
		t.Error("remember me should default to on")
	}
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	content := `
[backend]
url = "http://chat.internal:9000/"
request_timeout_secs = 5

[auth]
remember_me_default = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "http://chat.internal:9000" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Backend.RequestTimeout())
	}
	if cfg.Auth.RememberMeDefault {
		t.Error("remember_me_default = false was not applied")
	}
	if cfg.Backend.SessionID != DefaultSessionID {
		t.Errorf("unset keys should keep defaults, SessionID = %q", cfg.Backend.SessionID)
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"storage":{"backend":"file"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[backend]\nsession_id = \"from-file\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATBOT_SESSION_ID", "from-env")
	t.Setenv("CHATBOT_REMEMBER_ME", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.SessionID != "from-env" {
		t.Errorf("SessionID = %q, want from-env", cfg.Backend.SessionID)
	}
	if cfg.Auth.RememberMeDefault {
		t.Error("CHATBOT_REMEMBER_ME=false was not applied")
	}
}

func TestLoad_InvalidFileFails(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[storage]\nbackend = \"redis\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %T: %v", err, err)
	}
	if verrs[0].Field != "storage.backend" {
		t.Errorf("Field = %q", verrs[0].Field)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "localhost:8000"
	cfg.Backend.SessionID = "a/b"
	cfg.Log.Level = "loud"
	cfg.UI.RepaintFPS = 0

	err := cfg.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %v", err)
	}
	if len(verrs) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(verrs), verrs)
	}
}

func TestSaveTOML_RoundTripsThroughLoad(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Backend.URL = "https://bot.example.com"
	cfg.UI.Markdown = false

	path := filepath.Join(dir, "config.toml")
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perm = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Backend.URL != "https://bot.example.com" || loaded.UI.Markdown {
		t.Errorf("saved values not restored: %+v", loaded.Backend)
	}
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("backend.session_id", "team"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("backend.request_timeout_secs", "30"); err != nil {
		t.Fatalf("Set int: %v", err)
	}
	if err := cfg.Set("ui.markdown", "false"); err != nil {
		t.Fatalf("Set bool: %v", err)
	}

	v, err := cfg.Get("backend.session_id")
	if err != nil || v != "team" {
		t.Errorf("Get = %v, %v", v, err)
	}
	if cfg.Backend.RequestTimeoutSecs != 30 || cfg.UI.Markdown {
		t.Errorf("typed Set failed: %+v %+v", cfg.Backend, cfg.UI)
	}

	if _, err := cfg.Get("backend.nope"); err == nil {
		t.Error("unknown key should fail")
	}
	if _, err := cfg.Get("backend"); err == nil {
		t.Error("section key should fail")
	}
	if err := cfg.Set("ui.markdown", "maybe"); err == nil {
		t.Error("bad bool should fail")
	}
}

func TestKeys_ListsLeafFields(t *testing.T) {
	keys := Keys()
	want := map[string]bool{"backend.url": false, "storage.backend": false, "ui.repaint_fps": false}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("Keys() missing %s", k)
		}
	}
}

func TestDataDir_DefaultsToConfigDir(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	got, err := cfg.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("DataDir = %q, want %q", got, dir)
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		t.Fatal(err)
	}
	if logPath != filepath.Join(dir, "chatbot.log") {
		t.Errorf("LogPath = %q", logPath)
	}
}

