// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// Well-known keys. The values are JSON blobs whose layout is owned by the
// auth package.
const (
	// SessionKey holds the active session record.
	SessionKey = "chatbot_session"

	// UsersKey holds the array of registered users.
	UsersKey = "chatbot_users"
)

// Durable backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Errors
var (
	// ErrInvalidKey is returned for keys outside [A-Za-z0-9_.-] or empty keys.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage closed")
)

// Scope is a string key/value area. A durable scope survives restarts; the
// tab scope lives only as long as the process.
//
// Get on a missing key reports ok=false with a nil error. Remove on a missing
// key is not an error.
type Scope interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Watchable is implemented by durable scopes backed by files that other
// processes may change.
type Watchable interface {
	// WatchTargets returns the directory to watch and the base names of
	// the files inside it that carry the store's state.
	WatchTargets() (dir string, names []string)
}

// OpenDurable opens the durable scope selected by backend inside dir.
func OpenDurable(backend, dir string) (Scope, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(filepath.Join(dir, "storage.db"))
	case BackendFile:
		return NewFileStore(filepath.Join(dir, "store"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// GetJSON loads key from s and decodes it into v. It reports false when the
// key is absent.
func GetJSON(s Scope, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s Scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return ErrInvalidKey
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
