// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of filesystem events (temp file, rename,
// WAL append) into one change signal.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes other processes make to a durable scope. Changes
// made by this process are reported too; receivers re-read state rather
// than trusting the signal.
type Watcher struct {
	fs       *fsnotify.Watcher
	names    map[string]bool
	debounce time.Duration
	changes  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
	once     sync.Once
}

// NewWatcher starts watching the files behind s.
func NewWatcher(s Watchable, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	dir, names := s.WatchTargets()
	if dir == "" {
		return nil, errors.New("store has no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		fs:       fsw,
		names:    make(map[string]bool, len(names)),
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   logger,
	}
	for _, n := range names {
		w.names[n] = true
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers at most one pending signal per debounce window.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher. The Changes channel is closed once the event loop
// has exited.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.names[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("STORAGE_WATCH_ERROR", zap.Error(err))
		}
	}
}
