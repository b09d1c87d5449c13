// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRepainter_CoalescesBursts(t *testing.T) {
	var sent int32
	r := NewRepainter(10, func(tea.Msg) { atomic.AddInt32(&sent, 1) })

	for i := 0; i < 100; i++ {
		r.Notify()
	}

	// One immediate send plus at most one trailing send.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&sent) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := atomic.LoadInt32(&sent); got != 2 {
		t.Fatalf("sent %d repaints for a burst, want 2", got)
	}
}

func TestRepainter_DefaultRate(t *testing.T) {
	r := NewRepainter(0, func(tea.Msg) {})
	if r.limiter.Limit() != DefaultRepaintFPS {
		t.Errorf("limit = %v, want %d", r.limiter.Limit(), DefaultRepaintFPS)
	}
}
