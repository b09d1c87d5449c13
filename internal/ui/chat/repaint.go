// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

// DefaultRepaintFPS bounds stream repaints when no rate is configured.
const DefaultRepaintFPS = 30

// Repainter turns controller change notifications into StateChangedMsg,
// at most fps per second. A notification that arrives while the limit is
// exhausted schedules one trailing repaint so the final state is always
// drawn.
type Repainter struct {
	limiter *rate.Limiter
	send    func(tea.Msg)
	pending atomic.Bool
}

// NewRepainter creates a Repainter delivering messages through send,
// usually (*tea.Program).Send.
func NewRepainter(fps int, send func(tea.Msg)) *Repainter {
	if fps <= 0 {
		fps = DefaultRepaintFPS
	}
	return &Repainter{
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		send:    send,
	}
}

// Notify is safe to call from any goroutine.
func (r *Repainter) Notify() {
	if r.pending.Load() {
		return
	}
	if r.limiter.Allow() {
		r.send(StateChangedMsg{})
		return
	}
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	res := r.limiter.Reserve()
	time.AfterFunc(res.Delay(), func() {
		r.pending.Store(false)
		r.send(StateChangedMsg{})
	})
}
