package main

import (
	"sync"
	"time"
)

// TypingNotifier debounces keystrokes into typing_start/typing_stop
// emissions. The first keystroke of a burst emits a start; every
// keystroke resets the quiet timer; the timer firing (or an explicit
// Stop, e.g. on send) emits the stop. The server's expiry window is
// twice this interval, so a stop that gets lost still resolves.
type TypingNotifier struct {
	mu       sync.Mutex
	interval time.Duration
	emit     func(isTyping bool)
	active   bool
	timer    *time.Timer
}

func NewTypingNotifier(interval time.Duration, emit func(isTyping bool)) *TypingNotifier {
	return &TypingNotifier{interval: interval, emit: emit}
}

// Keystroke marks typing activity.
func (n *TypingNotifier) Keystroke() {
	n.mu.Lock()
	wasActive := n.active
	n.active = true
	if n.timer == nil {
		n.timer = time.AfterFunc(n.interval, n.timeout)
	} else {
		n.timer.Reset(n.interval)
	}
	n.mu.Unlock()

	if !wasActive {
		n.emit(true)
	}
}

// Stop ends the burst immediately. Idempotent.
func (n *TypingNotifier) Stop() {
	n.mu.Lock()
	wasActive := n.active
	n.active = false
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()

	if wasActive {
		n.emit(false)
	}
}

func (n *TypingNotifier) timeout() {
	n.mu.Lock()
	wasActive := n.active
	n.active = false
	n.mu.Unlock()

	if wasActive {
		n.emit(false)
	}
}
