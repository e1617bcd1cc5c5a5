package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitLog struct {
	mu    sync.Mutex
	flags []bool
}

func (e *emitLog) record(isTyping bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags = append(e.flags, isTyping)
}

func (e *emitLog) snapshot() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.flags...)
}

func TestTypingNotifier_BurstEmitsStartOnceThenStopAfterQuiet(t *testing.T) {
	log := &emitLog{}
	n := NewTypingNotifier(40*time.Millisecond, log.record)

	// A burst of keystrokes: one start, no flicker
	n.Keystroke()
	n.Keystroke()
	n.Keystroke()
	assert.Equal(t, []bool{true}, log.snapshot())

	// Quiet period elapses: exactly one stop
	require.Eventually(t, func() bool {
		flags := log.snapshot()
		return len(flags) == 2 && !flags[1]
	}, time.Second, 5*time.Millisecond)
}

func TestTypingNotifier_KeystrokeResetsQuietTimer(t *testing.T) {
	log := &emitLog{}
	n := NewTypingNotifier(60*time.Millisecond, log.record)

	n.Keystroke()
	time.Sleep(40 * time.Millisecond)
	n.Keystroke() // resets the timer
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, []bool{true}, log.snapshot(), "no stop while keystrokes keep coming")
	n.Stop()
}

func TestTypingNotifier_ExplicitStopIsImmediateAndIdempotent(t *testing.T) {
	log := &emitLog{}
	n := NewTypingNotifier(time.Minute, log.record)

	n.Keystroke()
	n.Stop()
	n.Stop()

	assert.Equal(t, []bool{true, false}, log.snapshot())

	// A new burst after a stop starts over
	n.Keystroke()
	assert.Equal(t, []bool{true, false, true}, log.snapshot())
	n.Stop()
}

func TestTypingNotifier_StopWithoutKeystrokeEmitsNothing(t *testing.T) {
	log := &emitLog{}
	n := NewTypingNotifier(time.Minute, log.record)

	n.Stop()
	assert.Empty(t, log.snapshot())
}
