// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package health implements the host-wide execution health state machine.
//
// The machine has exactly three states and two legal transitions:
//
//	Ready -> Running    (interpreter initialization completed)
//	Running -> Crashed  (first uncaught script error)
//
// Crashed is terminal. There is deliberately no recovery transition:
// a script error indicates a logic bug that would otherwise corrupt world
// state silently, so the first one stops all future invocation host-wide.
package health

import (
	"sync"

	"github.com/ams-games/scripthost/internal/script"
)

// State is the current execution health of a host instance.
type State int

const (
	// Ready means the interpreter has not finished initializing.
	Ready State = iota
	// Running means the host is accepting invocations.
	Running
	// Crashed means a script raised an uncaught error. Terminal.
	Crashed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Crashed:
		return "crashed"
	}
	return "unknown"
}

// Tracker holds the health state for one host instance.
// Safe for concurrent use; dispatch paths read it on every entry.
type Tracker struct {
	mu    sync.RWMutex
	state State
	crash *script.CrashInfo
}

// NewTracker returns a tracker in the Ready state.
func NewTracker() *Tracker {
	return &Tracker{state: Ready}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// MarkRunning transitions Ready -> Running. It is a no-op in any other
// state; in particular it never resurrects a Crashed tracker.
func (t *Tracker) MarkRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Ready {
		t.state = Running
	}
}

// MarkCrashed records the first crash and transitions to Crashed.
// Later calls keep the original crash info: the first uncaught error is
// the one reported to the content author.
func (t *Tracker) MarkCrashed(info script.CrashInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Crashed {
		return
	}
	t.state = Crashed
	t.crash = &info
}

// Crashed reports whether the tracker is in the terminal state.
func (t *Tracker) Crashed() bool {
	return t.State() == Crashed
}

// LastCrash returns the recorded crash info, or nil if the host has not
// crashed.
func (t *Tracker) LastCrash() *script.CrashInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.crash == nil {
		return nil
	}
	c := *t.crash
	return &c
}
