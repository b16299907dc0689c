// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package health

import (
	"testing"

	"github.com/ams-games/scripthost/internal/script"
)

func TestTracker_StartsReady(t *testing.T) {
	tr := NewTracker()
	if got := tr.State(); got != Ready {
		t.Errorf("State() = %v, want Ready", got)
	}
	if tr.Crashed() {
		t.Error("Crashed() = true for fresh tracker")
	}
	if tr.LastCrash() != nil {
		t.Error("LastCrash() != nil for fresh tracker")
	}
}

func TestTracker_ReadyToRunning(t *testing.T) {
	tr := NewTracker()
	tr.MarkRunning()
	if got := tr.State(); got != Running {
		t.Errorf("State() = %v, want Running", got)
	}
}

func TestTracker_CrashIsTerminal(t *testing.T) {
	tr := NewTracker()
	tr.MarkRunning()
	tr.MarkCrashed(script.CrashInfo{Message: "boom", Context: "behavior:gravity:on_update"})

	if !tr.Crashed() {
		t.Fatal("Crashed() = false after MarkCrashed")
	}

	// No transition out of Crashed.
	tr.MarkRunning()
	if got := tr.State(); got != Crashed {
		t.Errorf("State() after MarkRunning on crashed tracker = %v, want Crashed", got)
	}
}

func TestTracker_FirstCrashWins(t *testing.T) {
	tr := NewTracker()
	tr.MarkRunning()
	tr.MarkCrashed(script.CrashInfo{Message: "first", Context: "behavior:a:on_update"})
	tr.MarkCrashed(script.CrashInfo{Message: "second", Context: "behavior:b:on_update"})

	info := tr.LastCrash()
	if info == nil {
		t.Fatal("LastCrash() = nil")
	}
	if info.Message != "first" {
		t.Errorf("LastCrash().Message = %q, want first", info.Message)
	}
	if info.Context != "behavior:a:on_update" {
		t.Errorf("LastCrash().Context = %q", info.Context)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Ready, "ready"},
		{Running, "running"},
		{Crashed, "crashed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
