// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package script

import "testing"

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{KindBehavior, KindCollisionAction, KindGenerator, KindInputAction} {
		if !k.Valid() {
			t.Errorf("%q.Valid() = false", k)
		}
	}
	for _, k := range []Kind{"", "sprite", "Behavior"} {
		if k.Valid() {
			t.Errorf("%q.Valid() = true", k)
		}
	}
}

func TestHookFor(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindBehavior, "on_update"},
		{KindCollisionAction, "execute"},
		{KindGenerator, "generate"},
		{KindInputAction, "on_input"},
		{Kind("bogus"), ""},
	}
	for _, tt := range tests {
		if got := HookFor(tt.kind); got != tt.want {
			t.Errorf("HookFor(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestUnitKey_String(t *testing.T) {
	key := UnitKey{Kind: KindBehavior, Name: "gravity"}
	if got := key.String(); got != "behavior:gravity" {
		t.Errorf("String() = %q", got)
	}
}

func TestCrashInfo_Error(t *testing.T) {
	info := CrashInfo{
		Message: "TypeError: undefined is not a function",
		Context: Context(KindBehavior, "gravity", HookUpdate),
	}
	want := "script crash in behavior:gravity:on_update: TypeError: undefined is not a function"
	if got := info.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
