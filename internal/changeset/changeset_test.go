// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package changeset

import (
	"bytes"
	"testing"
)

func TestChangeSet_EmptyIsEmpty(t *testing.T) {
	cs := New()
	if !cs.Empty() {
		t.Error("New().Empty() = false")
	}
	if cs.Entities == nil {
		t.Error("New().Entities is nil")
	}
}

func TestChangeSet_PatchReturnsSameInstance(t *testing.T) {
	cs := New()
	p1 := cs.Patch("player")
	p2 := cs.Patch("player")
	if p1 != p2 {
		t.Error("Patch() returned different instances for the same id")
	}
	if len(cs.Entities) != 1 {
		t.Errorf("Entities = %d, want 1", len(cs.Entities))
	}
}

func TestChangeSet_EmptyConsidersAllFields(t *testing.T) {
	tests := []struct {
		name  string
		build func(*ChangeSet)
	}{
		{"patch", func(cs *ChangeSet) {
			x := 1.0
			cs.Patch("e").X = &x
		}},
		{"spawn", func(cs *ChangeSet) {
			cs.Spawns = append(cs.Spawns, SpawnRequest{ID: "spawn:1", Type: "bullet"})
		}},
		{"sound", func(cs *ChangeSet) {
			cs.Sounds = append(cs.Sounds, "pew")
		}},
		{"callback", func(cs *ChangeSet) {
			cs.Callbacks = append(cs.Callbacks, ScheduledCallback{Delay: 1, Callback: "respawn", EntityID: "e"})
		}},
		{"score", func(cs *ChangeSet) {
			cs.Score = 5
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := New()
			tt.build(cs)
			if cs.Empty() {
				t.Error("Empty() = true after mutation")
			}
		})
	}
}

// Two change-sets built through different code paths but holding the same
// content must encode to identical bytes. Map key ordering is the
// dangerous part; encoding/json sorts keys, and this test pins that.
func TestChangeSet_EncodeIsCanonical(t *testing.T) {
	build := func(order []string) *ChangeSet {
		cs := New()
		for _, id := range order {
			x := 1.5
			p := cs.Patch(id)
			p.X = &x
			p.Props = map[string]any{"zeta": 1.0, "alpha": "v"}
		}
		return cs
	}

	a, err := build([]string{"e1", "e2", "e3"}).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b, err := build([]string{"e3", "e1", "e2"}).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("encodings differ:\n%s\n%s", a, b)
	}
}

func TestChangeSet_DecodeEncodeRoundTripsBytes(t *testing.T) {
	cs := New()
	x, alive := 10.25, false
	p := cs.Patch("enemy-1")
	p.X = &x
	p.Alive = &alive
	p.Props = map[string]any{"hits": 3.0}
	cs.Spawns = append(cs.Spawns, SpawnRequest{
		ID: "spawn:1", Type: "explosion", X: 10, Y: 20, Width: 16, Height: 16,
	})
	cs.Sounds = []string{"boom"}
	cs.Score = 100

	first, err := cs.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := decoded.Encode()
	if err != nil {
		t.Fatalf("re-Encode() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip changed bytes:\n%s\n%s", first, second)
	}
}

func TestEntityPatch_Empty(t *testing.T) {
	p := &EntityPatch{}
	if !p.Empty() {
		t.Error("zero patch Empty() = false")
	}
	v := true
	p.Visible = &v
	if p.Empty() {
		t.Error("patch with Visible set Empty() = true")
	}

	detached := &EntityPatch{Detached: true}
	if detached.Empty() {
		t.Error("detached patch Empty() = true")
	}
}
