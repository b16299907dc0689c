// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package world

import "testing"

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Entities: []EntityView{
			{ID: "turret", Type: "turret", Alive: true, Tags: []string{"enemy", "static"}},
			{ID: "barrel", Type: "part", Alive: true, ParentID: "turret"},
			{ID: "shield", Type: "part", Alive: true, ParentID: "turret"},
			{ID: "wreck", Type: "part", Alive: false, ParentID: "turret"},
		},
		Global: GlobalView{ScreenWidth: 800, ScreenHeight: 600},
	}
}

func TestSnapshot_ByID(t *testing.T) {
	snap := sampleSnapshot()
	if v := snap.ByID("turret"); v == nil || v.Type != "turret" {
		t.Errorf("ByID(turret) = %+v", v)
	}
	if v := snap.ByID("nope"); v != nil {
		t.Errorf("ByID(nope) = %+v, want nil", v)
	}
}

func TestSnapshot_ChildrenInSnapshotOrder(t *testing.T) {
	snap := sampleSnapshot()
	children := snap.Children("turret")
	want := []string{"barrel", "shield", "wreck"}
	if len(children) != len(want) {
		t.Fatalf("Children() = %v, want %v", children, want)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Errorf("Children()[%d] = %q, want %q", i, children[i], want[i])
		}
	}
	if got := snap.Children("barrel"); len(got) != 0 {
		t.Errorf("Children(leaf) = %v, want none", got)
	}
}

func TestEntityView_HasTag(t *testing.T) {
	e := &EntityView{Tags: []string{"enemy", "static"}}
	if !e.HasTag("enemy") {
		t.Error("HasTag(enemy) = false")
	}
	if e.HasTag("friendly") {
		t.Error("HasTag(friendly) = true")
	}
}
