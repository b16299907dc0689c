// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import (
	"fmt"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/world"
)

// env is the mutable state of one dispatch pass: the pass-start snapshot,
// the accumulating change-set, the local write overlay, and the spawn id
// counter. It is created empty at pass start and discarded at pass end.
type env struct {
	snap *world.Snapshot
	cs   *changeset.ChangeSet

	// overlay holds mutated copies of entity views, keyed by id. A write
	// copies the snapshot view on first touch, then mutates the copy.
	overlay map[string]*world.EntityView

	// live is the set of ids bound to the current hook invocation. Reads
	// on a live id consult the overlay first; reads on any other id see
	// the snapshot. This self-read-after-write vs. snapshot-read split is
	// a deliberate contract, not an oversight: the entity being updated
	// sees its own writes immediately, while queries and cross-entity
	// reads stay order-independent.
	live map[string]bool

	// spawned marks placeholder ids created by spawn() this pass. They
	// are readable and writable for the rest of the pass even though the
	// entity does not exist in canonical state until the change-set is
	// applied.
	spawned map[string]bool

	spawnSeq int
}

func newEnv(snap *world.Snapshot) *env {
	return &env{
		snap:    snap,
		cs:      changeset.New(),
		overlay: make(map[string]*world.EntityView),
		live:    make(map[string]bool),
		spawned: make(map[string]bool),
	}
}

func (e *env) setLive(ids ...string) {
	e.live = make(map[string]bool, len(ids))
	for _, id := range ids {
		e.live[id] = true
	}
}

// viewFor resolves a read of entity id. Live ids (the entity under
// dispatch, and anything spawned this pass) read through the overlay;
// everything else reads the snapshot. Returns nil for a missing entity:
// the caller answers with the documented zero value.
func (e *env) viewFor(id string) *world.EntityView {
	if e.live[id] || e.spawned[id] {
		if v, ok := e.overlay[id]; ok {
			return v
		}
	}
	return e.snap.ByID(id)
}

// write resolves a write to entity id, returning the overlay view to
// mirror into and the change-set patch to record into. ok is false when
// the id exists in neither the snapshot nor this pass's spawns; such
// writes are silently dropped — scripts must tolerate entities
// disappearing mid-frame.
func (e *env) write(id string) (view *world.EntityView, patch *changeset.EntityPatch, ok bool) {
	if v, found := e.overlay[id]; found {
		return v, e.cs.Patch(id), true
	}
	src := e.snap.ByID(id)
	if src == nil {
		if !e.spawned[id] {
			return nil, nil, false
		}
		// Spawned ids always have an overlay entry; reaching here means
		// the entry was never created, which is a host bug.
		panic(fmt.Sprintf("gameapi: spawned id %q has no overlay entry", id))
	}
	cp := *src
	if src.Props != nil {
		cp.Props = make(map[string]any, len(src.Props))
		for k, v := range src.Props {
			cp.Props[k] = v
		}
	}
	e.overlay[id] = &cp
	return &cp, e.cs.Patch(id), true
}

// addSpawn allocates the next placeholder id, records the spawn request,
// and seeds the overlay so the new id is readable within the same pass.
// Placeholder ids are unique for the lifetime of the pass: two spawns
// with identical arguments still get distinct ids.
func (e *env) addSpawn(req changeset.SpawnRequest) string {
	e.spawnSeq++
	id := fmt.Sprintf("spawn:%d", e.spawnSeq)
	req.ID = id
	e.cs.Spawns = append(e.cs.Spawns, req)
	e.spawned[id] = true
	e.overlay[id] = &world.EntityView{
		ID:      id,
		Type:    req.Type,
		X:       req.X,
		Y:       req.Y,
		VX:      req.VX,
		VY:      req.VY,
		Width:   req.Width,
		Height:  req.Height,
		Color:   req.Color,
		Sprite:  req.Sprite,
		Visible: true,
		Alive:   true,
	}
	return id
}
