// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package changeset defines the mutation log produced by one dispatch pass.
//
// A ChangeSet is created empty at pass start, filled by the capability
// surface while hooks run, and handed off wholesale at pass end. The host
// never merges two passes' change-sets and never touches canonical state:
// applying the change-set is the owning simulation's job.
package changeset

import "encoding/json"

// EntityPatch is a sparse patch of one entity's fields. Only fields a
// script actually wrote are non-nil; nil means "unchanged".
type EntityPatch struct {
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	VX      *float64 `json:"vx,omitempty"`
	VY      *float64 `json:"vy,omitempty"`
	Sprite  *string  `json:"sprite,omitempty"`
	Color   *string  `json:"color,omitempty"`
	Health  *float64 `json:"health,omitempty"`
	Visible *bool    `json:"visible,omitempty"`
	Alive   *bool    `json:"alive,omitempty"`

	// Props holds written free-form properties. A key present with a nil
	// value clears the property.
	Props map[string]any `json:"props,omitempty"`

	// Parent link changes. Detached distinguishes "detach" from
	// "unchanged" (ParentID == nil, Detached == false).
	ParentID *string  `json:"parent_id,omitempty"`
	ParentOX *float64 `json:"parent_ox,omitempty"`
	ParentOY *float64 `json:"parent_oy,omitempty"`
	Detached bool     `json:"detached,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p *EntityPatch) Empty() bool {
	return p.X == nil && p.Y == nil && p.VX == nil && p.VY == nil &&
		p.Sprite == nil && p.Color == nil && p.Health == nil &&
		p.Visible == nil && p.Alive == nil && len(p.Props) == 0 &&
		p.ParentID == nil && p.ParentOX == nil && p.ParentOY == nil &&
		!p.Detached
}

// SpawnRequest asks the owning simulation to create a new entity when the
// change-set is applied. ID is the host-generated placeholder id, unique
// for the lifetime of the pass; other change-set entries may reference it
// (e.g. a patch attaching the not-yet-real entity as a child) and the
// applier resolves placeholders to real ids.
type SpawnRequest struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color,omitempty"`
	Sprite string  `json:"sprite,omitempty"`
}

// ScheduledCallback asks the owning simulation to invoke a named callback
// against an entity after a delay. The host records the request; it never
// schedules anything itself.
type ScheduledCallback struct {
	Delay    float64 `json:"delay"`
	Callback string  `json:"callback"`
	EntityID string  `json:"entity_id"`
}

// ChangeSet is the mutation log of one pass. Write-once: built during a
// single dispatch call, immutable after hand-off.
type ChangeSet struct {
	Entities  map[string]*EntityPatch `json:"entities,omitempty"`
	Spawns    []SpawnRequest          `json:"spawns,omitempty"`
	Sounds    []string                `json:"sounds,omitempty"`
	Callbacks []ScheduledCallback     `json:"callbacks,omitempty"`
	Score     float64                 `json:"score,omitempty"`
}

// New returns an empty change-set ready for one pass.
func New() *ChangeSet {
	return &ChangeSet{Entities: make(map[string]*EntityPatch)}
}

// Patch returns the patch record for id, creating it on first write.
func (c *ChangeSet) Patch(id string) *EntityPatch {
	if c.Entities == nil {
		c.Entities = make(map[string]*EntityPatch)
	}
	p, ok := c.Entities[id]
	if !ok {
		p = &EntityPatch{}
		c.Entities[id] = p
	}
	return p
}

// Empty reports whether the pass produced no mutations at all.
func (c *ChangeSet) Empty() bool {
	for _, p := range c.Entities {
		if !p.Empty() {
			return false
		}
	}
	return len(c.Spawns) == 0 && len(c.Sounds) == 0 &&
		len(c.Callbacks) == 0 && c.Score == 0
}

// Encode returns the canonical JSON encoding of the change-set. Map keys
// marshal in sorted order, so two change-sets with identical contents
// encode byte-for-byte identically regardless of write order. This is the
// representation the boundary protocol carries and the determinism tests
// compare.
func (c *ChangeSet) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Decode parses a change-set from its canonical encoding.
func Decode(data []byte) (*ChangeSet, error) {
	cs := New()
	if err := json.Unmarshal(data, cs); err != nil {
		return nil, err
	}
	if cs.Entities == nil {
		cs.Entities = make(map[string]*EntityPatch)
	}
	return cs, nil
}
