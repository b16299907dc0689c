// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package world defines the read-oriented projections of simulation state
// supplied to the host each pass. The owning simulation builds a fresh
// Snapshot per frame; the host never assumes views persist between passes.
package world

// EntityView is one entity's scriptable fields as of pass start.
//
// Views are ephemeral. Cross-frame state a script needs must live in Props,
// which the owning simulation round-trips verbatim between frames.
type EntityView struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Sprite  string  `json:"sprite,omitempty"`
	Color   string  `json:"color,omitempty"`
	Health  float64 `json:"health"`
	Visible bool    `json:"visible"`
	Alive   bool    `json:"alive"`

	// Props carries free-form named properties. Values are opaque to the
	// host and persist across frames.
	Props map[string]any `json:"props,omitempty"`

	// Behaviors lists attached behavior names in invocation order.
	Behaviors []string `json:"behaviors,omitempty"`

	// Config holds authoring-time per-behavior configuration, keyed by
	// behavior name. Read-only to scripts.
	Config map[string]map[string]any `json:"config,omitempty"`

	Tags []string `json:"tags,omitempty"`

	ParentID string  `json:"parent_id,omitempty"`
	ParentOX float64 `json:"parent_ox,omitempty"`
	ParentOY float64 `json:"parent_oy,omitempty"`
}

// HasTag reports whether the view carries the given tag.
func (e *EntityView) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GlobalView is the read-only global game state as of pass start.
type GlobalView struct {
	ScreenWidth  float64 `json:"screen_width"`
	ScreenHeight float64 `json:"screen_height"`
	Score        float64 `json:"score"`
	Elapsed      float64 `json:"elapsed"`
}

// Snapshot is everything the host may read during one pass.
type Snapshot struct {
	Entities []EntityView `json:"entities"`
	Global   GlobalView   `json:"global"`
}

// ByID returns the view for the given id, or nil if no such entity exists.
// Missing entities are a normal condition: scripts must tolerate entities
// disappearing mid-frame.
func (s *Snapshot) ByID(id string) *EntityView {
	for i := range s.Entities {
		if s.Entities[i].ID == id {
			return &s.Entities[i]
		}
	}
	return nil
}

// Children returns the ids of entities whose ParentID is id, in snapshot
// order.
func (s *Snapshot) Children(id string) []string {
	var out []string
	for i := range s.Entities {
		if s.Entities[i].ParentID == id {
			out = append(out, s.Entities[i].ID)
		}
	}
	return out
}
