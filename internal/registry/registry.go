// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package registry tracks loaded script units keyed by (kind, name).
//
// The registry is the only host state mutated from outside the per-frame
// call path, so it follows a copy-on-replace discipline: a load builds a
// new unit record and swaps the slot under the lock, and an in-flight
// lookup sees either the old or the new record in full, never a partial
// one.
//
// Loads may arrive before the interpreter has finished initializing (the
// boundary-synchronized variant brings its interpreter up asynchronously).
// Those loads are queued and replayed in arrival order the moment a loader
// is bound, so load order from the caller's perspective is preserved
// regardless of timing.
package registry

import (
	"sync"

	"github.com/ams-games/scripthost/internal/script"
)

// Unit is the registry's record of one loaded script unit. The compiled
// form stays resident inside the interpreter that loaded it; the registry
// only tracks identity, source, and revision.
type Unit struct {
	Key    script.UnitKey
	Source string
	// Rev counts replacements of this key, starting at 1. Reloading the
	// same key bumps the revision; entities referencing the unit by name
	// pick up the new revision on their next invocation.
	Rev int
}

// Loader installs a unit's source into an interpreter. A returned error is
// a compile error: recoverable, scoped to the one load call.
type Loader func(kind script.Kind, name, source string) error

// LoadFailure records a queued load that failed during replay.
type LoadFailure struct {
	Key script.UnitKey
	Err error
}

type pendingLoad struct {
	key    script.UnitKey
	source string
}

// Registry stores unit records and queues loads that arrive before a
// loader is bound. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	units   map[script.UnitKey]*Unit
	loader  Loader
	pending []pendingLoad
}

// New returns an empty, unbound registry.
func New() *Registry {
	return &Registry{units: make(map[script.UnitKey]*Unit)}
}

// Load compiles and stores source under (kind, name), replacing any prior
// unit with the same key. Before a loader is bound the call queues and
// returns nil; the load is replayed, in arrival order, when Bind runs.
func (r *Registry) Load(kind script.Kind, name, source string) error {
	key := script.UnitKey{Kind: kind, Name: name}

	r.mu.Lock()
	if r.loader == nil {
		r.pending = append(r.pending, pendingLoad{key: key, source: source})
		r.mu.Unlock()
		return nil
	}
	loader := r.loader
	r.mu.Unlock()

	if err := loader(kind, name, source); err != nil {
		return err
	}
	r.commit(key, source)
	return nil
}

// Bind installs the loader and replays queued loads in arrival order.
// Failures during replay are collected and returned; a failed replay does
// not stop later queued loads (each load is independently recoverable).
func (r *Registry) Bind(loader Loader) []LoadFailure {
	r.mu.Lock()
	r.loader = loader
	queued := r.pending
	r.pending = nil
	r.mu.Unlock()

	var failures []LoadFailure
	for _, p := range queued {
		if err := loader(p.key.Kind, p.key.Name, p.source); err != nil {
			failures = append(failures, LoadFailure{Key: p.key, Err: err})
			continue
		}
		r.commit(p.key, p.source)
	}
	return failures
}

// commit swaps in a fresh unit record for key.
func (r *Registry) commit(key script.UnitKey, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev := 1
	if prev, ok := r.units[key]; ok {
		rev = prev.Rev + 1
	}
	r.units[key] = &Unit{Key: key, Source: source, Rev: rev}
}

// Lookup returns the unit record for (kind, name). A missing unit is a
// normal, expected condition, not an error: behavior names in content may
// reference units that do not exist yet during authoring.
func (r *Registry) Lookup(kind script.Kind, name string) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[script.UnitKey{Kind: kind, Name: name}]
	return u, ok
}

// Units returns a copy of all unit records, for status reporting.
func (r *Registry) Units() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	return out
}

// Pending returns how many loads are queued waiting for a loader.
func (r *Registry) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}
