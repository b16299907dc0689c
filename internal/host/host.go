// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package host defines the scripting host contract and its in-process
// implementation.
//
// A Host drives per-entity script execution for the owning simulation:
// one call in, one change-set out, regardless of whether the interpreter
// shares memory with the caller (InProc) or runs in an isolated
// environment reached through message passing (boundary.RemoteHost).
// Both implementations present the identical behavioral contract: same
// capability surface, same per-frame semantics, same failure behavior,
// and the same determinism guarantees given identical inputs.
package host

import (
	"errors"
	"fmt"
	"math"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/script"
	"github.com/ams-games/scripthost/internal/world"
)

// Host is the contract the owning simulation programs against.
//
// Dispatch calls (RunFrame, RunCollision, RunInput, RunGenerator) never
// return an error for script crashes: a crash is recorded in execution
// health and the call returns whatever change-set had accumulated. Once
// crashed, every dispatch call returns an empty change-set without
// attempting invocation. Errors signal caller-side problems: unknown
// collision/input/generator names (content bugs worth a warning) or, for
// the remote variant, transport failures.
type Host interface {
	// Load compiles source and stores it under (kind, name), replacing
	// any existing unit atomically. A compile error is recoverable and
	// scoped to this call; an error thrown by the unit's top-level code
	// crashes the host.
	Load(kind script.Kind, name, source string) error

	// RunFrame invokes on_update for every live entity's attached
	// behaviors and returns the accumulated change-set.
	RunFrame(dt float64, snap *world.Snapshot) (*changeset.ChangeSet, error)

	// RunCollision invokes the named collision action for the ordered
	// pair (a, b) with an optional opaque modifier payload.
	RunCollision(action, a, b string, modifier map[string]any, snap *world.Snapshot) (*changeset.ChangeSet, error)

	// RunInput invokes the named input action for one entity at a
	// pointer position.
	RunInput(action, entityID string, x, y float64, snap *world.Snapshot) (*changeset.ChangeSet, error)

	// RunGenerator invokes the named generator for one entity and
	// returns the generated value alongside the change-set.
	RunGenerator(name, entityID string, snap *world.Snapshot) (any, *changeset.ChangeSet, error)

	// SetGlobal sets a single named global value in the interpreter.
	// Idempotent; intended for scalar configuration.
	SetGlobal(name string, value any) error

	// Crashed reports whether execution health is in the terminal state.
	Crashed() bool

	// LastCrash returns the structured crash report, or nil.
	LastCrash() *script.CrashInfo

	// Close releases the host. The host must not be used afterwards.
	Close() error
}

// Sentinel errors surfaced by dispatch calls. The owning simulation is
// expected to log these as content warnings, not to crash on them.
var (
	// ErrUnknownUnit is returned when a collision action, input action,
	// or generator name resolves to no loaded unit. A typo in content
	// data is more likely than a normal authoring-in-progress state.
	ErrUnknownUnit = errors.New("no unit loaded under that name")

	// ErrMissingHook is returned when the unit exists but does not
	// implement the hook for this dispatch path.
	ErrMissingHook = errors.New("unit does not implement the hook")

	// ErrCrashed is returned by Load and SetGlobal once the host is in
	// the terminal Crashed state.
	ErrCrashed = errors.New("host has crashed and refuses script execution")
)

// LoadError reports a compile failure. Recoverable: the host stays
// Running and the prior unit under the same key, if any, is kept.
type LoadError struct {
	Key script.UnitKey
	Msg string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.Key, e.Msg)
}

// FallbackDT replaces a non-finite or negative caller-supplied dt.
// Propagating NaN or infinity into script arithmetic is a common source
// of unrecoverable corruption in the embedded interpreter, so invalid
// input is corrected locally instead of surfaced as a failure.
const FallbackDT = 1.0 / 60.0

// ClampDT replaces an invalid dt with FallbackDT. Every Host
// implementation applies it before dispatch, so a bad frame delta never
// reaches a script or the wire.
func ClampDT(dt float64) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return FallbackDT
	}
	return dt
}
