// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package gameapi exposes the host capability surface to scripts running
// in the Goja runtime. This is the entire vocabulary available to script
// units; nothing outside it is reachable.
//
// Every capability is registered on a single global object named "game".
// Functions are organized into domain-specific files:
//   - api.go: core API struct, registration, pass environment, logging
//   - entity.go: entity field reads and writes
//   - props.go: free-form properties and per-behavior configuration
//   - queries.go: snapshot-consistent entity queries
//   - globals.go: screen dimensions, score, elapsed time
//   - events.go: sounds, scheduled callbacks, spawning
//   - links.go: parent/child links
//   - mathutil.go: trig, random, clamp
//
// Mutations never touch canonical state: writes are recorded into the
// pass's ChangeSet and mirrored into a local overlay so that the entity
// currently being dispatched sees its own writes immediately. Queries
// always read the pass-start snapshot, so results are independent of
// entity visitation order.
package gameapi

import (
	"fmt"
	"math/rand"

	"github.com/dop251/goja"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/world"
)

// Namespace is the name of the global object scripts call through.
const Namespace = "game"

// API provides the script-facing capability bindings for one host
// instance. It is bound to exactly one Goja runtime and is not safe for
// concurrent use; the host serializes all script execution.
type API struct {
	runtime *goja.Runtime
	output  func(string)
	rng     *rand.Rand

	env *env // non-nil only while a pass is executing
}

// NewAPI creates the capability surface. The rng seed must match between
// host variants for the determinism contract to hold. output receives
// game.log() text; nil discards it.
func NewAPI(seed int64, output func(string)) *API {
	if output == nil {
		output = func(string) {}
	}
	return &API{
		output: output,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SetOutput replaces the game.log() sink.
func (a *API) SetOutput(fn func(string)) {
	if fn == nil {
		fn = func(string) {}
	}
	a.output = fn
}

// RegisterAll registers the "game" namespace object on the runtime.
func (a *API) RegisterAll(vm *goja.Runtime) error {
	a.runtime = vm
	obj := vm.NewObject()

	groups := []struct {
		name string
		fns  map[string]func(goja.FunctionCall) goja.Value
	}{
		{"entity", a.entityFuncs()},
		{"props", a.propFuncs()},
		{"queries", a.queryFuncs()},
		{"globals", a.globalFuncs()},
		{"events", a.eventFuncs()},
		{"links", a.linkFuncs()},
		{"math", a.mathFuncs()},
	}
	for _, g := range groups {
		for name, fn := range g.fns {
			if err := obj.Set(name, fn); err != nil {
				return fmt.Errorf("failed to register game.%s (%s): %w", name, g.name, err)
			}
		}
	}
	if err := obj.Set("log", a.jsLog); err != nil {
		return fmt.Errorf("failed to register game.log: %w", err)
	}

	if err := vm.Set(Namespace, obj); err != nil {
		return fmt.Errorf("failed to register %s namespace: %w", Namespace, err)
	}
	return nil
}

// BeginPass installs a fresh pass environment over the given snapshot and
// returns the empty change-set it will fill. Must be balanced by EndPass.
func (a *API) BeginPass(snap *world.Snapshot) *changeset.ChangeSet {
	a.env = newEnv(snap)
	return a.env.cs
}

// EndPass tears down the pass environment and returns the accumulated
// change-set. The change-set is handed off wholesale; the API keeps no
// reference to it.
func (a *API) EndPass() *changeset.ChangeSet {
	if a.env == nil {
		return changeset.New()
	}
	cs := a.env.cs
	a.env = nil
	return cs
}

// SetLive declares which entity ids the next hook invocation is dispatched
// for. Self-reads on those ids see the pass's writes; reads on any other
// id see the snapshot.
func (a *API) SetLive(ids ...string) {
	if a.env != nil {
		a.env.setLive(ids...)
	}
}

// jsLog is the single debug-output call available to scripts.
func (a *API) jsLog(call goja.FunctionCall) goja.Value {
	args := make([]interface{}, len(call.Arguments))
	for i, arg := range call.Arguments {
		args[i] = arg.Export()
	}
	a.output(fmt.Sprint(args...))
	return goja.Undefined()
}

// throw raises a script-visible exception. Used only for calls that are
// unambiguously author errors (wrong arity); entity-not-found conditions
// never throw.
func (a *API) throw(msg string) {
	panic(a.runtime.ToValue(msg))
}

// requireArgs panics with a JS exception if the call has fewer than n
// arguments.
func (a *API) requireArgs(call goja.FunctionCall, n int, msg string) {
	if len(call.Arguments) < n {
		a.throw(msg)
	}
}

// pass returns the active environment, or panics with a script-visible
// error. Capability calls are only legal while a hook is executing.
func (a *API) pass() *env {
	if a.env == nil {
		a.throw("game API called outside a dispatch pass")
	}
	return a.env
}
