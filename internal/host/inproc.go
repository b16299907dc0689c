// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package host

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/gameapi"
	"github.com/ams-games/scripthost/internal/health"
	"github.com/ams-games/scripthost/internal/registry"
	"github.com/ams-games/scripthost/internal/script"
	"github.com/ams-games/scripthost/internal/world"
)

// Options configures an in-process host.
type Options struct {
	// Seed initializes the deterministic PRNG behind game.random*. Two
	// host instances constructed with the same seed and given identical
	// load history and inputs produce byte-for-byte identical
	// change-sets.
	Seed int64

	// Output receives game.log() text. Nil discards it.
	Output func(string)

	// Logger receives host-side diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// InProc hosts the Goja interpreter in the caller's memory space.
//
// Script execution is a single logical thread: the mutex serializes
// loads, dispatch calls, and global injection against one interpreter
// instance. The interpreter is owned exclusively by this host; the
// compiled hook objects stay resident inside it and are referenced by
// (kind, name), never marshaled out.
type InProc struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	api    *gameapi.API
	reg    *registry.Registry
	health *health.Tracker
	units  map[script.UnitKey]*goja.Object
	log    *slog.Logger
}

// New constructs and initializes an in-process host. Initialization is
// synchronous: the returned host is already Running.
func New(opts Options) (*InProc, error) {
	h := &InProc{
		reg:    registry.New(),
		health: health.NewTracker(),
		units:  make(map[script.UnitKey]*goja.Object),
		log:    opts.Logger,
	}
	if h.log == nil {
		h.log = slog.Default()
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	api := gameapi.NewAPI(opts.Seed, opts.Output)
	if err := api.RegisterAll(vm); err != nil {
		// Registration errors are programming bugs, not runtime errors
		return nil, fmt.Errorf("failed to register game API: %w", err)
	}

	h.vm = vm
	h.api = api
	h.reg.Bind(h.installUnit)
	h.health.MarkRunning()
	return h, nil
}

// Registry exposes the unit registry for status reporting.
func (h *InProc) Registry() *registry.Registry { return h.reg }

// SetOutput replaces the game.log() sink.
func (h *InProc) SetOutput(fn func(string)) { h.api.SetOutput(fn) }

// Load compiles and installs a script unit. Compile errors come back as
// *LoadError and leave the host Running; an error thrown while the unit's
// top-level code executes crashes the host.
func (h *InProc) Load(kind script.Kind, name, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return ErrCrashed
	}
	return h.reg.Load(kind, name, source)
}

// installUnit is the registry loader: it evaluates the unit source inside
// the interpreter and stores the resulting hook object. The compiled unit
// never leaves the interpreter's memory.
func (h *InProc) installUnit(kind script.Kind, name, source string) error {
	key := script.UnitKey{Kind: kind, Name: name}

	prog, err := goja.Compile(key.String(), source, false)
	if err != nil {
		return &LoadError{Key: key, Msg: err.Error()}
	}

	result, err := h.vm.RunProgram(prog)
	if err != nil {
		// Top-level execution raised: this is a runtime error, not an
		// authoring mistake, and it crashes the host.
		info := crashInfo(err, script.Context(kind, name, "load"))
		h.health.MarkCrashed(info)
		h.log.Error("script crash during load", "context", info.Context, "error", info.Message)
		return info
	}

	obj, ok := result.(*goja.Object)
	if !ok {
		return &LoadError{Key: key, Msg: "unit source must evaluate to an object of hooks"}
	}

	// Copy-on-replace: the new hook object swaps in whole; an in-flight
	// lookup sees the old or the new unit, never a partial one.
	h.units[key] = obj
	return nil
}

// hook resolves the callable hook for (kind, name), if both the unit and
// the hook exist.
func (h *InProc) hook(kind script.Kind, name, hookName string) (goja.Callable, bool, bool) {
	obj, ok := h.units[script.UnitKey{Kind: kind, Name: name}]
	if !ok {
		return nil, false, false
	}
	fn, callable := goja.AssertFunction(obj.Get(hookName))
	return fn, true, callable
}

// RunFrame visits every live entity with attached behaviors, in snapshot
// order, and invokes each attached behavior's on_update hook. Mutation
// visibility to other entities is deferred to change-set application and
// queries are snapshot-consistent, so visitation order cannot affect
// observable results.
func (h *InProc) RunFrame(dt float64, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return changeset.New(), nil
	}

	dt = ClampDT(dt)
	h.api.BeginPass(snap)

	for i := range snap.Entities {
		ent := &snap.Entities[i]
		if !ent.Alive || len(ent.Behaviors) == 0 {
			continue
		}
		for _, behavior := range ent.Behaviors {
			fn, found, callable := h.hook(script.KindBehavior, behavior, script.HookUpdate)
			if !found || !callable {
				// Optional hooks and not-yet-loaded behaviors are
				// normal during authoring.
				continue
			}
			h.api.SetLive(ent.ID)
			if _, err := fn(goja.Undefined(), h.vm.ToValue(ent.ID), h.vm.ToValue(dt)); err != nil {
				h.crash(err, script.Context(script.KindBehavior, behavior, script.HookUpdate))
				return h.api.EndPass(), nil
			}
		}
	}
	return h.api.EndPass(), nil
}

// RunCollision invokes the named collision action's execute hook for the
// ordered pair (a, b). A missing unit or hook is reported so the owning
// simulation can log a content warning.
func (h *InProc) RunCollision(action, a, b string, modifier map[string]any, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return changeset.New(), nil
	}

	fn, found, callable := h.hook(script.KindCollisionAction, action, script.HookExecute)
	if !found {
		return changeset.New(), fmt.Errorf("collision action %q: %w", action, ErrUnknownUnit)
	}
	if !callable {
		return changeset.New(), fmt.Errorf("collision action %q: %w", action, ErrMissingHook)
	}

	h.api.BeginPass(snap)
	h.api.SetLive(a, b)

	var mod goja.Value = goja.Null()
	if modifier != nil {
		mod = h.vm.ToValue(modifier)
	}
	if _, err := fn(goja.Undefined(), h.vm.ToValue(a), h.vm.ToValue(b), mod); err != nil {
		h.crash(err, script.Context(script.KindCollisionAction, action, script.HookExecute))
	}
	return h.api.EndPass(), nil
}

// RunInput invokes the named input action's on_input hook for one entity
// at a pointer position.
func (h *InProc) RunInput(action, entityID string, x, y float64, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return changeset.New(), nil
	}

	fn, found, callable := h.hook(script.KindInputAction, action, script.HookInput)
	if !found {
		return changeset.New(), fmt.Errorf("input action %q: %w", action, ErrUnknownUnit)
	}
	if !callable {
		return changeset.New(), fmt.Errorf("input action %q: %w", action, ErrMissingHook)
	}

	h.api.BeginPass(snap)
	h.api.SetLive(entityID)

	if _, err := fn(goja.Undefined(), h.vm.ToValue(entityID), h.vm.ToValue(x), h.vm.ToValue(y)); err != nil {
		h.crash(err, script.Context(script.KindInputAction, action, script.HookInput))
	}
	return h.api.EndPass(), nil
}

// RunGenerator invokes the named generator's generate hook and returns
// the exported value alongside the change-set.
func (h *InProc) RunGenerator(name, entityID string, snap *world.Snapshot) (any, *changeset.ChangeSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return nil, changeset.New(), nil
	}

	fn, found, callable := h.hook(script.KindGenerator, name, script.HookGenerate)
	if !found {
		return nil, changeset.New(), fmt.Errorf("generator %q: %w", name, ErrUnknownUnit)
	}
	if !callable {
		return nil, changeset.New(), fmt.Errorf("generator %q: %w", name, ErrMissingHook)
	}

	h.api.BeginPass(snap)
	h.api.SetLive(entityID)

	result, err := fn(goja.Undefined(), h.vm.ToValue(entityID))
	if err != nil {
		h.crash(err, script.Context(script.KindGenerator, name, script.HookGenerate))
		return nil, h.api.EndPass(), nil
	}

	var value any
	if result != nil && !goja.IsUndefined(result) && !goja.IsNull(result) {
		value = result.Export()
	}
	return value, h.api.EndPass(), nil
}

// SetGlobal sets one named global value in the interpreter. No-op once
// crashed.
func (h *InProc) SetGlobal(name string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health.Crashed() {
		return ErrCrashed
	}
	return h.vm.Set(name, value)
}

// Crashed reports whether execution health is terminal.
func (h *InProc) Crashed() bool { return h.health.Crashed() }

// LastCrash returns the structured crash report, or nil.
func (h *InProc) LastCrash() *script.CrashInfo { return h.health.LastCrash() }

// Close interrupts any running script. The host must not be used after
// Close.
func (h *InProc) Close() error {
	h.vm.Interrupt("host closed")
	return nil
}

func (h *InProc) crash(err error, context string) {
	info := crashInfo(err, context)
	h.health.MarkCrashed(info)
	h.log.Error("script crash", "context", info.Context, "error", info.Message)
}

// crashInfo converts an interpreter error into the structured report the
// owning simulation presents verbatim to the content author.
func crashInfo(err error, context string) script.CrashInfo {
	msg := err.Error()
	if ex, ok := err.(*goja.Exception); ok {
		msg = ex.String()
	}
	return script.CrashInfo{Message: msg, Context: context}
}


// Compile-time interface check
var _ Host = (*InProc)(nil)
