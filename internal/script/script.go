// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package script defines the vocabulary shared by every layer of the host:
// subroutine kinds, unit identity, hook names, and crash reporting.
package script

import "fmt"

// Kind identifies the lifecycle a subroutine participates in.
type Kind string

const (
	KindBehavior        Kind = "behavior"
	KindCollisionAction Kind = "collision_action"
	KindGenerator       Kind = "generator"
	KindInputAction     Kind = "input_action"
)

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBehavior, KindCollisionAction, KindGenerator, KindInputAction:
		return true
	}
	return false
}

// Hook names looked up on a loaded unit. Hooks are optional: a unit that
// does not define the hook for a dispatch path is a no-op on that path.
const (
	HookUpdate   = "on_update" // behavior: on_update(id, dt)
	HookExecute  = "execute"   // collision_action: execute(a, b, modifier)
	HookGenerate = "generate"  // generator: generate(id) -> value
	HookInput    = "on_input"  // input_action: on_input(id, x, y)
)

// HookFor returns the hook name a dispatch path looks up for the given kind.
func HookFor(kind Kind) string {
	switch kind {
	case KindBehavior:
		return HookUpdate
	case KindCollisionAction:
		return HookExecute
	case KindGenerator:
		return HookGenerate
	case KindInputAction:
		return HookInput
	}
	return ""
}

// UnitKey is the identity of a script unit. Re-loading the same key
// replaces the prior unit atomically.
type UnitKey struct {
	Kind Kind
	Name string
}

func (k UnitKey) String() string {
	return string(k.Kind) + ":" + k.Name
}

// Context builds the human-readable context tag reported with a crash,
// e.g. "behavior:gravity:on_update".
func Context(kind Kind, name, hook string) string {
	return fmt.Sprintf("%s:%s:%s", kind, name, hook)
}

// CrashInfo describes the first uncaught error raised by script execution.
// Once recorded it never changes for the lifetime of the host instance.
type CrashInfo struct {
	// Message is the interpreter's error text, verbatim. It is meant to be
	// shown to the content author who wrote the failing subroutine.
	Message string `json:"message"`
	// Context identifies the subroutine and hook that was executing,
	// e.g. "behavior:gravity:on_update" or "load:collision_action:damage".
	Context string `json:"context"`
}

func (c CrashInfo) Error() string {
	return fmt.Sprintf("script crash in %s: %s", c.Context, c.Message)
}
