// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import "github.com/dop251/goja"

// propFuncs returns free-form property access and per-behavior
// configuration lookup.
func (a *API) propFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"get_prop":   a.jsGetProp,
		"set_prop":   a.jsSetProp,
		"get_config": a.jsGetConfig,
	}
}

// jsGetProp returns a named property value, or null when the property or
// the entity is missing. Property values are opaque to the host and
// persist across frames because the owning simulation round-trips them.
func (a *API) jsGetProp(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "get_prop(id, key) requires id and key")
	id := call.Arguments[0].String()
	key := call.Arguments[1].String()
	v := a.pass().viewFor(id)
	if v == nil || v.Props == nil {
		return goja.Null()
	}
	val, ok := v.Props[key]
	if !ok || val == nil {
		return goja.Null()
	}
	return a.runtime.ToValue(val)
}

// jsSetProp writes a named property. Setting then immediately getting the
// same key within one invocation returns the just-set value, even though
// the mutation is not visible to a different entity's reads in the same
// pass.
func (a *API) jsSetProp(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "set_prop(id, key, value) requires id, key, value")
	id := call.Arguments[0].String()
	key := call.Arguments[1].String()
	val := call.Arguments[2].Export()

	view, patch, ok := a.pass().write(id)
	if !ok {
		return goja.Undefined()
	}
	if view.Props == nil {
		view.Props = make(map[string]any)
	}
	view.Props[key] = val
	if patch.Props == nil {
		patch.Props = make(map[string]any)
	}
	patch.Props[key] = val
	return goja.Undefined()
}

// jsGetConfig reads authoring-time per-behavior configuration. Read-only:
// scripts never mutate configuration. Returns the supplied default when
// the entity, behavior, or key is missing.
func (a *API) jsGetConfig(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "get_config(id, behavior, key, default) requires id, behavior, key")
	id := call.Arguments[0].String()
	behavior := call.Arguments[1].String()
	key := call.Arguments[2].String()
	var def goja.Value = goja.Null()
	if len(call.Arguments) > 3 {
		def = call.Arguments[3]
	}

	v := a.pass().viewFor(id)
	if v == nil || v.Config == nil {
		return def
	}
	section, ok := v.Config[behavior]
	if !ok {
		return def
	}
	val, ok := section[key]
	if !ok || val == nil {
		return def
	}
	return a.runtime.ToValue(val)
}
