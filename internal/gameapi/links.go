// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import "github.com/dop251/goja"

// linkFuncs returns parent/child link access. Parent reads follow the
// self-read overlay; child listing is a snapshot query.
func (a *API) linkFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"get_parent":   a.jsGetParent,
		"has_parent":   a.jsHasParent,
		"get_children": a.jsGetChildren,
		"set_parent":   a.jsSetParent,
		"detach":       a.jsDetach,
	}
}

func (a *API) jsGetParent(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_parent(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.ParentID)
	}
	return a.runtime.ToValue("")
}

func (a *API) jsHasParent(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "has_parent(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.ParentID != "")
	}
	return a.runtime.ToValue(false)
}

func (a *API) jsGetChildren(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_children(id) requires an entity id")
	id := call.Arguments[0].String()
	children := a.pass().snap.Children(id)
	if children == nil {
		children = []string{}
	}
	return a.runtime.ToValue(children)
}

// jsSetParent attaches child to parent with a positional offset.
// set_parent(child, parent, ox, oy). The child may be a spawn placeholder
// from the same pass.
func (a *API) jsSetParent(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_parent(child, parent, ox?, oy?) requires child and parent ids")
	child := call.Arguments[0].String()
	parent := call.Arguments[1].String()
	var ox, oy float64
	if len(call.Arguments) > 2 {
		ox = call.Arguments[2].ToFloat()
	}
	if len(call.Arguments) > 3 {
		oy = call.Arguments[3].ToFloat()
	}

	if view, patch, ok := a.pass().write(child); ok {
		view.ParentID = parent
		view.ParentOX, view.ParentOY = ox, oy
		patch.ParentID = &parent
		patch.ParentOX, patch.ParentOY = &ox, &oy
		patch.Detached = false
	}
	return goja.Undefined()
}

func (a *API) jsDetach(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "detach(id) requires an entity id")
	id := call.Arguments[0].String()
	if view, patch, ok := a.pass().write(id); ok {
		view.ParentID = ""
		view.ParentOX, view.ParentOY = 0, 0
		patch.ParentID = nil
		patch.ParentOX, patch.ParentOY = nil, nil
		patch.Detached = true
	}
	return goja.Undefined()
}
