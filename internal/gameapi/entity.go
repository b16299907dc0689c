// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import "github.com/dop251/goja"

// entityFuncs returns the entity field accessors.
//
// Reads on a non-existent id return the documented zero value (0, "",
// false); writes on a non-existent id are silently dropped. Size is
// read-only.
func (a *API) entityFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"get_x":       a.jsGetX,
		"get_y":       a.jsGetY,
		"set_pos":     a.jsSetPos,
		"get_vx":      a.jsGetVX,
		"get_vy":      a.jsGetVY,
		"set_vel":     a.jsSetVel,
		"get_width":   a.jsGetWidth,
		"get_height":  a.jsGetHeight,
		"get_sprite":  a.jsGetSprite,
		"set_sprite":  a.jsSetSprite,
		"get_color":   a.jsGetColor,
		"set_color":   a.jsSetColor,
		"get_health":  a.jsGetHealth,
		"set_health":  a.jsSetHealth,
		"is_visible":  a.jsIsVisible,
		"set_visible": a.jsSetVisible,
		"is_alive":    a.jsIsAlive,
		"set_alive":   a.jsSetAlive,
	}
}

func (a *API) jsGetX(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_x(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.X)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsGetY(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_y(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Y)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsSetPos(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "set_pos(id, x, y) requires id, x, y")
	id := call.Arguments[0].String()
	x := call.Arguments[1].ToFloat()
	y := call.Arguments[2].ToFloat()
	if view, patch, ok := a.pass().write(id); ok {
		view.X, view.Y = x, y
		patch.X, patch.Y = &x, &y
	}
	return goja.Undefined()
}

func (a *API) jsGetVX(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_vx(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.VX)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsGetVY(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_vy(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.VY)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsSetVel(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "set_vel(id, vx, vy) requires id, vx, vy")
	id := call.Arguments[0].String()
	vx := call.Arguments[1].ToFloat()
	vy := call.Arguments[2].ToFloat()
	if view, patch, ok := a.pass().write(id); ok {
		view.VX, view.VY = vx, vy
		patch.VX, patch.VY = &vx, &vy
	}
	return goja.Undefined()
}

func (a *API) jsGetWidth(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_width(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Width)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsGetHeight(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_height(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Height)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsGetSprite(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_sprite(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Sprite)
	}
	return a.runtime.ToValue("")
}

func (a *API) jsSetSprite(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_sprite(id, name) requires id and sprite name")
	id := call.Arguments[0].String()
	name := call.Arguments[1].String()
	if view, patch, ok := a.pass().write(id); ok {
		view.Sprite = name
		patch.Sprite = &name
	}
	return goja.Undefined()
}

func (a *API) jsGetColor(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_color(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Color)
	}
	return a.runtime.ToValue("")
}

func (a *API) jsSetColor(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_color(id, name) requires id and color name")
	id := call.Arguments[0].String()
	name := call.Arguments[1].String()
	if view, patch, ok := a.pass().write(id); ok {
		view.Color = name
		patch.Color = &name
	}
	return goja.Undefined()
}

func (a *API) jsGetHealth(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "get_health(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Health)
	}
	return a.runtime.ToValue(0.0)
}

func (a *API) jsSetHealth(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_health(id, value) requires id and value")
	id := call.Arguments[0].String()
	h := call.Arguments[1].ToFloat()
	if view, patch, ok := a.pass().write(id); ok {
		view.Health = h
		patch.Health = &h
	}
	return goja.Undefined()
}

func (a *API) jsIsVisible(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "is_visible(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Visible)
	}
	return a.runtime.ToValue(false)
}

func (a *API) jsSetVisible(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_visible(id, flag) requires id and flag")
	id := call.Arguments[0].String()
	vis := call.Arguments[1].ToBoolean()
	if view, patch, ok := a.pass().write(id); ok {
		view.Visible = vis
		patch.Visible = &vis
	}
	return goja.Undefined()
}

func (a *API) jsIsAlive(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "is_alive(id) requires an entity id")
	if v := a.pass().viewFor(call.Arguments[0].String()); v != nil {
		return a.runtime.ToValue(v.Alive)
	}
	return a.runtime.ToValue(false)
}

func (a *API) jsSetAlive(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "set_alive(id, flag) requires id and flag")
	id := call.Arguments[0].String()
	alive := call.Arguments[1].ToBoolean()
	if view, patch, ok := a.pass().write(id); ok {
		view.Alive = alive
		patch.Alive = &alive
	}
	return goja.Undefined()
}
