// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import (
	"github.com/dop251/goja"

	"github.com/ams-games/scripthost/internal/changeset"
)

// eventFuncs returns the append-only event capabilities. Sounds and
// scheduled callbacks go into the change-set; the owning simulation, not
// this host, performs the actual playback or scheduling.
func (a *API) eventFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"play_sound": a.jsPlaySound,
		"schedule":   a.jsSchedule,
		"spawn":      a.jsSpawn,
	}
}

func (a *API) jsPlaySound(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "play_sound(name) requires a sound name")
	e := a.pass()
	e.cs.Sounds = append(e.cs.Sounds, call.Arguments[0].String())
	return goja.Undefined()
}

func (a *API) jsSchedule(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "schedule(delay, callback, id) requires delay, callback name, entity id")
	e := a.pass()
	e.cs.Callbacks = append(e.cs.Callbacks, changeset.ScheduledCallback{
		Delay:    call.Arguments[0].ToFloat(),
		Callback: call.Arguments[1].String(),
		EntityID: call.Arguments[2].String(),
	})
	return goja.Undefined()
}

// jsSpawn requests a new entity and returns its placeholder id. The id is
// unique for the lifetime of the pass and usable within the same pass to
// reference the not-yet-real entity, e.g. to attach it as a child.
// spawn(type, x, y, vx, vy, width, height, color, sprite)
func (a *API) jsSpawn(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 7, "spawn(type, x, y, vx, vy, width, height, color?, sprite?) requires at least 7 arguments")
	req := changeset.SpawnRequest{
		Type:   call.Arguments[0].String(),
		X:      call.Arguments[1].ToFloat(),
		Y:      call.Arguments[2].ToFloat(),
		VX:     call.Arguments[3].ToFloat(),
		VY:     call.Arguments[4].ToFloat(),
		Width:  call.Arguments[5].ToFloat(),
		Height: call.Arguments[6].ToFloat(),
	}
	if len(call.Arguments) > 7 {
		req.Color = call.Arguments[7].String()
	}
	if len(call.Arguments) > 8 {
		req.Sprite = call.Arguments[8].String()
	}
	id := a.pass().addSpawn(req)
	return a.runtime.ToValue(id)
}
