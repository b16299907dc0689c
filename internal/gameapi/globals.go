// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import "github.com/dop251/goja"

// globalFuncs returns global game state access: screen dimensions and
// elapsed time are read-only; score supports additive writes only.
func (a *API) globalFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"screen_width":  a.jsScreenWidth,
		"screen_height": a.jsScreenHeight,
		"get_score":     a.jsGetScore,
		"add_score":     a.jsAddScore,
		"elapsed_time":  a.jsElapsedTime,
	}
}

func (a *API) jsScreenWidth(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.pass().snap.Global.ScreenWidth)
}

func (a *API) jsScreenHeight(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.pass().snap.Global.ScreenHeight)
}

// jsGetScore returns the snapshot score plus this pass's accumulated
// delta. Score reads are live within a pass, matching the entity
// self-read-after-write contract.
func (a *API) jsGetScore(call goja.FunctionCall) goja.Value {
	e := a.pass()
	return a.runtime.ToValue(e.snap.Global.Score + e.cs.Score)
}

func (a *API) jsAddScore(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "add_score(delta) requires a number")
	a.pass().cs.Score += call.Arguments[0].ToFloat()
	return goja.Undefined()
}

func (a *API) jsElapsedTime(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.pass().snap.Global.Elapsed)
}
