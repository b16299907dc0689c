// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import (
	"math"

	"github.com/dop251/goja"
)

// mathFuncs returns the pure math helpers. These have no side effects on
// the change-set and run natively. The random helpers draw from the
// host's seeded generator, so two hosts constructed with the same seed
// produce identical sequences.
func (a *API) mathFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"sin":          a.jsSin,
		"cos":          a.jsCos,
		"atan2":        a.jsAtan2,
		"sqrt":         a.jsSqrt,
		"clamp":        a.jsClamp,
		"random":       a.jsRandom,
		"random_range": a.jsRandomRange,
	}
}

func (a *API) jsSin(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "sin(x) requires a number")
	return a.runtime.ToValue(math.Sin(call.Arguments[0].ToFloat()))
}

func (a *API) jsCos(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "cos(x) requires a number")
	return a.runtime.ToValue(math.Cos(call.Arguments[0].ToFloat()))
}

func (a *API) jsAtan2(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "atan2(y, x) requires two numbers")
	return a.runtime.ToValue(math.Atan2(call.Arguments[0].ToFloat(), call.Arguments[1].ToFloat()))
}

func (a *API) jsSqrt(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "sqrt(x) requires a number")
	return a.runtime.ToValue(math.Sqrt(call.Arguments[0].ToFloat()))
}

func (a *API) jsClamp(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 3, "clamp(v, lo, hi) requires three numbers")
	v := call.Arguments[0].ToFloat()
	lo := call.Arguments[1].ToFloat()
	hi := call.Arguments[2].ToFloat()
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return a.runtime.ToValue(v)
}

func (a *API) jsRandom(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.rng.Float64())
}

func (a *API) jsRandomRange(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 2, "random_range(lo, hi) requires two numbers")
	lo := call.Arguments[0].ToFloat()
	hi := call.Arguments[1].ToFloat()
	return a.runtime.ToValue(lo + a.rng.Float64()*(hi-lo))
}
