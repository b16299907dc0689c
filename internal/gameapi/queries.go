// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package gameapi

import "github.com/dop251/goja"

// queryFuncs returns the entity queries. All queries are snapshot
// consistent: they reflect entity state as supplied at pass start, never
// intermediate mutations from the same pass, so results do not depend on
// which entity executes first. Dead entities are excluded.
func (a *API) queryFuncs() map[string]func(goja.FunctionCall) goja.Value {
	return map[string]func(goja.FunctionCall) goja.Value{
		"find_by_type": a.jsFindByType,
		"find_by_tag":  a.jsFindByTag,
		"count_tag":    a.jsCountTag,
		"all_entities": a.jsAllEntities,
	}
}

func (a *API) jsFindByType(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "find_by_type(type) requires a type name")
	typ := call.Arguments[0].String()
	snap := a.pass().snap
	ids := []string{}
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alive && e.Type == typ {
			ids = append(ids, e.ID)
		}
	}
	return a.runtime.ToValue(ids)
}

func (a *API) jsFindByTag(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "find_by_tag(tag) requires a tag name")
	tag := call.Arguments[0].String()
	snap := a.pass().snap
	ids := []string{}
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alive && e.HasTag(tag) {
			ids = append(ids, e.ID)
		}
	}
	return a.runtime.ToValue(ids)
}

func (a *API) jsCountTag(call goja.FunctionCall) goja.Value {
	a.requireArgs(call, 1, "count_tag(tag) requires a tag name")
	tag := call.Arguments[0].String()
	snap := a.pass().snap
	n := 0
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alive && e.HasTag(tag) {
			n++
		}
	}
	return a.runtime.ToValue(n)
}

func (a *API) jsAllEntities(call goja.FunctionCall) goja.Value {
	snap := a.pass().snap
	ids := []string{}
	for i := range snap.Entities {
		if snap.Entities[i].Alive {
			ids = append(ids, snap.Entities[i].ID)
		}
	}
	return a.runtime.ToValue(ids)
}
