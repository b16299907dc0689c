// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/content"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/script"
	"github.com/ams-games/scripthost/internal/world"
)

// shellState holds the host under test and the synthetic world the shell
// edits between passes. Change-sets are applied back to the world the
// same way an owning simulation would, so multi-frame experiments work.
type shellState struct {
	host     host.Host
	snap     world.Snapshot
	spawnSeq int
}

func newShellState(h host.Host) *shellState {
	return &shellState{
		host: h,
		snap: world.Snapshot{
			Entities: []world.EntityView{},
			Global:   world.GlobalView{ScreenWidth: 800, ScreenHeight: 600},
		},
	}
}

func (s *shellState) prompt() string {
	if s.host.Crashed() {
		return "\033[31mhost(crashed)>\033[0m "
	}
	return "\033[32mhost>\033[0m "
}

func (s *shellState) execute(name string, args []string) error {
	switch name {
	case "exit", "quit":
		return errors.New("exit")
	case "help":
		printHelp()
		return nil
	case "load":
		return s.cmdLoad(args)
	case "loaddir":
		return s.cmdLoadDir(args)
	case "ent":
		return s.cmdEnt(args)
	case "world":
		return s.cmdWorld()
	case "frame":
		return s.cmdFrame(args)
	case "collide":
		return s.cmdCollide(args)
	case "input":
		return s.cmdInput(args)
	case "gen":
		return s.cmdGen(args)
	case "setglobal":
		return s.cmdSetGlobal(args)
	case "status":
		return s.cmdStatus()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", name)
	}
}

func (s *shellState) cmdLoad(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: load <kind> <name> <file>")
	}
	kind := script.Kind(args[0])
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %q", args[0])
	}
	source, err := os.ReadFile(args[2])
	if err != nil {
		return err
	}
	if err := s.host.Load(kind, args[1], string(source)); err != nil {
		return err
	}
	fmt.Printf("loaded %s:%s\n", kind, args[1])
	return nil
}

func (s *shellState) cmdLoadDir(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: loaddir <content-root>")
	}
	results, err := content.LoadAll(s.host, args[0])
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  FAIL %s: %v\n", res.Key, res.Err)
		} else {
			fmt.Printf("  ok   %s\n", res.Key)
		}
	}
	return nil
}

func (s *shellState) cmdEnt(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ent add|set|behaviors|tag ...")
	}
	switch args[0] {
	case "add":
		if len(args) != 5 {
			return errors.New("usage: ent add <id> <type> <x> <y>")
		}
		x, err1 := strconv.ParseFloat(args[3], 64)
		y, err2 := strconv.ParseFloat(args[4], 64)
		if err1 != nil || err2 != nil {
			return errors.New("x and y must be numbers")
		}
		if s.snap.ByID(args[1]) != nil {
			return fmt.Errorf("entity %q already exists", args[1])
		}
		s.snap.Entities = append(s.snap.Entities, world.EntityView{
			ID: args[1], Type: args[2], X: x, Y: y,
			Width: 32, Height: 32, Health: 100, Visible: true, Alive: true,
		})
		return nil

	case "set":
		if len(args) != 4 {
			return errors.New("usage: ent set <id> <field> <value>")
		}
		return s.entSet(args[1], args[2], args[3])

	case "behaviors":
		if len(args) != 3 {
			return errors.New("usage: ent behaviors <id> <b1,b2,...>")
		}
		ent := s.findEntity(args[1])
		if ent == nil {
			return fmt.Errorf("no entity %q", args[1])
		}
		ent.Behaviors = strings.Split(args[2], ",")
		return nil

	case "tag":
		if len(args) != 3 {
			return errors.New("usage: ent tag <id> <tag>")
		}
		ent := s.findEntity(args[1])
		if ent == nil {
			return fmt.Errorf("no entity %q", args[1])
		}
		ent.Tags = append(ent.Tags, args[2])
		return nil

	default:
		return fmt.Errorf("unknown ent subcommand %q", args[0])
	}
}

func (s *shellState) entSet(id, field, value string) error {
	ent := s.findEntity(id)
	if ent == nil {
		return fmt.Errorf("no entity %q", id)
	}
	num := func() (float64, error) { return strconv.ParseFloat(value, 64) }
	switch field {
	case "x":
		v, err := num()
		if err != nil {
			return err
		}
		ent.X = v
	case "y":
		v, err := num()
		if err != nil {
			return err
		}
		ent.Y = v
	case "vx":
		v, err := num()
		if err != nil {
			return err
		}
		ent.VX = v
	case "vy":
		v, err := num()
		if err != nil {
			return err
		}
		ent.VY = v
	case "health":
		v, err := num()
		if err != nil {
			return err
		}
		ent.Health = v
	case "sprite":
		ent.Sprite = value
	case "color":
		ent.Color = value
	case "visible":
		ent.Visible = value == "true"
	case "alive":
		ent.Alive = value == "true"
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func (s *shellState) cmdWorld() error {
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (s *shellState) cmdFrame(args []string) error {
	dt := host.FallbackDT
	if len(args) == 1 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return errors.New("dt must be a number")
		}
		dt = v
	}
	cs, err := s.host.RunFrame(dt, &s.snap)
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	s.report(cs)
	s.apply(cs)
	s.snap.Global.Elapsed += dt
	return nil
}

func (s *shellState) cmdCollide(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: collide <action> <entityA> <entityB>")
	}
	cs, err := s.host.RunCollision(args[0], args[1], args[2], nil, &s.snap)
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	s.report(cs)
	s.apply(cs)
	return nil
}

func (s *shellState) cmdInput(args []string) error {
	if len(args) != 4 {
		return errors.New("usage: input <action> <entity> <x> <y>")
	}
	x, err1 := strconv.ParseFloat(args[2], 64)
	y, err2 := strconv.ParseFloat(args[3], 64)
	if err1 != nil || err2 != nil {
		return errors.New("x and y must be numbers")
	}
	cs, err := s.host.RunInput(args[0], args[1], x, y, &s.snap)
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	s.report(cs)
	s.apply(cs)
	return nil
}

func (s *shellState) cmdGen(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: gen <name> <entity>")
	}
	value, cs, err := s.host.RunGenerator(args[0], args[1], &s.snap)
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	out, _ := json.Marshal(value)
	fmt.Printf("value: %s\n", out)
	s.report(cs)
	s.apply(cs)
	return nil
}

func (s *shellState) cmdSetGlobal(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: setglobal <name> <json-value>")
	}
	var value any
	raw := strings.Join(args[1:], " ")
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// Bare words pass through as strings
		value = raw
	}
	return s.host.SetGlobal(args[0], value)
}

func (s *shellState) cmdStatus() error {
	if s.host.Crashed() {
		info := s.host.LastCrash()
		fmt.Println("state: crashed")
		if info != nil {
			fmt.Printf("  context: %s\n", info.Context)
			fmt.Printf("  error:   %s\n", info.Message)
		}
		return nil
	}
	fmt.Println("state: running")
	fmt.Printf("entities: %d, score: %g, elapsed: %gs\n",
		len(s.snap.Entities), s.snap.Global.Score, s.snap.Global.Elapsed)
	return nil
}

// report prints the change-set in its canonical encoding.
func (s *shellState) report(cs *changeset.ChangeSet) {
	if cs == nil || cs.Empty() {
		fmt.Println("(empty change-set)")
		return
	}
	data, err := cs.Encode()
	if err != nil {
		fmt.Printf("encode error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// apply folds a change-set back into the synthetic world: patches by id,
// spawned entities with shell-assigned ids, and the score delta. Sounds
// and callbacks are printed, not simulated.
func (s *shellState) apply(cs *changeset.ChangeSet) {
	if cs == nil {
		return
	}
	for id, patch := range cs.Entities {
		ent := s.findEntity(id)
		if ent == nil {
			continue
		}
		applyPatch(ent, patch)
	}
	for _, spawn := range cs.Spawns {
		s.spawnSeq++
		id := fmt.Sprintf("e%d", s.spawnSeq)
		s.snap.Entities = append(s.snap.Entities, world.EntityView{
			ID: id, Type: spawn.Type,
			X: spawn.X, Y: spawn.Y, VX: spawn.VX, VY: spawn.VY,
			Width: spawn.Width, Height: spawn.Height,
			Color: spawn.Color, Sprite: spawn.Sprite,
			Health: 100, Visible: true, Alive: true,
		})
		fmt.Printf("spawned %s (%s)\n", id, spawn.Type)
	}
	for _, sound := range cs.Sounds {
		fmt.Printf("sound: %s\n", sound)
	}
	for _, cb := range cs.Callbacks {
		fmt.Printf("callback in %gs: %s(%s)\n", cb.Delay, cb.Callback, cb.EntityID)
	}
	s.snap.Global.Score += cs.Score
}

func applyPatch(ent *world.EntityView, patch *changeset.EntityPatch) {
	if patch.X != nil {
		ent.X = *patch.X
	}
	if patch.Y != nil {
		ent.Y = *patch.Y
	}
	if patch.VX != nil {
		ent.VX = *patch.VX
	}
	if patch.VY != nil {
		ent.VY = *patch.VY
	}
	if patch.Sprite != nil {
		ent.Sprite = *patch.Sprite
	}
	if patch.Color != nil {
		ent.Color = *patch.Color
	}
	if patch.Health != nil {
		ent.Health = *patch.Health
	}
	if patch.Visible != nil {
		ent.Visible = *patch.Visible
	}
	if patch.Alive != nil {
		ent.Alive = *patch.Alive
	}
	if len(patch.Props) > 0 {
		if ent.Props == nil {
			ent.Props = make(map[string]any, len(patch.Props))
		}
		for k, v := range patch.Props {
			ent.Props[k] = v
		}
	}
	if patch.Detached {
		ent.ParentID = ""
		ent.ParentOX = 0
		ent.ParentOY = 0
	} else if patch.ParentID != nil {
		ent.ParentID = *patch.ParentID
		if patch.ParentOX != nil {
			ent.ParentOX = *patch.ParentOX
		}
		if patch.ParentOY != nil {
			ent.ParentOY = *patch.ParentOY
		}
	}
}

// findEntity returns a mutable pointer into the snapshot slice.
func (s *shellState) findEntity(id string) *world.EntityView {
	for i := range s.snap.Entities {
		if s.snap.Entities[i].ID == id {
			return &s.snap.Entities[i]
		}
	}
	return nil
}

func printHelp() {
	fmt.Print(`Commands:
  load <kind> <name> <file>     Load one script unit from a file
  loaddir <root>                Load every unit from a scripts.yaml manifest
  ent add <id> <type> <x> <y>   Add an entity to the synthetic world
  ent set <id> <field> <value>  Set x, y, vx, vy, health, sprite, color, visible, alive
  ent behaviors <id> <b1,b2>    Attach behaviors to an entity
  ent tag <id> <tag>            Add a tag to an entity
  world                         Print the synthetic world snapshot
  frame [dt]                    Run one frame pass and apply the change-set
  collide <action> <a> <b>      Run one collision pass
  input <action> <id> <x> <y>   Run one input-action pass
  gen <name> <id>               Run one generator pass
  setglobal <name> <json>       Inject a named global into the interpreter
  status                        Show host health and world summary
  exit                          Leave the shell
`)
}
