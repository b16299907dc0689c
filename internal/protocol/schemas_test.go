// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package protocol_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/protocol"
	"github.com/ams-games/scripthost/internal/world"
)

// The schemas document the wire format for non-Go interpreter
// implementations. This test keeps them honest against the structs the
// Go sides actually marshal.
func TestSchemas_ValidateMarshaledMessages(t *testing.T) {
	compiler := jsonschema.NewCompiler()
	schemasDir := filepath.Join("..", "..", "schemas")

	entries, err := os.ReadDir(schemasDir)
	if err != nil {
		t.Fatalf("read schemas dir: %v", err)
	}
	for _, e := range entries {
		f, err := os.Open(filepath.Join(schemasDir, e.Name()))
		if err != nil {
			t.Fatalf("open %s: %v", e.Name(), err)
		}
		url := "https://ams-games.dev/schemas/" + e.Name()
		if err := compiler.AddResource(url, f); err != nil {
			t.Fatalf("add resource %s: %v", e.Name(), err)
		}
		_ = f.Close()
	}

	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		s, err := compiler.Compile("https://ams-games.dev/schemas/" + name)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, msg any) {
		t.Helper()
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate %s: %v", data, err)
		}
	}

	snap := world.Snapshot{
		Entities: []world.EntityView{{
			ID: "player", Type: "player", X: 10, Y: 20,
			Width: 32, Height: 32, Health: 100, Visible: true, Alive: true,
			Behaviors: []string{"gravity"},
			Tags:      []string{"friendly"},
		}},
		Global: world.GlobalView{ScreenWidth: 800, ScreenHeight: 600},
	}

	validate(compile("status.schema.json"), protocol.StatusMessage{
		BaseMessage:     protocol.BaseMessage{Type: protocol.MsgTypeStatus},
		ProtocolVersion: protocol.Version,
		State:           "running",
		Units:           3,
	})

	validate(compile("load.schema.json"), protocol.LoadMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeLoad, ID: "req-1"},
		Kind:        "behavior",
		Name:        "gravity",
		Source:      "({ on_update: function(id, dt) {} })",
	})

	validate(compile("load_result.schema.json"), protocol.LoadResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeLoadResult, ID: "req-1"},
		OK:          false,
		Error:       "SyntaxError: unexpected token",
	})

	validate(compile("frame_update.schema.json"), protocol.FrameUpdateMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeFrameUpdate, ID: "req-2"},
		DT:          1.0 / 60.0,
		Snapshot:    snap,
	})

	cs := changeset.New()
	y := 21.5
	cs.Patch("player").Y = &y
	cs.Spawns = append(cs.Spawns, changeset.SpawnRequest{
		ID: "spawn:1", Type: "bullet", X: 10, Y: 20, VX: 0, VY: -300, Width: 4, Height: 8,
	})
	cs.Sounds = append(cs.Sounds, "pew")
	cs.Score = 10
	encoded, err := cs.Encode()
	if err != nil {
		t.Fatalf("encode change-set: %v", err)
	}
	validate(compile("frame_result.schema.json"), protocol.FrameResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeFrameResult, ID: "req-2"},
		OK:          true,
		ChangeSet:   encoded,
	})

	validate(compile("crashed.schema.json"), protocol.CrashedMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeCrashed},
		Error:       "TypeError: undefined is not a function",
		Context:     "behavior:gravity:on_update",
	})
}
