// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/script"
)

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestLoadManifest_Valid(t *testing.T) {
	root := writeContent(t, map[string]string{
		"scripts.yaml": `scripts:
  - kind: behavior
    name: gravity
    file: behaviors/gravity.js
  - kind: collision_action
    name: damage
    file: collisions/damage.js
`,
	})

	m, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(m.Scripts) != 2 {
		t.Fatalf("Scripts = %d, want 2", len(m.Scripts))
	}
	if m.Scripts[0].Name != "gravity" || m.Scripts[1].Kind != "collision_action" {
		t.Errorf("manifest parsed wrong: %+v", m.Scripts)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "scripts:\n  - kind: sprite\n    name: x\n    file: x.js\n"},
		{"missing name", "scripts:\n  - kind: behavior\n    file: x.js\n"},
		{"missing file", "scripts:\n  - kind: behavior\n    name: x\n"},
		{"duplicate unit", "scripts:\n  - kind: behavior\n    name: x\n    file: a.js\n  - kind: behavior\n    name: x\n    file: b.js\n"},
		{"bad yaml", "scripts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeContent(t, map[string]string{"scripts.yaml": tt.yaml})
			if _, err := LoadManifest(root); err == nil {
				t.Error("LoadManifest() succeeded, want error")
			}
		})
	}
}

func TestLoadAll_LoadsUnitsIntoHost(t *testing.T) {
	root := writeContent(t, map[string]string{
		"scripts.yaml": `scripts:
  - kind: behavior
    name: gravity
    file: behaviors/gravity.js
  - kind: behavior
    name: broken
    file: behaviors/broken.js
  - kind: generator
    name: maze
    file: generators/maze.js
`,
		"behaviors/gravity.js": `({ on_update: function(id, dt) {} })`,
		"behaviors/broken.js":  `({ on_update: function( }`,
		"generators/maze.js":   `({ generate: function(id) { return []; } })`,
	})

	h, err := host.New(host.Options{Seed: 1})
	if err != nil {
		t.Fatalf("host.New() error = %v", err)
	}
	defer func() { _ = h.Close() }()

	results, err := LoadAll(h, root)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	byName := map[string]error{}
	for _, r := range results {
		byName[r.Key.Name] = r.Err
	}
	if byName["gravity"] != nil {
		t.Errorf("gravity load error = %v", byName["gravity"])
	}
	if byName["broken"] == nil {
		t.Error("broken load succeeded")
	}
	if byName["maze"] != nil {
		t.Errorf("maze load error = %v", byName["maze"])
	}

	// A compile failure never poisons the host.
	if h.Crashed() {
		t.Error("host crashed on compile failure")
	}
	if _, ok := h.Registry().Lookup(script.KindGenerator, "maze"); !ok {
		t.Error("maze not in registry after LoadAll")
	}
}

func TestApply_MissingSourceFileIsPerUnit(t *testing.T) {
	root := writeContent(t, map[string]string{
		"scripts.yaml": `scripts:
  - kind: behavior
    name: ghost
    file: behaviors/ghost.js
  - kind: behavior
    name: real
    file: behaviors/real.js
`,
		"behaviors/real.js": `({ on_update: function(id, dt) {} })`,
	})

	h, err := host.New(host.Options{Seed: 1})
	if err != nil {
		t.Fatalf("host.New() error = %v", err)
	}
	defer func() { _ = h.Close() }()

	results, err := LoadAll(h, root)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if results[0].Err == nil {
		t.Error("missing source file not reported")
	}
	if results[1].Err != nil {
		t.Errorf("later unit failed: %v", results[1].Err)
	}
}
