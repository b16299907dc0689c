// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package content loads script units from a content directory. The
// directory carries a scripts.yaml manifest naming each unit's kind,
// name, and source file; the watcher reloads units when files change.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/script"
)

// ManifestName is the manifest file expected at the content root.
const ManifestName = "scripts.yaml"

// Entry is one unit declaration in the manifest.
type Entry struct {
	Kind string `yaml:"kind" description:"Unit kind: behavior, collision_action, generator, input_action"`
	Name string `yaml:"name" description:"Unit name, unique within its kind"`
	File string `yaml:"file" description:"Source file path, relative to the content root"`
}

// Manifest is the parsed scripts.yaml.
type Manifest struct {
	Scripts []Entry `yaml:"scripts"`
}

// LoadManifest reads and validates scripts.yaml from the content root.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[script.UnitKey]bool)
	for i, e := range m.Scripts {
		kind := script.Kind(e.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("manifest entry %d: unknown kind %q", i, e.Kind)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("manifest entry %d: name is required", i)
		}
		if e.File == "" {
			return nil, fmt.Errorf("manifest entry %d: file is required", i)
		}
		key := script.UnitKey{Kind: kind, Name: e.Name}
		if seen[key] {
			return nil, fmt.Errorf("manifest entry %d: duplicate unit %s", i, key)
		}
		seen[key] = true
	}
	return &m, nil
}

// LoadResult reports one unit's load outcome during Apply.
type LoadResult struct {
	Key script.UnitKey
	Err error // nil on success
}

// Apply reads every declared source file and loads it into h, in manifest
// order. Compile failures are collected and do not stop the walk; a crash
// (top-level throw) aborts immediately since the host refuses further
// loads anyway.
func Apply(h host.Host, root string, m *Manifest) ([]LoadResult, error) {
	results := make([]LoadResult, 0, len(m.Scripts))
	for _, e := range m.Scripts {
		key := script.UnitKey{Kind: script.Kind(e.Kind), Name: e.Name}
		source, err := os.ReadFile(filepath.Join(root, e.File))
		if err != nil {
			results = append(results, LoadResult{Key: key, Err: fmt.Errorf("failed to read source: %w", err)})
			continue
		}
		err = h.Load(key.Kind, key.Name, string(source))
		results = append(results, LoadResult{Key: key, Err: err})
		if err != nil {
			var loadErr *host.LoadError
			if !errors.As(err, &loadErr) {
				return results, err
			}
		}
	}
	return results, nil
}

// LoadAll is the common path: read the manifest and apply it.
func LoadAll(h host.Host, root string) ([]LoadResult, error) {
	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	return Apply(h, root, m)
}
