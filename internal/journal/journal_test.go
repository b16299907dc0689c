// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriter_RecordAndReadAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "passes")

	messages := []struct {
		direction string
		raw       string
	}{
		{"recv", `{"type":"frame_update","id":"req-1","dt":0.016}`},
		{"send", `{"type":"frame_result","id":"req-1","ok":true}`},
		{"send", `{"type":"crashed","error":"boom","context":"behavior:x:on_update"}`},
	}
	for _, m := range messages {
		if err := w.Record(m.direction, []byte(m.raw)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if filepath.Ext(files[0].Name()) != ".zst" {
		t.Errorf("file %q is not zstd compressed", files[0].Name())
	}

	entries, err := ReadAll(filepath.Join(dir, files[0].Name()))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(entries) != len(messages) {
		t.Fatalf("entries = %d, want %d", len(entries), len(messages))
	}
	for i, e := range entries {
		if e.Direction != messages[i].direction {
			t.Errorf("entry %d direction = %q, want %q", i, e.Direction, messages[i].direction)
		}
		if string(e.Message) != messages[i].raw {
			t.Errorf("entry %d message = %s, want %s", i, e.Message, messages[i].raw)
		}
		if e.Time.IsZero() {
			t.Errorf("entry %d has zero time", i)
		}
	}
}

func TestWriter_CreatesDirLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	w := NewWriter(dir, "passes")

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory created before first record")
	}
	if err := w.Record("recv", []byte(`{}`)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory missing after record: %v", err)
	}
}
