// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events most editors produce for a
// single save.
const debounceDelay = 500 * time.Millisecond

// Watch starts a filesystem watcher over the content root and its
// subdirectories. Whenever a .js or .yaml file is created, modified,
// removed, or renamed, onChange fires once after a short debounce.
// Watching stops when ctx is cancelled.
//
// onChange typically re-runs LoadAll against a fresh host: loaded units
// replace atomically, so a reload never exposes a half-updated registry.
func Watch(ctx context.Context, root string, log *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := addRecursive(watcher, root); err != nil {
		_ = watcher.Close()
		return err
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("content watcher enabled", "root", root)

	go func() {
		defer func() { _ = watcher.Close() }()

		var debounce *time.Timer

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// New subdirectories need watching too.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}

				if !strings.HasSuffix(event.Name, ".js") && !strings.HasSuffix(event.Name, ".yaml") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, onChange)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("content watcher error", "error", err)
			}
		}
	}()

	return nil
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
