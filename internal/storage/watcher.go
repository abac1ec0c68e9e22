// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to stored records. A value is sent on the returned
// channel whenever a record file is created, written, renamed or removed.
// Signals are coalesced: a burst of changes while the receiver is busy
// produces one pending signal. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isRecordEvent(event) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
					// A signal is already pending
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Overflow and similar errors are non-fatal
			}
		}
	}()

	return changes, nil
}

// isRecordEvent filters out temp files and chmod-only events.
func isRecordEvent(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != recordExt {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
