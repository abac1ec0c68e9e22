// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "sync"

// nameCache maps file keys to display names for the lifetime of a Store.
// Entries are never evicted or invalidated.
type nameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{names: make(map[string]string)}
}

func (c *nameCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[key]
	return name, ok
}

func (c *nameCache) put(key, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[key] = name
}

func (c *nameCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
