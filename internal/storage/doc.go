// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for dersingpt.
//
// Each conversation is one JSON file named after its file key, a slug
// derived from the first 30 characters of the first user message. The key
// is lossy: two conversations whose openings normalize to the same slug
// share a file, and the later save wins.
//
// # Key Types
//
//   - Store: Directory-backed conversation store
//   - Record: The persisted unit {display_name, file_key, messages}
//   - Message: A single chat message
//
// # Usage
//
// Create a store and save a conversation:
//
//	store, err := storage.NewStore(dir)
//	key, saved, err := store.Save(messages)
//
// List and load conversations:
//
//	keys, err := store.List()
//	msgs, err := store.Load(keys[0])
//	name, err := store.DisplayNameFor(keys[0])
//
// # Storage Location
//
// Conversations are stored in ~/.dersingpt/conversations/ as JSON files.
package storage
