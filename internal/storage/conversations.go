// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/dersingpt/internal/util"
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Record is the persisted unit of storage.
type Record struct {
	DisplayName string    `json:"display_name" yaml:"display_name"`
	FileKey     string    `json:"file_key" yaml:"file_key"`
	Messages    []Message `json:"messages" yaml:"messages"`
}

// NewRecord builds the record stored for messages under key.
func NewRecord(key string, messages []Message) *Record {
	return &Record{
		DisplayName: DisplayName(messages),
		FileKey:     key,
		Messages:    messages,
	}
}

// =============================================================================
// STORE
// =============================================================================

// recordExt is the extension of record files.
const recordExt = ".json"

// Store persists conversations as one JSON file per file key.
// It is meant for a single process; concurrent writers are not coordinated.
type Store struct {
	dir   string
	names *nameCache
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create conversations directory: %w", err)
	}
	return &Store{dir: dir, names: newNameCache()}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists messages under the key derived from their display name and
// returns that key. Any record already stored under the key is replaced.
//
// An empty message list is a no-op and reports saved == false.
func (s *Store) Save(messages []Message) (key string, saved bool, err error) {
	if len(messages) == 0 {
		return "", false, nil
	}

	key = Slug(DisplayName(messages))
	if key == "" {
		return "", false, ErrUnnamedConversation
	}

	if err := s.write(NewRecord(key, messages)); err != nil {
		return "", false, err
	}
	return key, true, nil
}

// SaveAs persists messages under an explicit key. The display name is still
// derived from the messages. An empty message list is a no-op.
func (s *Store) SaveAs(key string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	if key == "" {
		return ErrUnnamedConversation
	}
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return s.write(NewRecord(key, messages))
}

func (s *Store) write(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", rec.FileKey, err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.filePath(rec.FileKey), data, 0644); err != nil {
		return fmt.Errorf("write conversation %s: %w", rec.FileKey, err)
	}
	return nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load returns the messages stored under key.
func (s *Store) Load(key string) ([]Message, error) {
	rec, err := s.LoadRecord(key)
	if err != nil {
		return nil, err
	}
	return rec.Messages, nil
}

// LoadRecord returns the full record stored under key.
func (s *Store) LoadRecord(key string) (*Record, error) {
	if !validKey(key) {
		return nil, ErrConversationNotFound
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("read conversation %s: %w", key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
	}
	if rec.Messages == nil {
		rec.Messages = []Message{}
	}
	return &rec, nil
}

// DisplayNameFor resolves a key to its display name. The record is read on
// the first lookup of each key only; later lookups are served from memory
// even if the record changes or disappears.
func (s *Store) DisplayNameFor(key string) (string, error) {
	if name, ok := s.names.get(key); ok {
		return name, nil
	}

	rec, err := s.LoadRecord(key)
	if err != nil {
		return "", err
	}
	s.names.put(key, rec.DisplayName)
	return rec.DisplayName, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns every stored key, most recently modified first. A missing
// directory yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	type entry struct {
		key     string
		modTime time.Time
	}
	found := make([]entry, 0, len(entries))

	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		found = append(found, entry{
			key:     strings.TrimSuffix(e.Name(), recordExt),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].modTime.Equal(found[j].modTime) {
			return found[i].modTime.After(found[j].modTime)
		}
		return found[i].key < found[j].key
	})

	keys := make([]string, len(found))
	for i, e := range found {
		keys[i] = e.key
	}
	return keys, nil
}

// Search returns the keys, in List order, whose display name or message
// content contains query (case-insensitive). Records that cannot be read
// are skipped.
func (s *Store) Search(query string) ([]string, error) {
	keys, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return keys, nil
	}

	results := []string{}
	for _, key := range keys {
		rec, err := s.LoadRecord(key)
		if err != nil {
			continue
		}
		if rec.matches(query) {
			results = append(results, key)
		}
	}
	return results, nil
}

// matches reports whether the lower-cased query occurs in the record.
func (r *Record) matches(query string) bool {
	if strings.Contains(strings.ToLower(r.DisplayName), query) {
		return true
	}
	for _, msg := range r.Messages {
		if strings.Contains(strings.ToLower(msg.Content), query) {
			return true
		}
	}
	return false
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filePath returns the file path for a key.
func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, key+recordExt)
}

// validKey rejects keys that would escape the store directory.
func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when no record exists for a key.
	// Use errors.Is(err, ErrConversationNotFound) to check for this error.
	ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = &ConversationError{Message: "corrupt conversation record"}

	// ErrUnnamedConversation is returned when no file key can be derived,
	// either because there is no user message or because nothing survives
	// slug normalization.
	ErrUnnamedConversation = &ConversationError{Message: "conversation has no usable name"}

	// ErrInvalidKey is returned for keys containing path separators.
	ErrInvalidKey = &ConversationError{Message: "invalid conversation key"}
)

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
