// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential persists the API key used for model requests.
//
// The key is stored unencrypted as a JSON string in a file only the owner
// can read. There is a single credential per data directory.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/dersingpt/internal/util"
)

// FileName is the name of the key file inside the credentials directory.
const FileName = "api_key"

// Store reads and writes the API key file.
type Store struct {
	path string
}

// NewStore returns a store keeping its key in dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the location of the key file.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites the stored key with value.
func (s *Store) Save(value string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}

	// SECURITY: Owner-only directory and file
	if err := util.AtomicWriteFileWithDir(s.path, data, 0600, 0700); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

// Load returns the stored key, or "" when none has been saved.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read api key: %w", err)
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("decode api key %s: %w", s.path, err)
	}
	return value, nil
}

// Mask returns a form of value that is safe to print.
func Mask(value string) string {
	value = strings.TrimSpace(value)
	switch n := util.RuneLen(value); {
	case n == 0:
		return "(not set)"
	case n <= 8:
		return strings.Repeat("*", n)
	default:
		r := []rune(value)
		return string(r[:4]) + "…" + string(r[n-4:])
	}
}
