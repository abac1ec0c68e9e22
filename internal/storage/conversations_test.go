// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "conversations"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func turn(user, assistant string) []Message {
	return []Message{
		{Role: RoleUser, Content: user},
		{Role: RoleAssistant, Content: assistant},
	}
}

// setModTime pins a record's mtime so ordering tests do not depend on
// filesystem timestamp resolution.
func setModTime(t *testing.T, s *Store, key string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(s.filePath(key), mtime, mtime); err != nil {
		t.Fatalf("Chtimes(%s) failed: %v", key, err)
	}
}

// =============================================================================
// CONVERSATION STORE TESTS
// =============================================================================

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	msgs := []Message{
		{Role: RoleUser, Content: "Olá, como você está?\nTudo bem?"},
		{Role: RoleAssistant, Content: "Estou bem! 🎉"},
		{Role: RoleUser, Content: "Ótimo"},
		{Role: RoleAssistant, Content: ""},
	}

	key, saved, err := store.Save(msgs)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !saved {
		t.Fatal("Save reported saved == false")
	}
	if want := Slug(DisplayName(msgs)); key != want {
		t.Errorf("key = %q, want %q", key, want)
	}

	loaded, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, msgs) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", loaded, msgs)
	}
}

func TestStore_SaveWritesRecordFields(t *testing.T) {
	store := newTestStore(t)
	msgs := turn("Explain goroutines in detail, please", "Sure.")

	key, _, err := store.Save(msgs)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := store.LoadRecord(key)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if rec.DisplayName != "Explain goroutines in detail, " {
		t.Errorf("DisplayName = %q", rec.DisplayName)
	}
	if rec.FileKey != "explaingoroutinesindetail" {
		t.Errorf("FileKey = %q", rec.FileKey)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "explaingoroutinesindetail.json")); err != nil {
		t.Errorf("record file missing: %v", err)
	}
}

func TestStore_SaveEmptyIsNoOp(t *testing.T) {
	store := newTestStore(t)

	key, saved, err := store.Save(nil)
	if err != nil {
		t.Fatalf("Save(nil) returned error: %v", err)
	}
	if saved || key != "" {
		t.Errorf("Save(nil) = (%q, %v), want (\"\", false)", key, saved)
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("store changed after empty save: %v", keys)
	}
}

func TestStore_SaveUnnamed(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
	}{
		{"no user message", []Message{{Role: RoleAssistant, Content: "hi"}}},
		{"punctuation only", turn("?!... ---", "ok")},
		{"empty user message", turn("", "ok")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)

			_, saved, err := store.Save(tt.msgs)
			if !errors.Is(err, ErrUnnamedConversation) {
				t.Fatalf("err = %v, want ErrUnnamedConversation", err)
			}
			if saved {
				t.Error("saved should be false")
			}
			keys, _ := store.List()
			if len(keys) != 0 {
				t.Errorf("nothing should be written, found %v", keys)
			}
		})
	}
}

func TestStore_SaveOverwritesOnCollision(t *testing.T) {
	store := newTestStore(t)
	first := turn("Hello world, tell me about cats", "Cats are great.")
	second := turn("Hello world, tell me about cats and dogs", "Both are great.")

	key1, _, err := store.Save(first)
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	key2, _, err := store.Save(second)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if key1 != key2 {
		t.Fatalf("expected collision, got keys %q and %q", key1, key2)
	}

	loaded, err := store.Load(key1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, second) {
		t.Errorf("collision should keep the later conversation, got %#v", loaded)
	}

	keys, _ := store.List()
	if len(keys) != 1 {
		t.Errorf("expected a single record, got %v", keys)
	}
}

func TestStore_SaveAs(t *testing.T) {
	store := newTestStore(t)
	msgs := turn("First question", "First answer")

	key, _, err := store.Save(msgs)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	msgs = append(msgs, turn("Second question", "Second answer")...)
	if err := store.SaveAs(key, msgs); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}

	rec, err := store.LoadRecord(key)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if len(rec.Messages) != 4 {
		t.Errorf("len(Messages) = %d, want 4", len(rec.Messages))
	}
	if rec.DisplayName != "First question" || rec.FileKey != key {
		t.Errorf("record identity changed: %+v", rec)
	}
}

func TestStore_SaveAsErrors(t *testing.T) {
	store := newTestStore(t)
	msgs := turn("hi", "hello")

	if err := store.SaveAs("", msgs); !errors.Is(err, ErrUnnamedConversation) {
		t.Errorf("SaveAs(\"\") = %v, want ErrUnnamedConversation", err)
	}
	if err := store.SaveAs("../escape", msgs); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SaveAs(../escape) = %v, want ErrInvalidKey", err)
	}
	if err := store.SaveAs("anything", nil); err != nil {
		t.Errorf("SaveAs with no messages should be a no-op, got %v", err)
	}
	if keys, _ := store.List(); len(keys) != 0 {
		t.Errorf("nothing should be written, found %v", keys)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"missing", "", "../etc/passwd"} {
		_, err := store.Load(key)
		if !errors.Is(err, ErrConversationNotFound) {
			t.Errorf("Load(%q) = %v, want ErrConversationNotFound", key, err)
		}
	}
}

func TestStore_CorruptRecord(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.filePath("broken"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, _, err := store.Save(turn("broken things", "fixed")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err := store.Load("broken")
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("Load(broken) = %v, want ErrCorruptRecord", err)
	}
	if errors.Is(err, ErrConversationNotFound) {
		t.Error("corrupt record must not look like a missing one")
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("List should still include the corrupt record, got %v", keys)
	}

	found, err := store.Search("broken")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(found, []string{"brokenthings"}) {
		t.Errorf("Search = %v, want [brokenthings]", found)
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestStore_ListOrdersByModTime(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i, prompt := range []string{"alpha", "bravo", "charlie"} {
		key, _, err := store.Save(turn(prompt, "ok"))
		if err != nil {
			t.Fatalf("Save(%s) failed: %v", prompt, err)
		}
		setModTime(t, store, key, base.Add(time.Duration(i)*time.Minute))
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"charlie", "bravo", "alpha"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("List() = %v, want %v", keys, want)
	}

	// Touching the oldest record moves it to the front
	setModTime(t, store, "alpha", base.Add(time.Hour))
	keys, _ = store.List()
	if keys[0] != "alpha" {
		t.Errorf("List()[0] = %q, want alpha", keys[0])
	}
}

func TestStore_ListTieBreaksByKey(t *testing.T) {
	store := newTestStore(t)
	mtime := time.Now().Add(-time.Minute)

	for _, prompt := range []string{"zulu", "mike", "echo"} {
		key, _, err := store.Save(turn(prompt, "ok"))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		setModTime(t, store, key, mtime)
	}

	keys, _ := store.List()
	want := []string{"echo", "mike", "zulu"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("List() = %v, want %v", keys, want)
	}
}

func TestStore_ListIgnoresOtherEntries(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.Save(turn("kept", "ok")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(store.Dir(), ".tmp-123"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(store.Dir(), "dir.json"), 0755)

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"kept"}) {
		t.Errorf("List() = %v, want [kept]", keys)
	}
}

func TestStore_ListMissingDirectory(t *testing.T) {
	store := newTestStore(t)
	if err := os.RemoveAll(store.Dir()); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List on missing dir returned error: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Errorf("List() = %#v, want empty slice", keys)
	}
}

// =============================================================================
// DISPLAY NAME CACHE TESTS
// =============================================================================

func TestStore_DisplayNameForCaches(t *testing.T) {
	store := newTestStore(t)
	key, _, err := store.Save(turn("Qual é a capital do Brasil?", "Brasília"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	name, err := store.DisplayNameFor(key)
	if err != nil {
		t.Fatalf("DisplayNameFor failed: %v", err)
	}
	if name != "Qual é a capital do Brasil?" {
		t.Errorf("DisplayNameFor = %q", name)
	}

	// Served from memory once resolved
	if err := os.Remove(store.filePath(key)); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	name, err = store.DisplayNameFor(key)
	if err != nil {
		t.Fatalf("cached DisplayNameFor failed: %v", err)
	}
	if name != "Qual é a capital do Brasil?" {
		t.Errorf("cached DisplayNameFor = %q", name)
	}
	if store.names.len() != 1 {
		t.Errorf("cache size = %d, want 1", store.names.len())
	}
}

func TestStore_DisplayNameForNotInvalidatedBySave(t *testing.T) {
	store := newTestStore(t)
	key, _, _ := store.Save(turn("Hello world and everything", "a"))
	if _, err := store.DisplayNameFor(key); err != nil {
		t.Fatalf("DisplayNameFor failed: %v", err)
	}

	// A colliding save changes the stored name but not the cached one
	store.Save(turn("Hello, world! And everything", "b"))
	name, _ := store.DisplayNameFor(key)
	if name != "Hello world and everything" {
		t.Errorf("DisplayNameFor = %q, want the first cached name", name)
	}
}

func TestStore_DisplayNameForMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.DisplayNameFor("nope"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("DisplayNameFor(nope) = %v, want ErrConversationNotFound", err)
	}
	if store.names.len() != 0 {
		t.Error("failed lookups must not be cached")
	}
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestStore_Search(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().Add(-time.Hour)
	convs := [][]Message{
		turn("How do channels work", "They pass values between goroutines."),
		turn("Recipe for bread", "Flour, water, salt, yeast."),
		turn("Goroutine leaks", "Always cancel your contexts."),
	}
	for i, msgs := range convs {
		key, _, err := store.Save(msgs)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		setModTime(t, store, key, base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"GOROUTINE", []string{"goroutineleaks", "howdochannelswork"}},
		{"bread", []string{"recipeforbread"}},
		{"nothing matches this", []string{}},
		{"  ", []string{"goroutineleaks", "recipeforbread", "howdochannelswork"}},
	}

	for _, tt := range tests {
		got, err := store.Search(tt.query)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", tt.query, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
