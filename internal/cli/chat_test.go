// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStream struct {
	fragments []string
}

func (s *fakeStream) Recv() (llm.Fragment, error) {
	if len(s.fragments) == 0 {
		return llm.Fragment{}, io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return llm.Fragment{Content: f}, nil
}

func (s *fakeStream) Close() error { return nil }

type fakeCompleter struct {
	fragments []string
	requests  []llm.Request
}

func (c *fakeCompleter) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	c.requests = append(c.requests, req)
	return &fakeStream{fragments: append([]string(nil), c.fragments...)}, nil
}

// scriptedReader replays lines and then reports end of input.
type scriptedReader struct {
	lines []string
	errs  map[int]error
	calls int
}

func (r *scriptedReader) ReadInput(prompt string) (string, error) {
	defer func() { r.calls++ }()
	if err, ok := r.errs[r.calls]; ok {
		return "", err
	}
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type replFixture struct {
	store     *storage.Store
	creds     *credential.Store
	session   *chat.Session
	completer *fakeCompleter
	out       bytes.Buffer
}

func newReplFixture(t *testing.T, apiKey string) *replFixture {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "conversations"))
	require.NoError(t, err)

	f := &replFixture{
		store:     store,
		creds:     credential.NewStore(t.TempDir()),
		completer: &fakeCompleter{fragments: []string{"Hel", "lo!"}},
	}
	opts := []chat.Option{chat.WithLogger(zerolog.Nop())}
	if apiKey != "" {
		opts = append(opts, chat.WithAPIKey(apiKey))
	}
	f.session = chat.NewSession(store, f.creds, f.completer, opts...)
	return f
}

func (f *replFixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	r := newREPL(f.store, f.session, &scriptedReader{lines: lines}, &f.out)
	require.NoError(t, r.run(context.Background()))
	return f.out.String()
}

// =============================================================================
// TESTS
// =============================================================================

func TestREPL_TurnStreamsAndSaves(t *testing.T) {
	f := newReplFixture(t, "sk-test")

	out := f.run(t, "Hello there", "/history", "/quit")

	assert.Contains(t, out, "Hello!")
	assert.Contains(t, out, "You:")
	assert.Equal(t, chat.ConversationID("hellothere"), f.session.ID())

	msgs, err := f.store.Load("hellothere")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestREPL_NoKey(t *testing.T) {
	f := newReplFixture(t, "")

	out := f.run(t, "hi")

	assert.Contains(t, out, "No API key set")
	assert.Empty(t, f.completer.requests)
}

func TestREPL_KeyCommand(t *testing.T) {
	f := newReplFixture(t, "")

	out := f.run(t, "/key sk-abcdef123456", "/key", "hi")

	assert.Contains(t, out, "Key saved")
	assert.Contains(t, out, credential.Mask("sk-abcdef123456"))
	stored, err := f.creds.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef123456", stored)
	require.Len(t, f.completer.requests, 1)
	assert.Equal(t, "sk-abcdef123456", f.completer.requests[0].APIKey)
}

func TestREPL_ListAndOpen(t *testing.T) {
	f := newReplFixture(t, "sk-test")
	now := time.Now()
	save := func(prompt string, mod time.Time) string {
		key, _, err := f.store.Save([]storage.Message{
			{Role: storage.RoleUser, Content: prompt},
			{Role: storage.RoleAssistant, Content: "reply"},
		})
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(filepath.Join(f.store.Dir(), key+".json"), mod, mod))
		return key
	}
	older := save("older question", now.Add(-time.Hour))
	newer := save("newer question", now)

	out := f.run(t, "/list", "/open 2")

	assert.Contains(t, out, "Newer question")
	assert.Contains(t, out, "Opened Older question")
	assert.Equal(t, chat.ConversationID(older), f.session.ID())

	f.out.Reset()
	f.run(t, "/open "+newer)
	assert.Equal(t, chat.ConversationID(newer), f.session.ID())
}

func TestREPL_OpenErrors(t *testing.T) {
	f := newReplFixture(t, "sk-test")

	out := f.run(t, "/open", "/open 3", "/open missing")

	assert.Contains(t, out, "usage: /open")
	assert.Contains(t, out, "no conversation #3")
	assert.Contains(t, out, "not found")
	assert.True(t, f.session.ID().IsNew())
}

func TestREPL_Model(t *testing.T) {
	f := newReplFixture(t, "sk-test")

	out := f.run(t, "/model", "/model gpt-4", "/model gpt-17", "hi")

	assert.Contains(t, out, "Available:")
	assert.Contains(t, out, "Model set to gpt-4")
	assert.Contains(t, out, "unknown model")
	require.Len(t, f.completer.requests, 1)
	assert.Equal(t, "gpt-4", f.completer.requests[0].Model)
}

func TestREPL_NewResetsConversation(t *testing.T) {
	f := newReplFixture(t, "sk-test")

	f.run(t, "Hello there", "/new")

	assert.True(t, f.session.ID().IsNew())
	assert.Empty(t, f.session.Messages())
}

func TestREPL_UnknownCommand(t *testing.T) {
	f := newReplFixture(t, "sk-test")
	out := f.run(t, "/bogus")
	assert.Contains(t, out, "unknown command /bogus")
}

func TestREPL_AbortedPromptContinues(t *testing.T) {
	f := newReplFixture(t, "sk-test")
	reader := &scriptedReader{
		lines: []string{"Hello there"},
		errs:  map[int]error{0: liner.ErrPromptAborted},
	}

	r := newREPL(f.store, f.session, reader, &f.out)
	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, f.out.String(), "Use /quit")
	assert.Len(t, f.completer.requests, 1)
}

func TestStreamPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &streamPrinter{w: &buf}

	p.print("Hel")
	p.print("Hello")
	p.print("Hello")
	p.print("Hello, world")
	p.finish()

	assert.Equal(t, "Hello, world\n\n", buf.String())
}
