// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/config"
	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

type env struct {
	home    string
	dataDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{"DERSINGPT_MODEL", "DERSINGPT_DATA_DIR", "DERSINGPT_BASE_URL", "DERSINGPT_LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return &env{home: home, dataDir: filepath.Join(home, "data")}
}

// run executes the command line with the test data directory.
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := &App{}
	defer app.Close()

	root := NewRootCommand(app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data-dir", e.dataDir, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) store(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(e.dataDir, "conversations"))
	require.NoError(t, err)
	return store
}

func (e *env) save(t *testing.T, prompt, reply string) string {
	t.Helper()
	key, saved, err := e.store(t).Save([]storage.Message{
		{Role: storage.RoleUser, Content: prompt},
		{Role: storage.RoleAssistant, Content: reply},
	})
	require.NoError(t, err)
	require.True(t, saved)
	return key
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dersingpt "+Version)
}

func TestKey_SetAndShow(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "key", "set", "sk-abcdef123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Key saved")
	assert.NotContains(t, out, "sk-abcdef123456")

	stored, err := credential.NewStore(filepath.Join(e.dataDir, "configs")).Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef123456", stored)

	out, err = e.run(t, "key", "show")
	require.NoError(t, err)
	assert.Contains(t, out, credential.Mask("sk-abcdef123456"))
}

func TestKey_SetEmpty(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "key", "set", "   ")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestList_Empty(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations yet.")
}

func TestList_AndSearch(t *testing.T) {
	e := newEnv(t)
	coffee := e.save(t, "make coffee", "Boil water first.")
	tea := e.save(t, "brew tea", "Steep for three minutes.")

	out, err := e.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, coffee)
	assert.Contains(t, out, tea)
	assert.Contains(t, out, "Make coffee")

	out, err = e.run(t, "list", "--search", "BOIL")
	require.NoError(t, err)
	assert.Contains(t, out, coffee)
	assert.NotContains(t, out, tea)

	out, err = e.run(t, "list", "--search", "espresso")
	require.NoError(t, err)
	assert.Contains(t, out, `No conversations match "espresso"`)
}

func TestShow(t *testing.T) {
	e := newEnv(t)
	key := e.save(t, "make coffee", "Boil water first.")

	out, err := e.run(t, "show", key)
	require.NoError(t, err)
	assert.Contains(t, out, "# Make coffee")
	assert.Contains(t, out, "## You")
	assert.Contains(t, out, "Boil water first.")
}

func TestShow_Missing(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "show", "nosuchthing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrConversationNotFound))
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestExport_ToFile(t *testing.T) {
	e := newEnv(t)
	key := e.save(t, "make coffee", "Boil water first.")
	target := filepath.Join(t.TempDir(), "out", "coffee.json")

	_, err := e.run(t, "export", key, "--format", "json", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file_key": "makecoffee"`)
}

func TestExport_Stdout(t *testing.T) {
	e := newEnv(t)
	key := e.save(t, "make coffee", "Boil water first.")

	out, err := e.run(t, "export", key, "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "file_key: makecoffee")
}

func TestExport_UnknownFormat(t *testing.T) {
	e := newEnv(t)
	key := e.save(t, "make coffee", "Boil water first.")

	_, err := e.run(t, "export", key, "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestModels(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "--model", "gpt-4", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "* gpt-4")
	assert.Contains(t, out, "  gpt-3.5-turbo")
}

func TestInvalidModelFlag(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "--model", "gpt-17", "models")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestConfig_SetGet(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "set", "model", "gpt-4")
	require.NoError(t, err)
	assert.Contains(t, out, "model = gpt-4")

	path, err := config.ConfigPath()
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err = e.run(t, "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4\n", out)

	out, err = e.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, err = e.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `model = "gpt-4"`)
}

func TestConfig_SetInvalid(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "config", "set", "model", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, err = e.run(t, "config", "set", "no.such.key", "x")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneralError},
		{"usage", usageErrorf("bad"), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "model", Message: "bad"}}, ExitConfigError},
		{"missing key", chat.ErrMissingAPIKey, ExitAuthError},
		{"auth", llm.ErrAuthFailed, ExitAuthError},
		{"not found", storage.ErrConversationNotFound, ExitNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayError_Hint(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, chat.ErrMissingAPIKey)
	assert.Contains(t, buf.String(), "dersingpt key set")
}
