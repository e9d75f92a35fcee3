package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MCPServers)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/bin/other"}}
}`), 0644))

	binary := filepath.Join(dir, "mcp-server")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	require.NoError(t, Register(path, Options{BinaryPath: binary, DataDir: filepath.Join(dir, "data")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"dark"`, string(raw["theme"]))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/other", cfg.MCPServers["other"].Command)
	entry := cfg.MCPServers[ServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, filepath.Join(dir, "data"), entry.Env[DataDirEnv])
}

func TestRegister_RequiresBinary(t *testing.T) {
	assert.Error(t, Register(filepath.Join(t.TempDir(), "c.json"), Options{}))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	dataDir := filepath.Join(dir, "data")

	status, err := Inspect(path)
	require.NoError(t, err)
	assert.False(t, status.Registered)

	require.NoError(t, Register(path, Options{BinaryPath: filepath.Join(dir, "missing"), DataDir: dataDir}))
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "history.db"), nil, 0644))

	status, err = Inspect(path)
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.False(t, status.BinaryExists)
	assert.Equal(t, dataDir, status.DataDir)
	assert.True(t, status.DataDirReady)
	assert.True(t, status.HistoryDB)
}

func TestFindBinary_NotFound(t *testing.T) {
	_, err := FindBinary("health-analytics-binary-that-does-not-exist")
	assert.Error(t, err)
}
