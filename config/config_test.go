package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/app"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingDefaultFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"TASKBOARD_BACKEND", "TASKBOARD_DATA_DIR", "TASKBOARD_KEY",
		"TASKBOARD_LOG_LEVEL", "TASKBOARD_LOG_FORMAT", "TASKBOARD_LOG_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, app.DefaultKey, cfg.Storage.Key)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)

	_, err = LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLogFileFollowsDataDir(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("TASKBOARD_DATA_DIR", dataDir)
	t.Setenv("TASKBOARD_LOG_FILE", "")

	cfg, err := Load(writeConfig(t, "[storage]\nbackend = \"file\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "taskboard.log"), cfg.LogFile())

	// A data dir applied after Load, as the -data-dir flag does, moves it too.
	other := t.TempDir()
	cfg.Storage.DataDir = other
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, filepath.Join(other, "taskboard.log"), cfg.LogFile())

	cfg.Log.File = filepath.Join(other, "custom.log")
	assert.Equal(t, filepath.Join(other, "custom.log"), cfg.LogFile())
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "sqlite"
data_dir = "/tmp/tasks"

[log]
level = "debug"
format = "json"
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/tasks", cfg.Storage.DataDir)
	assert.Equal(t, app.DefaultKey, cfg.Storage.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/tasks/taskboard.db", cfg.SQLitePath())
}

func TestLoadFromInvalidTOML(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "[storage\nbackend ="))
	assert.Error(t, err)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "sqlite"
`)
	t.Setenv("TASKBOARD_BACKEND", "memory")
	t.Setenv("TASKBOARD_KEY", "work")
	t.Setenv("TASKBOARD_LOG_LEVEL", "warn")
	t.Setenv("TASKBOARD_DATA_DIR", "~/tasks")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "work", cfg.Storage.Key)
	assert.Equal(t, "warn", cfg.Log.Level)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tasks"), cfg.Storage.DataDir)
}

func TestFinalizeRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "cloud"
	assert.Error(t, cfg.Finalize())

	cfg = Default()
	cfg.Storage.Key = "  "
	assert.Error(t, cfg.Finalize())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Finalize())

	cfg = Default()
	cfg.Storage.Backend = " SQLite "
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)

	cfg = Default()
	cfg.Log.Format = " JSON "
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, "json", cfg.Log.Format)
}
