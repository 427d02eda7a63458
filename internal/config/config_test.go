package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigPassesValidation(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesProjectFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", t.TempDir()) // keep the user config path out of the way
	defer os.Unsetenv("XDG_CONFIG_HOME")

	yamlBody := "dataDir: " + filepath.Join(dir, "data") + "\nsemanticIndex:\n  maxElements: 500\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, 500, cfg.SemanticIndex.MaxElements)
	assert.Equal(t, 16, cfg.SemanticIndex.M, "unset fields keep their default")
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer os.Unsetenv("XDG_CONFIG_HOME")

	yamlBody := "dataDir: " + filepath.Join(dir, "from-file") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(yamlBody), 0o644))

	envDir := filepath.Join(dir, "from-env")
	os.Setenv("MEMORIA_DATA_DIR", envDir)
	defer os.Unsetenv("MEMORIA_DATA_DIR")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, envDir, cfg.DataDir)
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTuning(t *testing.T) {
	cfg := NewConfig()
	cfg.SemanticIndex.EfSearch = 0
	assert.Error(t, cfg.Validate())
}

func TestLogFilePathDefaultsUnderDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.DataDir = "/tmp/memoria-test"
	assert.Equal(t, filepath.Join("/tmp/memoria-test", "logs", "memoria.log"), cfg.LogFilePath())
}
