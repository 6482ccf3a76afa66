package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateWithDetails(cfg))

	assert.Equal(t, "sidechain", cfg.App.Name)
	assert.Equal(t, 20, cfg.Memory.DefaultLimit)
	assert.Equal(t, 3, cfg.Memory.OversampleFactor)
	assert.InDelta(t, 0.7, cfg.Memory.MMRLambda, 1e-12)
	assert.Equal(t, 14*24*time.Hour, cfg.Memory.RecencyHalfLife)
	assert.Equal(t, 1000, cfg.Memory.MaxInteractions)
	assert.InDelta(t, 1.0, cfg.Memory.Weights.Sum(), 1e-9)
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.Weights.Lexical = 0.9 // sum is now > 1

	err := ValidateWithDetails(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestValidate_RejectsUnknownStorageType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Type = "cassandra"

	err := ValidateWithDetails(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte(`
server:
  port: 9999
log:
  level: debug
memory:
  default_limit: 5
`)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Memory.DefaultLimit)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Memory.OversampleFactor)
}

func TestLoad_OverridesWin(t *testing.T) {
	cfg, err := Load("", map[string]interface{}{
		"server.port": 7070,
	})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoader_GetAndSet(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, loader.GetInt("server.port"))
	require.NoError(t, loader.Set("server.port", 1234))
	assert.Equal(t, 1234, loader.GetInt("server.port"))
}

func TestLoad_RejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}
