package cli_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/needle/internal/config"
)

func TestConfigInit_WritesDefaults(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "config", "init")
	require.NoError(t, err)

	cfg, err := config.Load(config.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	info, err := os.Stat(config.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	testEnv(t)

	require.NoError(t, os.WriteFile(config.ConfigPath(), []byte("service:\n  endpoint: https://keep.example.com\n"), 0o600))

	_, err := execute(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	cfg, err := config.Load(config.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "https://keep.example.com", cfg.Service.Endpoint)
}
