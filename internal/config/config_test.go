package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/logging"
	"github.com/rshade/needle/internal/storage"
)

// isolate points NEEDLE_HOME at a temp dir and moves into an empty working
// directory so no user config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Chdir(t.TempDir())
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.DefaultEndpoint, cfg.Service.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, cache.DefaultTTLSeconds, cfg.Cache.TTLSeconds)
	assert.Equal(t, "needleQueryCache", cfg.Cache.Key)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, config.FormatTable, cfg.Output.DefaultFormat)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"relative endpoint", func(c *config.Config) { c.Service.Endpoint = "localhost:8000" }, config.ErrInvalidEndpoint},
		{"ftp endpoint", func(c *config.Config) { c.Service.Endpoint = "ftp://host" }, config.ErrInvalidEndpoint},
		{"zero timeout", func(c *config.Config) { c.Service.Timeout = 0 }, config.ErrInvalidTimeout},
		{"zero ttl", func(c *config.Config) { c.Cache.TTLSeconds = 0 }, cache.ErrInvalidTTL},
		{"bad backend", func(c *config.Config) { c.Storage.Backend = "redis" }, storage.ErrUnknownBackend},
		{"bad output", func(c *config.Config) { c.Output.DefaultFormat = "csv" }, config.ErrInvalidOutputFormat},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }, config.ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.Default()
	cfg.Service.Endpoint = "https://needle.example.com"
	cfg.Service.Timeout = 10 * time.Second
	cfg.Cache.TTLSeconds = 120

	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeOverlay(t, "cache:\n  ttl_seconds: -4\n")
	_, err := config.Load(path)
	require.ErrorIs(t, err, cache.ErrInvalidTTL)
}

func TestNew_Layering(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(`
service:
  endpoint: https://global.example.com
cache:
  ttl_seconds: 600
output:
  default_format: plain
`), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(wd, config.ProjectOverlayName), []byte(`
cache:
  ttl_seconds: 90
`), 0o600))
	t.Setenv(config.EnvOutputFormat, "JSON")

	cfg := config.New()

	assert.Equal(t, "https://global.example.com", cfg.Service.Endpoint)
	assert.Equal(t, 90, cfg.Cache.TTLSeconds, "project overlay beats global file")
	assert.Equal(t, "json", cfg.Output.DefaultFormat, "environment beats files")
}

func TestNew_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("NEEDLE_ENDPOINT=http://dotenv.local:8000\n"), 0o600))
	t.Setenv(config.EnvEndpoint, "")
	require.NoError(t, os.Unsetenv(config.EnvEndpoint))

	cfg := config.New()
	assert.Equal(t, "http://dotenv.local:8000", cfg.Service.Endpoint)
}

func TestGlobalConfig(t *testing.T) {
	isolate(t)
	first := config.GetGlobalConfig()
	assert.Same(t, first, config.GetGlobalConfig())
	assert.Equal(t, config.FormatTable, config.GetDefaultOutputFormat())

	config.ResetGlobalConfigForTest()
	assert.NotSame(t, first, config.GetGlobalConfig())
}

func TestDirectories(t *testing.T) {
	home := isolate(t)
	assert.Equal(t, home, config.ResolveConfigDir())
	assert.Equal(t, filepath.Join(home, "config.yaml"), config.ConfigPath())
	assert.Equal(t, filepath.Join(home, "cache"), config.DefaultStorageDir())

	opts := config.Default().StorageOptions()
	assert.Equal(t, filepath.Join(home, "cache"), opts.Directory)
	assert.Equal(t, storage.BackendFile, opts.Backend)
}

func TestFindProjectOverlay(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	assert.Empty(t, config.FindProjectOverlay(nested))

	overlay := filepath.Join(root, "a", config.ProjectOverlayName)
	require.NoError(t, os.WriteFile(overlay, []byte("{}\n"), 0o600))
	assert.Equal(t, overlay, config.FindProjectOverlay(nested))
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputStderr, got.Output)
	assert.Empty(t, got.File)

	lc.File = "/tmp/needle.log"
	got = lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/needle.log", got.File)
	assert.Equal(t, "debug", got.Level)
}
