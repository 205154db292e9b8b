package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/needle/internal/config"
	"github.com/rshade/needle/internal/devserver"
	"github.com/rshade/needle/pkg/version"
)

// newTestSetupCmd creates a testable setup command with captured output.
func newTestSetupCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := NewSetupCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd, buf
}

// runTestSetup executes setup with NEEDLE_HOME pointed at a temp dir.
func runTestSetup(t *testing.T, flags ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())

	cmd, buf := newTestSetupCmd()
	cmd.SetArgs(append([]string{"--non-interactive", "--skip-service-check"}, flags...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name           string
		status         StepStatus
		nonInteractive bool
		expected       string
	}{
		{"success_tty", StepSuccess, false, "✓"},
		{"warning_tty", StepWarning, false, "!"},
		{"skipped_tty", StepSkipped, false, "-"},
		{"error_tty", StepError, false, "✗"},
		{"success_non_interactive", StepSuccess, true, "[OK]"},
		{"warning_non_interactive", StepWarning, true, "[WARN]"},
		{"skipped_non_interactive", StepSkipped, true, "[SKIP]"},
		{"error_non_interactive", StepError, true, "[ERR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatStatus(tt.status, tt.nonInteractive))
		})
	}
}

func TestStepDisplayVersion(t *testing.T) {
	step := stepDisplayVersion()

	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, version.GetVersion())
	assert.Contains(t, step.Message, runtime.Version())
}

func TestStepCreateDirectories(t *testing.T) {
	home := filepath.Join(t.TempDir(), "needle")
	t.Setenv(config.EnvHome, home)

	steps := stepCreateDirectories()

	require.Len(t, steps, 3, "expected config, cache and log directories")
	for _, step := range steps {
		assert.Equal(t, StepSuccess, step.Status)
		assert.True(t, step.Critical)
		assert.Contains(t, step.Message, "Created")
	}
	assert.DirExists(t, home)
	assert.DirExists(t, filepath.Join(home, "cache"))
	assert.DirExists(t, filepath.Join(home, "logs"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(home, "cache"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(dirPermBase), info.Mode().Perm())
	}
}

func TestStepCreateDirectories_AlreadyExist(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "cache"), dirPermBase))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "logs"), dirPermBase))

	for _, step := range stepCreateDirectories() {
		assert.Equal(t, StepSuccess, step.Status)
		assert.Contains(t, step.Message, "exists")
	}
}

func TestStepInitConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	step := stepInitConfig()
	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "Initialized config")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultEndpoint, cfg.Service.Endpoint)

	step = stepInitConfig()
	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "already exists")
}

func TestStepCheckService(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.DefaultFixtures()).Handler())
	defer srv.Close()

	step := stepCheckService(t.Context(), srv.URL)
	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "reachable")

	srv.Close()
	step = stepCheckService(t.Context(), srv.URL)
	assert.Equal(t, StepWarning, step.Status)
	assert.False(t, step.Critical)
	assert.Contains(t, step.Message, config.EnvEndpoint)
}

func TestSetupIdempotency(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	for range 2 {
		cmd, buf := newTestSetupCmd()
		cmd.SetArgs([]string{"--non-interactive", "--skip-service-check"})
		require.NoError(t, cmd.Execute(), buf.String())
		assert.Contains(t, buf.String(), "Setup complete!")
	}
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
}

func TestSetupNonInteractive(t *testing.T) {
	out, err := runTestSetup(t)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "[SKIP] Skipped service check")
	assert.NotContains(t, out, "✓")
}

func TestSetupUnwritableHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o500))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o700) })
	t.Setenv(config.EnvHome, filepath.Join(parent, "needle"))

	cmd, buf := newTestSetupCmd()
	cmd.SetArgs([]string{"--non-interactive", "--skip-service-check"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(buf.String(), "[ERR]"), buf.String())
	assert.Contains(t, buf.String(), config.EnvHome)
}
