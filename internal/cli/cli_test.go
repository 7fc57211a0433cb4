package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd)
	assert.Equal(t, "poolctl", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	commands := cmd.Commands()
	assert.Len(t, commands, 3)

	commandNames := make(map[string]bool)
	for _, c := range commands {
		commandNames[c.Use] = true
	}
	assert.True(t, commandNames["run"])
	assert.True(t, commandNames["status"])
	assert.True(t, commandNames["resize"])

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "configs/default.yaml", configFlag.DefValue)
}

func TestBuildRunCommand(t *testing.T) {
	cmd := buildRunCommand()
	assert.Equal(t, "run", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestBuildStatusCommand(t *testing.T) {
	cmd := buildStatusCommand()
	assert.Equal(t, "status", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestBuildResizeCommand(t *testing.T) {
	cmd := buildResizeCommand()
	assert.Equal(t, "resize", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("lower"))
	assert.NotNil(t, cmd.Flags().Lookup("upper"))
}

func TestShowStatusReportsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  initial_size: 2
  lower: 1
  upper: 4
log:
  level: debug
`), 0o644))

	assert.NoError(t, showStatus(path))
}

func TestShowStatusMissingConfigFails(t *testing.T) {
	err := showStatus(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResizeDryRunAcceptsValidBound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  initial_size: 0
  upper: 5
`), 0o644))

	err := resizeDryRun(path, 0, false, 3, true)
	assert.NoError(t, err)
}

func TestResizeDryRunRejectsBoundViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  initial_size: 0
  upper: 2
`), 0o644))

	err := resizeDryRun(path, 5, true, 0, false)
	assert.Error(t, err)
}
