package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "greenrun demo")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["demo"], "expected 'demo' subcommand")
	assert.True(t, names["version"], "expected 'version' subcommand")
}

func TestExecute_UnknownCommand(t *testing.T) {
	_, _, err := execute(t, "unknown-command-xyz")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "greenrun v9.9.9 ("), stdout)
}

func TestRootCommand_EnvVarBinding(t *testing.T) {
	t.Setenv("GREENRUN_TASKS", "1")
	t.Setenv("GREENRUN_CAPACITY", "2")
	t.Setenv("GREENRUN_STACK_SIZE", "4096")
	t.Setenv("GREENRUN_LOG_LEVEL", "error")

	stdout, _, err := execute(t, "demo")
	require.NoError(t, err)
	assert.Equal(t, "1 STARTING\nroutine: 1 counter: 0\n1 FINISHED\n", stdout)
}

func TestRootCommand_FlagOverridesEnv(t *testing.T) {
	t.Setenv("GREENRUN_TASKS", "5")

	stdout, _, err := execute(t, "demo", "--tasks", "0", "--capacity", "2", "--stack-size", "4096", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "1 STARTING\n1 FINISHED\n", stdout)
}

func TestRootCommand_CustomConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks: \"1,1\"\ncapacity: 3\nstack-size: 4096\nlog-level: error\n"), 0o644))

	stdout, stderr, err := execute(t, "demo", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Using config file: "+path)
	assert.Equal(t, 2, strings.Count(stdout, "FINISHED"))
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "demo", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
