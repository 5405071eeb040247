package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stepper version "))
}

func TestScenariosCommand(t *testing.T) {
	out, err := execute(t, "scenarios")
	require.NoError(t, err)
	for _, kind := range []string{"sequential", "if-else", "switch", "for-loop", "event-loop", "async-timeline", "equality", "class"} {
		assert.Contains(t, out, kind)
	}
	assert.Contains(t, out, "defaults: ")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "sequential", "--at", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "class s0 visited;")
	assert.Contains(t, out, "class s1 current;")
}

func TestTraceCommand_FromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: sequential\n"), 0644))

	out, err := execute(t, "trace", "--file", path, "--format", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/6] init: Program starts")
	assert.Contains(t, out, "[System] 6 steps")
}

func TestTraceCommand_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "trace", "--file", "")
	assert.ErrorContains(t, err, "a scenario kind or --file is required")

	_, err = execute(t, "trace", "sequential", "--param", "broken")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestSessionCommands_FileStore(t *testing.T) {
	t.Chdir(t.TempDir())

	// Root flags keep their values between executions, so every call sets --store.
	out, err := execute(t, "session", "new", "for-loop", "--id", "demo", "--param", "count=2", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Created session 'demo' (for-loop")

	out, err = execute(t, "session", "ls", "--store", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")

	out, err = execute(t, "session", "inspect", "demo", "--store", "file")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "for-loop"`)

	out, err = execute(t, "session", "rm", "demo", "--store", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'demo'")
}

func TestFormatDefaults(t *testing.T) {
	got := formatDefaults(map[string]any{"value": 75, "left": "a"})
	assert.Equal(t, `left="a" value=75`, got)
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "session", "ls", "--store", "postgres")
	assert.ErrorContains(t, err, "invalid configuration")
}
