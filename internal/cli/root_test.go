package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its standard
// output. Diagnostics and logs are captured separately and discarded.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(diag)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hexeval", cmd.Use)
	assert.Contains(t, cmd.Long, "external atoms")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"solve", "validate", "graph", "test", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestSolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	solveCmd, _, err := cmd.Find([]string{"solve"})
	require.NoError(t, err)

	for _, name := range []string{"db", "max-models", "max-rounds", "internal", "filter"} {
		assert.NotNil(t, solveCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "testdata/programs/disjunction.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
