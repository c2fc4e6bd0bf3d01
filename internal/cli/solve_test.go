package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
)

// solveResponse mirrors CLIResponse with a typed payload.
type solveResponse struct {
	Status string      `json:"status"`
	Data   SolveResult `json:"data"`
	Error  *CLIError   `json:"error"`
	RunID  string      `json:"run_id"`
}

func decodeSolve(t *testing.T, out string) solveResponse {
	t.Helper()
	var resp solveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestSolve_Text(t *testing.T) {
	out, err := execute(t, "solve", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Answer 1: {a}\nAnswer 2: {b}\nSATISFIABLE (2 answer set(s))\n", out)
}

func TestSolve_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "solve", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)

	resp := decodeSolve(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "solved", resp.Data.Status)
	assert.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, resp.Data.Models)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, resp.Data.RunID, resp.RunID)
}

func TestSolve_Inconsistent(t *testing.T) {
	out, err := execute(t, "solve", "testdata/programs/inconsistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, "INCONSISTENT\n", out)

	out, err = execute(t, "--format", "json", "solve", "testdata/programs/inconsistent.yaml")
	require.NoError(t, err)
	resp := decodeSolve(t, out)
	assert.Equal(t, "inconsistent", resp.Data.Status)
	assert.Equal(t, 0, resp.Data.Count)
	assert.Empty(t, resp.Data.Models)
}

func TestSolve_Filter(t *testing.T) {
	out, err := execute(t, "--format", "json", "solve", "testdata/programs/diff.cue", "--filter", "p")
	require.NoError(t, err)

	resp := decodeSolve(t, out)
	assert.Equal(t, [][]string{{}, {"p(1)"}, {"p(1)", "p(2)"}, {"p(2)"}}, resp.Data.Models)
}

func TestSolve_MaxModels(t *testing.T) {
	out, err := execute(t, "solve", "testdata/programs/disjunction.yaml", "--max-models", "1")
	require.NoError(t, err)
	assert.Equal(t, "Answer 1: {a}\nSATISFIABLE (2 answer set(s))\n", out)

	_, err = execute(t, "solve", "testdata/programs/disjunction.yaml", "--max-models", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSolve_MissingFile(t *testing.T) {
	out, err := execute(t, "solve", "testdata/programs/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "program not found")
}

func TestSolve_InvalidProgram(t *testing.T) {
	out, err := execute(t, "solve", "testdata/programs/unsafe.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E202")
	assert.Contains(t, out, "unsafe variables X")

	out, err = execute(t, "--format", "json", "solve", "testdata/programs/unsafe.yaml")
	require.Error(t, err)
	resp := decodeSolve(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)
}

func TestSolve_PluginError(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister(plugin.Atom{
		Name:        "bad",
		InputKinds:  []ir.InputKind{ir.InputConstant},
		OutputArity: 1,
		Retrieve: func(context.Context, plugin.Query) ([]plugin.Tuple, error) {
			return []plugin.Tuple{{ir.Const("a"), ir.Const("b")}}, nil
		},
	})
	path := writeProgram(t, "bad.yaml", "rules:\n  - \"p(X) :- &bad[c](X).\"\n")

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	opts := &SolveOptions{RootOptions: &RootOptions{Format: "json"}, Registry: reg}

	err := runSolve(context.Background(), opts, path, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeSolve(t, out.String())
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(ir.ErrCodePlugin), resp.Error.Code)
}

func TestProject(t *testing.T) {
	models := []ir.Interpretation{
		mustInterp(t, "a", "p(1)"),
		mustInterp(t, "b", "p(1)"),
		mustInterp(t, "q(2)"),
	}
	got := project(models, []string{"p", " q"})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"p(1)"}, got[0].Strings())
	assert.Equal(t, []string{"q(2)"}, got[1].Strings())
}

func mustInterp(t *testing.T, atoms ...string) ir.Interpretation {
	t.Helper()
	i, err := ir.ParseInterpretation(atoms...)
	require.NoError(t, err)
	return i
}

func writeProgram(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
