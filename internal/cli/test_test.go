package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingScenario = `name: wrong
description: "Expects an answer set the program does not have"
program:
  rules:
    - "a v b."
expect:
  models:
    - ["a", "b"]
`

func TestTest_Pass(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ disjunction\n")
	assert.Contains(t, out, "✓ negation\n")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--filter", "neg*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "disjunction")
}

func TestTest_Failure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(failingScenario), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong\n")
	assert.Contains(t, out, "answer sets mismatch")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")

	out, err = execute(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTest_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken\n")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_UpdateGolden(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/scenarios/negation.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "negation.yaml"), data, 0644))

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ negation (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "negation.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"negation"`)

	out, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ negation\n")

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "negation.golden"), []byte(`{"stale":true}`), 0644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_Parallel(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/scenarios/negation.yaml")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0644))
	}

	out, err := execute(t, "test", dir, "--parallel", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
}

func TestTest_Errors(t *testing.T) {
	_, err := execute(t, "test", "testdata/missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "test", "testdata/scenarios", "--parallel", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "diff.golden"), goldenFilePath(filepath.Join("scenarios", "diff.yaml")))
}
