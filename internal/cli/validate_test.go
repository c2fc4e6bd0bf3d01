package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validateResponse struct {
	Status string           `json:"status"`
	Data   ValidationResult `json:"data"`
	Error  *CLIError        `json:"error"`
}

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, "validate", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)
	assert.Equal(t, "✓ Program valid\n", out)
}

func TestValidate_InfoNotesNeedVerbose(t *testing.T) {
	out, err := execute(t, "--verbose", "validate", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)
	assert.Equal(t, "info: cycle through negation or disjunction: a, b\n✓ Program valid\n", out)

	out, err = execute(t, "--format", "json", "validate", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, "info", resp.Data.Warnings[0].Level)
}

func TestValidate_CycleWarnings(t *testing.T) {
	out, err := execute(t, "validate", "testdata/programs/diff.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: cycle through external atoms needs guess and check")
	assert.Contains(t, out, "✓ Program valid")

	out, err = execute(t, "--format", "json", "validate", "testdata/programs/diff.cue")
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Warnings)
	assert.Equal(t, "guess-check", resp.Data.Warnings[0].Kind)
	assert.Equal(t, "warning", resp.Data.Warnings[0].Level)
}

func TestValidate_Invalid(t *testing.T) {
	out, err := execute(t, "validate", "testdata/programs/unsafe.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E202: rules[0]: unsafe variables X")

	out, err = execute(t, "--format", "json", "validate", "testdata/programs/unsafe.yaml")
	require.Error(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E202", resp.Data.Errors[0].Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "testdata/programs/missing.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_SyntaxError(t *testing.T) {
	path := writeProgram(t, "broken.yaml", "rules:\n  - \"p(X :- q(X).\"\n")

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E200")
}
