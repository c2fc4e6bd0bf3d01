package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Text(t *testing.T) {
	out, err := execute(t, "graph", "testdata/programs/disjunction.yaml")
	require.NoError(t, err)
	assert.Equal(t, "2 node(s), 2 edge(s), 1 subgraph(s)\n\nwcc0: a, b\n  c0 [ordinary] a, b\n", out)

	out, err = execute(t, "graph", "testdata/programs/disjunction.yaml", "--edges")
	require.NoError(t, err)
	assert.Contains(t, out, "Edges:\n")
	assert.Contains(t, out, "  a -> b (DISJUNCTIVE)\n")
	assert.Contains(t, out, "  b -> a (DISJUNCTIVE)\n")
}

func TestGraph_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "graph", "testdata/programs/diff.cue")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   GraphResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.Nodes)
	assert.NotEmpty(t, resp.Data.Edges)

	var kinds []string
	for _, sg := range resp.Data.Subgraphs {
		for _, c := range sg.Components {
			kinds = append(kinds, c.Kind)
		}
	}
	assert.Contains(t, kinds, "guess-check")

	for _, e := range resp.Data.Edges {
		assert.Less(t, e.From, len(resp.Data.Nodes))
		assert.Less(t, e.To, len(resp.Data.Nodes))
	}
}

func TestGraph_InvalidProgram(t *testing.T) {
	_, err := execute(t, "graph", "testdata/programs/unsafe.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
