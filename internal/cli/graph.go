package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hexeval/internal/component"
	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/modelgen"
	"github.com/roach88/hexeval/internal/oracle"
	"github.com/roach88/hexeval/internal/plugin"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Edges bool // list dependency edges in text output
}

// GraphResult is the JSON payload of the graph command.
type GraphResult struct {
	Nodes     []GraphNode     `json:"nodes"`
	Edges     []GraphEdge     `json:"edges"`
	Subgraphs []GraphSubgraph `json:"subgraphs"`
}

// GraphNode is one atom node.
type GraphNode struct {
	ID   int    `json:"id"`
	Atom string `json:"atom"`
	Head bool   `json:"head"`
	Body bool   `json:"body"`
}

// GraphEdge is one dependency: To depends on From.
type GraphEdge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Type string `json:"type"`
	Rule int    `json:"rule"` // -1 when the edge is not tied to a rule
}

// GraphSubgraph is one weakly connected part of the graph.
type GraphSubgraph struct {
	Name       string           `json:"name"`
	Atoms      []string         `json:"atoms"`
	Components []GraphComponent `json:"components"`
}

// GraphComponent is one component with its kind and member atoms.
type GraphComponent struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Atoms []string `json:"atoms"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <program>",
		Short: "Show the dependency graph and its components",
		Long: `Build the dependency graph of a program and show how it is partitioned
into subgraphs and components, and which strategy evaluates each component.

The acyclic residue of each subgraph is computed during evaluation and is
not listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Edges, "edges", false, "list dependency edges")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	reg := plugin.DefaultRegistry()
	prog, err := loadProgram(path, reg)
	if err != nil {
		return reportProgramError(formatter, err, ExitCommandError)
	}

	g := depgraph.Build(prog)
	gens := modelgen.NewGenerators(
		oracle.New(oracle.WithLogger(logger)),
		plugin.NewEvaluator(reg).WithLogger(logger),
		modelgen.WithLogger(logger),
	)
	dg, err := component.Partition(g, depgraph.NewFinder(), gens)
	if err != nil {
		return reportProgramError(formatter, err, ExitFailure)
	}

	result := describeGraph(dg)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputGraphText(formatter, result, opts.Edges)
}

// describeGraph flattens a partitioned graph into its output form.
func describeGraph(dg *component.DependencyGraph) GraphResult {
	g := dg.Graph()
	atom := func(id depgraph.NodeID) string { return g.Node(id).Atom().String() }
	atoms := func(ids []depgraph.NodeID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = atom(id)
		}
		return out
	}

	result := GraphResult{
		Nodes:     make([]GraphNode, 0, g.Len()),
		Edges:     []GraphEdge{},
		Subgraphs: make([]GraphSubgraph, 0, len(dg.Subgraphs())),
	}
	for _, n := range g.Nodes() {
		result.Nodes = append(result.Nodes, GraphNode{
			ID:   int(n.ID()),
			Atom: n.Atom().String(),
			Head: n.IsHead(),
			Body: n.IsBody(),
		})
		for _, d := range n.Preceding() {
			result.Edges = append(result.Edges, GraphEdge{
				From: int(d.Target),
				To:   int(n.ID()),
				Type: d.Type.String(),
				Rule: d.Rule,
			})
		}
	}
	for _, sg := range dg.Subgraphs() {
		out := GraphSubgraph{
			Name:       sg.Name(),
			Atoms:      atoms(sg.Nodes()),
			Components: make([]GraphComponent, 0, len(sg.Components())),
		}
		for _, c := range sg.Components() {
			out.Components = append(out.Components, GraphComponent{
				Name:  c.Name(),
				Kind:  c.Kind().String(),
				Atoms: atoms(c.Nodes()),
			})
		}
		result.Subgraphs = append(result.Subgraphs, out)
	}
	return result
}

func outputGraphText(f *OutputFormatter, result GraphResult, edges bool) error {
	w := f.Writer
	fmt.Fprintf(w, "%d node(s), %d edge(s), %d subgraph(s)\n", len(result.Nodes), len(result.Edges), len(result.Subgraphs))

	for _, sg := range result.Subgraphs {
		fmt.Fprintf(w, "\n%s: %s\n", sg.Name, strings.Join(sg.Atoms, ", "))
		for _, c := range sg.Components {
			fmt.Fprintf(w, "  %s [%s] %s\n", c.Name, c.Kind, strings.Join(c.Atoms, ", "))
		}
	}

	if edges {
		fmt.Fprintln(w, "\nEdges:")
		for _, e := range result.Edges {
			fmt.Fprintf(w, "  %s -> %s (%s)\n", result.Nodes[e.From].Atom, result.Nodes[e.To].Atom, e.Type)
		}
	}
	return nil
}
