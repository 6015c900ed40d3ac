package main

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/invariant/analysis/callgraph"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/utils/graph"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var analyze bool
	cmd := &cobra.Command{
		Use:   "stats FILE",
		Short: "Print procedure metrics of FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0])
			if err != nil {
				return err
			}
			msg, err := p.metrics(analyze, cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), msg)
			return err
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Also run the analysis and summarize the checks")
	return cmd
}

func (p *pipeline) metrics(analyze bool, cmd *cobra.Command) (string, error) {
	cg, err := callgraph.New(p.cfgs)
	if err != nil {
		return "", err
	}
	live := liveness.NewCache()

	msg := "================ Results =====================\n\n"

	// Callees are listed before their callers.
	for _, g := range cg.BottomUp() {
		msg += "Procedure: " + g.Name() + "\n"
		msg += fmt.Sprintf("Blocks: %d (%d reachable)\n", len(g.Blocks()), reachable(g))
		msg += fmt.Sprintf("Variables: %d\n", len(g.Vars()))
		msg += "Live variables: " + live.Get(g).Stats().String() + "\n"
		if cg.IsRecursive(g) {
			msg += "Recursive: yes\n"
		}
		if callees := cg.Callees(g); len(callees) > 0 {
			msg += "Calls: " + procNames(callees) + "\n"
		}
		if callers := cg.Callers(g); len(callers) > 0 {
			msg += "Called by: " + procNames(callers) + "\n"
		}
		msg += "\n"
	}

	msg += "Roots: " + procNames(cg.Roots()) + "\n"

	if analyze {
		store, err := p.analyze(cmd.Context())
		if err != nil {
			return "", err
		}
		msg += "Checks: " + store.Checks().Summary().String() + "\n"
	}
	msg += "==============================================\n"
	return msg, nil
}

func procNames(gs []*cfg.Cfg) string {
	names := make([]string, len(gs))
	for i, g := range gs {
		names[i] = g.Name()
	}
	return strings.Join(names, ", ")
}

// reachable counts the blocks reachable from the entry of g.
func reachable(g *cfg.Cfg) (n int) {
	G := graph.OfHashable(func(b *cfg.Block) []*cfg.Block { return b.Succs() })
	G.BFS(g.Entry(), func(*cfg.Block) bool {
		n++
		return false
	})
	return
}
