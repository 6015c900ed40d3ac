package cfg

import (
	"strings"

	"github.com/cs-au-dk/invariant/utils/dot"
)

// ToDot creates a dot graph of the procedure. Edge blocks are drawn as
// labeled edges between their endpoints. If annotate is not nil, its
// result for a real block is appended to the node label.
func ToDot(g *Cfg, annotate func(*Block) string) *dot.DotGraph {
	G := &dot.DotGraph{
		Title:   g.Name(),
		Options: map[string]string{"rankdir": "TB"},
	}

	nodes := make(map[Label]*dot.DotNode)
	for _, b := range g.blocks {
		if b.kind != KindReal {
			continue
		}
		var sb strings.Builder
		sb.WriteString(b.label.String() + ":\\l")
		for _, s := range b.stmts {
			sb.WriteString("  " + s.String() + "\\l")
		}
		if annotate != nil {
			if ann := annotate(b); ann != "" {
				sb.WriteString(ann + "\\l")
			}
		}

		attrs := dot.DotAttrs{"label": sb.String()}
		switch {
		case b == g.entry:
			attrs["style"] = "bold"
		case g.IsReturn(b):
			attrs["peripheries"] = "2"
		}
		n := &dot.DotNode{ID: b.label.String(), Attrs: attrs}
		nodes[b.label] = n
		G.Nodes = append(G.Nodes, n)
	}

	for _, b := range g.blocks {
		if b.kind != KindReal {
			continue
		}
		for _, s := range b.succs {
			e, isEdge := s.Edge()
			if !isEdge {
				G.Edges = append(G.Edges, &dot.DotEdge{
					From: nodes[b.label], To: nodes[s.label],
				})
				continue
			}
			conds := make([]string, 0, len(s.stmts))
			for _, st := range s.stmts {
				conds = append(conds, st.String())
			}
			G.Edges = append(G.Edges, &dot.DotEdge{
				From:  nodes[e.From],
				To:    nodes[e.To],
				Attrs: dot.DotAttrs{"label": strings.Join(conds, "\\n")},
			})
		}
	}

	return G
}
