// Package callgraph relates procedures through their call sites.
// Nodes are identified by the position of the procedure in the program.
package callgraph

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/cfg"

	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrDuplicateProc is returned when two procedures share a name.
var ErrDuplicateProc = errors.New("duplicate procedure")

// Graph is an immutable call graph.
type Graph struct {
	procs []*cfg.Cfg
	index map[string]int

	g        *simple.DirectedGraph
	reach    *ybgraph.Mutable
	selfLoop map[int]bool

	// Strongly connected components, callees before callers.
	sccs [][]int
	comp []int
}

// New builds the call graph of a program. Calls to procedures outside the
// program are not represented.
func New(procs []*cfg.Cfg) (*Graph, error) {
	cg := &Graph{
		procs:    procs,
		index:    make(map[string]int, len(procs)),
		g:        simple.NewDirectedGraph(),
		reach:    ybgraph.New(len(procs)),
		selfLoop: make(map[int]bool),
		comp:     make([]int, len(procs)),
	}
	for i, p := range procs {
		if _, ok := cg.index[p.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProc, p.Name())
		}
		cg.index[p.Name()] = i
		cg.g.AddNode(simple.Node(i))
	}

	for i, p := range procs {
		for _, site := range p.Calls() {
			j, ok := cg.index[site.Call.Callee]
			if !ok {
				continue
			}
			cg.reach.Add(i, j)
			if i == j {
				cg.selfLoop[i] = true
				continue
			}
			cg.g.SetEdge(cg.g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}

	// Tarjan's algorithm emits components in reverse topological order.
	for ci, scc := range topo.TarjanSCC(cg.g) {
		ids := make([]int, len(scc))
		for k, n := range scc {
			ids[k] = int(n.ID())
			cg.comp[ids[k]] = ci
		}
		cg.sccs = append(cg.sccs, ids)
	}

	return cg, nil
}

func (cg *Graph) id(p *cfg.Cfg) int {
	i, ok := cg.index[p.Name()]
	if !ok || cg.procs[i] != p {
		panic(fmt.Errorf("procedure %s is not part of the call graph", p.Name()))
	}
	return i
}

func (cg *Graph) toProcs(ids []int) []*cfg.Cfg {
	res := make([]*cfg.Cfg, len(ids))
	for k, i := range ids {
		res[k] = cg.procs[i]
	}
	return res
}

// Lookup finds a procedure by name.
func (cg *Graph) Lookup(name string) (*cfg.Cfg, bool) {
	i, ok := cg.index[name]
	if !ok {
		return nil, false
	}
	return cg.procs[i], true
}

// Nodes returns every procedure in program order.
func (cg *Graph) Nodes() []*cfg.Cfg { return cg.procs }

// Callees returns the procedures called by p in program order.
func (cg *Graph) Callees(p *cfg.Cfg) []*cfg.Cfg {
	i := cg.id(p)
	var ids []int
	for j := range cg.procs {
		if cg.reach.Edge(i, j) {
			ids = append(ids, j)
		}
	}
	return cg.toProcs(ids)
}

// Callers returns the procedures calling p in program order.
func (cg *Graph) Callers(p *cfg.Cfg) []*cfg.Cfg {
	j := cg.id(p)
	var ids []int
	for i := range cg.procs {
		if cg.reach.Edge(i, j) {
			ids = append(ids, i)
		}
	}
	return cg.toProcs(ids)
}

// IsRecursive checks whether p may call itself, directly or indirectly.
func (cg *Graph) IsRecursive(p *cfg.Cfg) bool {
	i := cg.id(p)
	return cg.selfLoop[i] || len(cg.sccs[cg.comp[i]]) > 1
}

// Roots returns one procedure per strongly connected component that is
// not called from outside of it, in program order. Every procedure is
// reachable from some root.
func (cg *Graph) Roots() []*cfg.Cfg {
	called := make([]bool, len(cg.sccs))
	for i := range cg.procs {
		for j := range cg.procs {
			if cg.reach.Edge(i, j) && cg.comp[i] != cg.comp[j] {
				called[cg.comp[j]] = true
			}
		}
	}

	seen := make([]bool, len(cg.sccs))
	var ids []int
	for i := range cg.procs {
		c := cg.comp[i]
		if !called[c] && !seen[c] {
			seen[c] = true
			ids = append(ids, i)
		}
	}
	return cg.toProcs(ids)
}

// BottomUp lists the procedures with callees before their callers. The
// members of a recursive component are listed in program order.
func (cg *Graph) BottomUp() []*cfg.Cfg {
	var ids []int
	for _, scc := range cg.sccs {
		members := make([]bool, len(cg.procs))
		for _, i := range scc {
			members[i] = true
		}
		for i := range cg.procs {
			if members[i] {
				ids = append(ids, i)
			}
		}
	}
	return cg.toProcs(ids)
}

// Reachable returns the procedures transitively called from the roots,
// including the roots themselves, in program order.
func (cg *Graph) Reachable(roots ...*cfg.Cfg) []*cfg.Cfg {
	seen := make([]bool, len(cg.procs))
	for _, r := range roots {
		i := cg.id(r)
		seen[i] = true
		ybgraph.BFS(cg.reach, i, func(_, w int, _ int64) {
			seen[w] = true
		})
	}

	var ids []int
	for i, ok := range seen {
		if ok {
			ids = append(ids, i)
		}
	}
	return cg.toProcs(ids)
}
