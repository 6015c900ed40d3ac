// Package liveness computes the variables live at every block of a
// procedure with a backward dataflow analysis.
package liveness

import (
	"fmt"
	"sync"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/utils/pq"

	"golang.org/x/tools/container/intsets"
)

// Liveness holds the live variables at the entry and exit of every block.
// The outputs of the procedure are live at its exit.
type Liveness struct {
	g     *cfg.Cfg
	vars  []linear.Var
	index map[linear.Var]int
	in    map[*cfg.Block]*intsets.Sparse
	out   map[*cfg.Block]*intsets.Sparse
}

// Stats summarizes the number of live variables per block.
type Stats struct {
	// Total number of variables live at the entry of some block.
	Total       int
	MaxPerBlock int
	AvgPerBlock float64
}

func (s Stats) String() string {
	return fmt.Sprintf("total %d, max per block %d, avg per block %.2f", s.Total, s.MaxPerBlock, s.AvgPerBlock)
}

// Analyze computes the liveness of every variable of g.
func Analyze(g *cfg.Cfg) *Liveness {
	l := &Liveness{
		g:     g,
		vars:  g.Vars(),
		index: make(map[linear.Var]int),
		in:    make(map[*cfg.Block]*intsets.Sparse),
		out:   make(map[*cfg.Block]*intsets.Sparse),
	}
	for i, v := range l.vars {
		l.index[v] = i
	}

	order := make(map[*cfg.Block]int, len(g.Blocks()))
	for i, b := range g.Blocks() {
		order[b] = i
		l.in[b] = &intsets.Sparse{}
		l.out[b] = &intsets.Sparse{}
	}
	for _, ret := range g.Returns() {
		l.addAll(l.out[ret], g.Decl().Outputs)
	}

	// Later blocks first, so that most successors are visited before
	// their predecessors.
	W := pq.Empty(func(a, b *cfg.Block) bool { return order[a] > order[b] })
	for _, b := range g.Blocks() {
		W.Add(b)
	}

	for !W.IsEmpty() {
		b := W.GetNext()

		out := l.out[b]
		for _, s := range b.Succs() {
			out.UnionWith(l.in[s])
		}

		var in intsets.Sparse
		in.Copy(out)
		stmts := b.Stmts()
		for i := len(stmts) - 1; i >= 0; i-- {
			for _, v := range stmts[i].Defs() {
				in.Remove(l.index[v])
			}
			l.addAll(&in, stmts[i].Uses())
		}

		if !in.Equals(l.in[b]) {
			l.in[b] = &in
			for _, p := range b.Preds() {
				W.Add(p)
			}
		}
	}

	return l
}

func (l *Liveness) addAll(s *intsets.Sparse, vs []linear.Var) {
	for _, v := range vs {
		s.Insert(l.index[v])
	}
}

func (l *Liveness) toVars(s *intsets.Sparse) []linear.Var {
	res := make([]linear.Var, 0, s.Len())
	for _, i := range s.AppendTo(nil) {
		res = append(res, l.vars[i])
	}
	return res
}

// Cfg returns the analyzed procedure.
func (l *Liveness) Cfg() *cfg.Cfg { return l.g }

// LiveIn returns the variables live at the entry of b, sorted.
func (l *Liveness) LiveIn(b *cfg.Block) []linear.Var {
	return l.toVars(l.in[b])
}

// LiveOut returns the variables live at the exit of b, sorted.
func (l *Liveness) LiveOut(b *cfg.Block) []linear.Var {
	return l.toVars(l.out[b])
}

// Dead returns the variables that are live at the entry of b or mentioned
// by b, but dead at its exit.
func (l *Liveness) Dead(b *cfg.Block) []linear.Var {
	var dead intsets.Sparse
	dead.Copy(l.in[b])
	for _, s := range b.Stmts() {
		l.addAll(&dead, s.Defs())
		l.addAll(&dead, s.Uses())
	}
	dead.DifferenceWith(l.out[b])
	return l.toVars(&dead)
}

// Stats computes the live variable statistics of the procedure.
func (l *Liveness) Stats() (st Stats) {
	var all intsets.Sparse
	sum := 0
	for _, b := range l.g.Blocks() {
		n := l.in[b].Len()
		sum += n
		if n > st.MaxPerBlock {
			st.MaxPerBlock = n
		}
		all.UnionWith(l.in[b])
	}
	st.Total = all.Len()
	if n := len(l.g.Blocks()); n > 0 {
		st.AvgPerBlock = float64(sum) / float64(n)
	}
	return
}

// Cache memoizes liveness per procedure. It is safe for concurrent use.
type Cache struct {
	mu sync.Mutex
	m  map[*cfg.Cfg]*Liveness
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{m: make(map[*cfg.Cfg]*Liveness)}
}

// Get returns the liveness of g, computing it on first use.
func (c *Cache) Get(g *cfg.Cfg) *Liveness {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.m[g]; ok {
		return l
	}
	l := Analyze(g)
	c.m[g] = l
	return l
}
