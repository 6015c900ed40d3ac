// Package results holds the invariants, infeasible edges and check
// verdicts produced by the analyses of a session.
package results

import (
	"fmt"
	"io"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/domains"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/utils"

	"github.com/fatih/color"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	colorProc  = utils.Colorizer(color.FgHiMagenta, color.Bold)
	colorBlock = utils.Colorizer(color.FgHiBlue)
)

// Ref identifies a real block of a procedure.
type Ref struct {
	Proc  string
	Block cfg.Label
}

func (r Ref) String() string { return r.Proc + ":" + r.Block.String() }

// EdgeRef identifies a control flow edge of a procedure.
type EdgeRef struct {
	Proc string
	cfg.Edge
}

func (e EdgeRef) String() string { return e.Proc + ":" + e.Edge.String() }

// Store is the result store of a session. Invariants are only recorded
// for real blocks.
type Store struct {
	pre, post  map[Ref]absval.Value
	shadows    map[string][]linear.Var
	infeasible map[EdgeRef]struct{}
	checks     *checks.DB
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		pre:        make(map[Ref]absval.Value),
		post:       make(map[Ref]absval.Value),
		shadows:    make(map[string][]linear.Var),
		infeasible: make(map[EdgeRef]struct{}),
		checks:     &checks.DB{},
	}
}

func (s *Store) set(m map[Ref]absval.Value, g *cfg.Cfg, b *cfg.Block, v absval.Value) {
	b.MustBeValid()
	if b.IsEdgeBlock() {
		return
	}
	if _, ok := s.shadows[g.Name()]; !ok {
		s.shadows[g.Name()] = g.Shadows()
	}
	m[Ref{g.Name(), b.Label()}] = v
}

// SetPre records the invariant holding at the entry of b.
func (s *Store) SetPre(g *cfg.Cfg, b *cfg.Block, v absval.Value) { s.set(s.pre, g, b, v) }

// SetPost records the invariant holding at the exit of b.
func (s *Store) SetPost(g *cfg.Cfg, b *cfg.Block, v absval.Value) { s.set(s.post, g, b, v) }

// AddInfeasibleEdge records that control never flows from e.From to e.To.
func (s *Store) AddInfeasibleEdge(proc string, e cfg.Edge) {
	s.infeasible[EdgeRef{proc, e}] = struct{}{}
}

func (s *Store) lookup(m map[Ref]absval.Value, ref Ref, keepShadows bool) (absval.Value, bool) {
	v, ok := m[ref]
	if !ok {
		return nil, false
	}
	if !keepShadows {
		if shadows := s.shadows[ref.Proc]; len(shadows) > 0 {
			v = v.Forget(shadows...)
		}
	}
	return v, true
}

// Pre returns the invariant at the entry of a block.
// Shadow variables are elided unless keepShadows is set.
func (s *Store) Pre(ref Ref, keepShadows bool) (absval.Value, bool) {
	return s.lookup(s.pre, ref, keepShadows)
}

// Post returns the invariant at the exit of a block.
// Shadow variables are elided unless keepShadows is set.
func (s *Store) Post(ref Ref, keepShadows bool) (absval.Value, bool) {
	return s.lookup(s.post, ref, keepShadows)
}

// Range returns the interval of values v may take at the entry of a block.
func (s *Store) Range(ref Ref, v linear.Var) (domains.Interval, bool) {
	inv, ok := s.pre[ref]
	if !ok {
		return domains.Interval{}, false
	}
	if inv.IsBottom() {
		return domains.BotInterval(), true
	}
	env := domains.FromConstraints[domains.Intervals](inv.Project(v).ToConstraints())
	return env.Get(v), true
}

// IsEdgeFeasible checks whether the edge may be taken. Edges are feasible
// unless an analysis proved otherwise.
func (s *Store) IsEdgeFeasible(proc string, from, to cfg.Label) bool {
	_, found := s.infeasible[EdgeRef{proc, cfg.Edge{From: from, To: to}}]
	return !found
}

// InfeasibleEdges returns the infeasible edges in a deterministic order.
func (s *Store) InfeasibleEdges() []EdgeRef {
	es := maps.Keys(s.infeasible)
	slices.SortFunc(es, func(a, b EdgeRef) bool { return a.String() < b.String() })
	return es
}

// Checks returns the check database of the session.
func (s *Store) Checks() *checks.DB { return s.checks }

// ChecksSummary counts the check verdicts.
func (s *Store) ChecksSummary() checks.Summary { return s.checks.Summary() }

// Procs returns the procedures with recorded invariants, sorted.
func (s *Store) Procs() []string {
	ps := maps.Keys(s.shadows)
	slices.Sort(ps)
	return ps
}

// Blocks returns the blocks of proc with recorded invariants, sorted.
func (s *Store) Blocks(proc string) []cfg.Label {
	seen := map[cfg.Label]bool{}
	for _, m := range []map[Ref]absval.Value{s.pre, s.post} {
		for ref := range m {
			if ref.Proc == proc {
				seen[ref.Block] = true
			}
		}
	}
	ls := maps.Keys(seen)
	slices.Sort(ls)
	return ls
}

// Merge adds every result of other, overwriting invariants of the same
// block.
func (s *Store) Merge(other *Store) {
	maps.Copy(s.pre, other.pre)
	maps.Copy(s.post, other.post)
	maps.Copy(s.shadows, other.shadows)
	maps.Copy(s.infeasible, other.infeasible)
	s.checks.Merge(other.checks)
}

// Clear drops every result.
func (s *Store) Clear() {
	maps.Clear(s.pre)
	maps.Clear(s.post)
	maps.Clear(s.shadows)
	maps.Clear(s.infeasible)
	s.checks.Clear()
}

// Write prints the invariants of every block, grouped by procedure.
func (s *Store) Write(w io.Writer, keepShadows bool) error {
	for _, proc := range s.Procs() {
		if _, err := fmt.Fprintf(w, "%s\n", colorProc(proc)); err != nil {
			return err
		}
		for _, l := range s.Blocks(proc) {
			ref := Ref{proc, l}
			pre, _ := s.Pre(ref, keepShadows)
			post, _ := s.Post(ref, keepShadows)
			if _, err := fmt.Fprintf(w, "  %s: %s ==> %s\n", colorBlock(l), pre, post); err != nil {
				return err
			}
		}
	}
	for _, e := range s.InfeasibleEdges() {
		if _, err := fmt.Fprintf(w, "infeasible edge %s\n", e); err != nil {
			return err
		}
	}
	return nil
}
