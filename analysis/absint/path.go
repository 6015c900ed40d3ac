package absint

import (
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

// PathStmt is a statement executed along a path.
type PathStmt struct {
	Block cfg.Label
	Index int
	Stmt  cfg.Stmt
}

func (s PathStmt) String() string {
	return fmt.Sprintf("%s:%d: %s", s.Block, s.Index, s.Stmt)
}

// PathAnalyzer decides the feasibility of a single path through a
// procedure. Values are propagated along the path only: there are no joins
// and no widening.
type PathAnalyzer struct {
	g     *cfg.Cfg
	init  absval.Value
	calls CallHandler

	// Value at the entry of each real block on the latest path, up to the
	// first block entered with ⊥.
	fwd  map[cfg.Label]absval.Value
	core []PathStmt
}

// NewPathAnalyzer prepares path queries over g, starting from init.
func NewPathAnalyzer(g *cfg.Cfg, init absval.Value) *PathAnalyzer {
	return &PathAnalyzer{g: g, init: init}
}

// SetCallHandler sets the effect of calls met along paths. Calls havoc
// their results by default.
func (p *PathAnalyzer) SetCallHandler(h CallHandler) { p.calls = h }

// blocks expands a path of real blocks with the edge blocks between them.
func (p *PathAnalyzer) blocks(path []cfg.Label) ([]*cfg.Block, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path in %s", ErrMalformedPath, p.g.Name())
	}
	var bs []*cfg.Block
	for i, l := range path {
		b, ok := p.g.Block(l)
		if !ok || b.IsEdgeBlock() {
			return nil, fmt.Errorf("%w: %s is not a block of %s", ErrMalformedPath, l, p.g.Name())
		}
		if i > 0 {
			prev := path[i-1]
			if !p.g.HasEdge(prev, l) {
				return nil, fmt.Errorf("%w: no edge %s -> %s in %s", ErrMalformedPath, prev, l, p.g.Name())
			}
			if eb, ok := p.g.EdgeBlock(prev, l); ok {
				bs = append(bs, eb)
			}
		}
		bs = append(bs, b)
	}
	return bs, nil
}

// Solve checks whether the path may be executed. It returns false if the
// path is infeasible. With layered set, a cheap approximation of the path
// is tried first.
func (p *PathAnalyzer) Solve(path []cfg.Label, layered bool) (bool, error) {
	bs, err := p.blocks(path)
	if err != nil {
		return false, err
	}
	p.fwd, p.core = make(map[cfg.Label]absval.Value), nil

	var stmts []PathStmt
	for _, b := range bs {
		for i, s := range b.Stmts() {
			stmts = append(stmts, PathStmt{b.Label(), i, s})
		}
	}

	feasible := true
	if layered {
		feasible = p.run(bs, p.cheap)
	}
	if feasible {
		feasible = p.run(bs, p.full)
	}
	if !feasible {
		p.core = p.minimize(stmts)
	}
	return feasible, nil
}

type pathStep func(absval.Value, cfg.Stmt) absval.Value

func (p *PathAnalyzer) full(v absval.Value, s cfg.Stmt) absval.Value {
	return transfer(v, s, p.calls)
}

// cheap keeps unary conditions and constant assignments. Every other
// statement only forgets what it defines.
func (p *PathAnalyzer) cheap(v absval.Value, s cfg.Stmt) absval.Value {
	switch s := s.(type) {
	case *cfg.Assume:
		if len(s.Cond.Vars()) <= 1 {
			return transfer(v, s, nil)
		}
		return v
	case *cfg.Assert:
		if len(s.Cond.Vars()) <= 1 {
			return transfer(v, s, nil)
		}
		return v
	case *cfg.Assign:
		if s.Rhs.IsConstant() {
			return transfer(v, s, nil)
		}
	}
	return v.Forget(s.Defs()...)
}

// run executes the blocks in sequence, recording the value at the entry of
// real blocks. It stops at the first ⊥.
func (p *PathAnalyzer) run(bs []*cfg.Block, step pathStep) bool {
	p.fwd = make(map[cfg.Label]absval.Value)
	v := p.init
	for _, b := range bs {
		if !b.IsEdgeBlock() {
			if prev, ok := p.fwd[b.Label()]; ok {
				p.fwd[b.Label()] = prev.Join(v)
			} else {
				p.fwd[b.Label()] = v
			}
		}
		if v.IsBottom() {
			return false
		}
		for _, s := range b.Stmts() {
			if v = step(v, s); v.IsBottom() {
				return false
			}
		}
	}
	return true
}

func (p *PathAnalyzer) infeasible(stmts []PathStmt) bool {
	v := p.init
	for _, s := range stmts {
		if v = p.full(v, s.Stmt); v.IsBottom() {
			return true
		}
	}
	return false
}

// minimize shrinks the statements to a subsequence that is still
// infeasible, such that removing any single statement makes it feasible.
func (p *PathAnalyzer) minimize(stmts []PathStmt) []PathStmt {
	// Cut the path after the statement reaching ⊥.
	v := p.init
	for i, s := range stmts {
		if v = p.full(v, s.Stmt); v.IsBottom() {
			stmts = stmts[:i+1]
			break
		}
	}
	if !v.IsBottom() {
		return nil
	}

	core := append([]PathStmt(nil), stmts...)
	for i := 0; i < len(core); {
		without := make([]PathStmt, 0, len(core)-1)
		without = append(without, core[:i]...)
		without = append(without, core[i+1:]...)
		if p.infeasible(without) {
			core = without
		} else {
			i++
		}
	}
	return core
}

// Forward returns the value reaching a real block of the latest path.
func (p *PathAnalyzer) Forward(l cfg.Label) (absval.Value, bool) {
	v, ok := p.fwd[l]
	return v, ok
}

// ForwardConstraints returns the constraints holding at the entry of a real
// block of the latest path.
func (p *PathAnalyzer) ForwardConstraints(l cfg.Label) (linear.System, bool) {
	v, ok := p.fwd[l]
	if !ok {
		return nil, false
	}
	return v.ToConstraints(), true
}

// UnsatCore returns the statements explaining why the latest path is
// infeasible, in path order. It is empty for feasible paths.
func (p *PathAnalyzer) UnsatCore() []PathStmt { return p.core }
