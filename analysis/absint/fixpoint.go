package absint

import (
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/utils/graph"

	"golang.org/x/exp/slices"
)

var discard = config.Discard()

// IntraOptions configures the fixpoint computation over one procedure.
type IntraOptions struct {
	// Entry is the block where the analysis starts. Defaults to the
	// procedure entry.
	Entry cfg.Label
	// Init holds at the entry of the analysis.
	Init absval.Value
	// Assumptions are met with the incoming value of their block.
	Assumptions map[cfg.Label]absval.Value
	// Live enables forgetting variables that are dead at block exits.
	Live *liveness.Liveness
	// Backward enables the backward refinement pass.
	Backward bool

	WideningDelay  int
	NarrowingIters int
	// Thresholds used when widening. Plain widening if empty.
	Thresholds []int64

	// Check records a verdict for every assertion.
	Check bool
	// Calls computes the effect of call statements. Calls havoc their
	// results if nil.
	Calls CallHandler
	// Observe is called with every ascending iterate of a loop head. The
	// iteration count restarts whenever the loop is entered again.
	Observe func(head *cfg.Block, iter int, pre absval.Value)
	Log     *config.LogGroup
}

// Fixpoint holds the invariants computed for a procedure.
type Fixpoint struct {
	g         *cfg.Cfg
	pre, post map[*cfg.Block]absval.Value
	bottom    absval.Value
	checks    *checks.DB
}

// Cfg returns the analyzed procedure.
func (f *Fixpoint) Cfg() *cfg.Cfg { return f.g }

// Pre returns the invariant at the entry of b. Blocks that were never
// reached are ⊥.
func (f *Fixpoint) Pre(b *cfg.Block) absval.Value {
	if v, ok := f.pre[b]; ok {
		return v
	}
	return f.bottom
}

// Post returns the invariant at the exit of b.
func (f *Fixpoint) Post(b *cfg.Block) absval.Value {
	if v, ok := f.post[b]; ok {
		return v
	}
	return f.bottom
}

// Checks returns the assertion verdicts, if checking was enabled.
func (f *Fixpoint) Checks() *checks.DB { return f.checks }

// InfeasibleEdges returns the edges whose edge block is never left.
func (f *Fixpoint) InfeasibleEdges() (es []cfg.Edge) {
	for _, b := range f.g.Blocks() {
		if e, ok := b.Edge(); ok && f.Post(b).IsBottom() {
			es = append(es, e)
		}
	}
	return
}

type intra struct {
	*Fixpoint
	opts  IntraOptions
	entry *cfg.Block
	// Value reaching each assertion in the latest forward execution.
	asserts map[checks.Location]absval.Value
}

// RunIntra computes the invariants of g by abstract interpretation,
// following a weak topological ordering of its blocks.
func RunIntra(g *cfg.Cfg, opts IntraOptions) (*Fixpoint, error) {
	if opts.Init == nil {
		return nil, errNoInit
	}
	entry := g.Entry()
	if opts.Entry != "" {
		b, ok := g.Block(opts.Entry)
		if !ok || b.IsEdgeBlock() {
			return nil, fmt.Errorf("%w: entry %s of %s", ErrUnknownBlock, opts.Entry, g.Name())
		}
		entry = b
	}
	for l, v := range opts.Assumptions {
		if _, ok := g.Block(l); !ok {
			return nil, fmt.Errorf("%w: assumption on %s of %s", ErrUnknownBlock, l, g.Name())
		}
		if v.Tag() != opts.Init.Tag() {
			return nil, fmt.Errorf("%w: assumption on %s is a %s value, expected %s",
				absval.ErrTagMismatch, l, v.Tag(), opts.Init.Tag())
		}
	}
	if opts.Log == nil {
		opts.Log = discard
	}

	a := &intra{
		Fixpoint: &Fixpoint{
			g:      g,
			pre:    make(map[*cfg.Block]absval.Value),
			post:   make(map[*cfg.Block]absval.Value),
			bottom: opts.Init.MakeBottom(),
			checks: &checks.DB{},
		},
		opts:    opts,
		entry:   entry,
		asserts: make(map[checks.Location]absval.Value),
	}

	G := graph.OfHashable(func(b *cfg.Block) []*cfg.Block { return b.Succs() })
	wto := graph.WTO(G, entry)
	for _, c := range wto {
		a.component(c)
	}

	if opts.Check {
		a.check()
	}
	if opts.Backward {
		a.backward(graph.Flatten(wto))
	}
	return a.Fixpoint, nil
}

// incoming joins the values flowing into b and meets the result with the
// assumption on b.
func (a *intra) incoming(b *cfg.Block) absval.Value {
	v := a.bottom
	if b == a.entry {
		v = a.opts.Init
	}
	for _, p := range b.Preds() {
		v = v.Join(a.Post(p))
	}
	if as, ok := a.opts.Assumptions[b.Label()]; ok {
		v = v.Meet(as)
	}
	return v
}

// exec runs the statements of b from its current pre-condition.
func (a *intra) exec(b *cfg.Block) {
	v := a.Pre(b)
	for i, s := range b.Stmts() {
		if _, ok := s.(*cfg.Assert); ok && a.opts.Check {
			a.asserts[checks.Location{Proc: a.g.Name(), Block: b.Label(), Index: i}] = v
		}
		v = transfer(v, s, a.opts.Calls)
	}
	if a.opts.Live != nil && !v.IsBottom() {
		if dead := a.opts.Live.Dead(b); len(dead) > 0 {
			v = v.Forget(dead...)
		}
	}
	a.post[b] = v
}

func (a *intra) update(b *cfg.Block, v absval.Value) {
	a.pre[b] = v
	a.exec(b)
	if a.opts.Log.LogsLevel(config.TraceLevel) {
		a.opts.Log.Tracef("%s:%s: %s ==> %s", a.g.Name(), b, v, a.post[b])
	}
}

func (a *intra) widen(cur, next absval.Value) absval.Value {
	if len(a.opts.Thresholds) > 0 {
		return cur.WidenWithThresholds(next, a.opts.Thresholds)
	}
	return cur.Widen(next)
}

func (a *intra) component(c graph.WTOComponent[*cfg.Block]) {
	head := c.Head
	if !c.Loop {
		a.update(head, a.incoming(head))
		return
	}

	body := func() {
		for _, sub := range c.Body {
			a.component(sub)
		}
	}

	for iter := 0; ; iter++ {
		in := a.incoming(head)
		cur := a.Pre(head)
		if iter > 0 && in.Leq(cur) {
			break
		}
		if iter < a.opts.WideningDelay {
			a.update(head, cur.Join(in))
		} else {
			a.update(head, a.widen(cur, cur.Join(in)))
		}
		if a.opts.Observe != nil {
			a.opts.Observe(head, iter, a.Pre(head))
		}
		body()
	}

	for iter := 0; iter < a.opts.NarrowingIters; iter++ {
		cur := a.Pre(head)
		next := cur.Narrow(a.incoming(head))
		if next.Equal(cur) {
			break
		}
		a.update(head, next)
		body()
	}
}

// check evaluates every assertion against the value reaching it.
func (a *intra) check() {
	for _, b := range a.g.Blocks() {
		for i, s := range b.Stmts() {
			as, ok := s.(*cfg.Assert)
			if !ok {
				continue
			}
			loc := checks.Location{Proc: a.g.Name(), Block: b.Label(), Index: i}
			v, ok := a.asserts[loc]
			if !ok {
				v = a.bottom
			}
			a.checks.Add(loc, as.Cond, verdict(v, as.Cond))
		}
	}
}

func verdict(v absval.Value, c linear.Cst) checks.Verdict {
	switch {
	case absval.Entails(v, c):
		return checks.Safe
	case v.AddConstraint(c).IsBottom():
		return checks.Error
	}
	return checks.Warning
}

// backward refines the invariants with the states from which the exit is
// reachable without violating any assertion. Every iterate is sound, so the
// refinement stops after a bounded number of rounds.
func (a *intra) backward(order []*cfg.Block) {
	order = slices.Clone(order)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for round := 0; round <= a.opts.NarrowingIters; round++ {
		changed := false
		for _, b := range order {
			pre := a.Pre(b)
			if pre.IsBottom() {
				continue
			}

			post := a.Post(b)
			if succs := b.Succs(); len(succs) > 0 {
				out := a.bottom
				for _, s := range succs {
					out = out.Join(a.Pre(s))
				}
				post = post.Meet(out)
			}

			stmts := b.Stmts()
			vals := make([]absval.Value, len(stmts)+1)
			vals[0] = pre
			for i, s := range stmts {
				vals[i+1] = transfer(vals[i], s, a.opts.Calls)
			}
			v := vals[len(stmts)].Meet(post)
			for i := len(stmts) - 1; i >= 0; i-- {
				v = transferBack(vals[i], v, stmts[i], a.opts.Calls)
			}

			if !v.Equal(pre) || !post.Equal(a.Post(b)) {
				changed = true
				a.pre[b], a.post[b] = v, post
			}
		}
		if !changed {
			return
		}
	}
}
