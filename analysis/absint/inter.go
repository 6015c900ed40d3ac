package absint

import (
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/callgraph"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/analysis/results"
)

// InterOptions configures the inter-procedural analysis.
type InterOptions struct {
	Check bool
	// MaxCallContexts bounds the number of contexts per procedure. Zero
	// means unbounded.
	MaxCallContexts int
	// ExactSummaryReuse only reuses a context whose entry is equal to the
	// calling context. Otherwise a covering context is enough.
	ExactSummaryReuse bool
	// AnalyzeRecursive iterates the summaries of recursive procedures.
	// Recursive calls havoc their results otherwise.
	AnalyzeRecursive bool
	OnlyMainAsEntry  bool
	StoreInvariants  bool

	Live           *liveness.Cache
	WideningDelay  int
	NarrowingIters int
	JumpSet        int
	Log            *config.LogGroup
}

// callContext is one analysis of a procedure for a calling context.
type callContext struct {
	proc *cfg.Cfg
	// Over the formal inputs.
	entry absval.Value
	// Relates the inputs (as on entry) with the outputs, named by outVar.
	summary absval.Value
	fix     *Fixpoint
	merges  int

	active bool
	// The summary was read while being computed.
	recursive bool
	// The entry grew while being analyzed.
	dirty bool
	// Computed with the summary of an unfinished context.
	stale bool
}

func (c *callContext) String() string {
	return fmt.Sprintf("%s(%s)", c.proc.Name(), c.entry)
}

// InterAnalyzer is a top-down, context-sensitive analysis of a whole
// program.
type InterAnalyzer struct {
	cg       *callgraph.Graph
	init     absval.Value
	opts     InterOptions
	contexts map[*cfg.Cfg][]*callContext
	stack    []*callContext
}

// NewInterAnalyzer prepares the analysis of every procedure of cg.
func NewInterAnalyzer(cg *callgraph.Graph, init absval.Value, opts InterOptions) *InterAnalyzer {
	if opts.Log == nil {
		opts.Log = discard
	}
	return &InterAnalyzer{
		cg:       cg,
		init:     init,
		opts:     opts,
		contexts: make(map[*cfg.Cfg][]*callContext),
	}
}

func inVar(x linear.Var) linear.Var { return "$in." + x }
func argVar(i int) linear.Var       { return linear.Var(fmt.Sprintf("$arg.%d", i)) }
func retVar(i int) linear.Var       { return linear.Var(fmt.Sprintf("$ret.%d", i)) }
func outVar(i int) linear.Var       { return linear.Var(fmt.Sprintf("$out.%d", i)) }

func mapVars(n int, f func(int) linear.Var) []linear.Var {
	vs := make([]linear.Var, n)
	for i := range vs {
		vs[i] = f(i)
	}
	return vs
}

func inVars(vs []linear.Var) []linear.Var {
	return mapVars(len(vs), func(i int) linear.Var { return inVar(vs[i]) })
}

// checkArity rejects calls that do not match the signature of their callee.
func (a *InterAnalyzer) checkArity() error {
	for _, g := range a.cg.Nodes() {
		for _, site := range g.Calls() {
			callee, ok := a.cg.Lookup(site.Call.Callee)
			if !ok {
				continue
			}
			decl := callee.Decl()
			if len(site.Call.Args) != len(decl.Inputs) ||
				(len(site.Call.Lhs) != 0 && len(site.Call.Lhs) != len(decl.Outputs)) {
				return fmt.Errorf("%w: %s:%s: %s", ErrArity, g.Name(), site.Block, site.Call)
			}
		}
	}
	return nil
}

// Run analyzes the program from its entry procedures.
func (a *InterAnalyzer) Run() error {
	if err := a.checkArity(); err != nil {
		return err
	}

	var entries []*cfg.Cfg
	if a.opts.OnlyMainAsEntry {
		main, ok := a.cg.Lookup("main")
		if !ok {
			return ErrNoMain
		}
		entries = []*cfg.Cfg{main}
		if reach := a.cg.Reachable(main); len(reach) < len(a.cg.Nodes()) {
			a.opts.Log.Infof("%d procedures are not reachable from main", len(a.cg.Nodes())-len(reach))
		}
	} else {
		entries = a.cg.Roots()
	}

	if !a.opts.AnalyzeRecursive {
		for _, g := range a.cg.Nodes() {
			if a.cg.IsRecursive(g) {
				a.opts.Log.Infof("Recursive calls of %s are not analyzed", g.Name())
			}
		}
	}

	for _, g := range entries {
		c := &callContext{proc: g, entry: a.init, summary: a.init.MakeBottom()}
		a.contexts[g] = append(a.contexts[g], c)
		a.analyze(c)
	}
	return nil
}

// entryState binds the inputs to their values on entry.
func (a *InterAnalyzer) entryState(c *callContext) absval.Value {
	v := c.entry
	for _, x := range c.proc.Decl().Inputs {
		v = v.Assign(inVar(x), linear.V(x))
	}
	return v
}

func (a *InterAnalyzer) runProc(c *callContext) *Fixpoint {
	g := c.proc
	opts := IntraOptions{
		Init:           a.entryState(c),
		WideningDelay:  a.opts.WideningDelay,
		NarrowingIters: a.opts.NarrowingIters,
		Thresholds:     Thresholds(g, a.opts.JumpSet),
		Check:          a.opts.Check,
		Calls:          a.call,
		Log:            a.opts.Log,
	}
	if a.opts.Live != nil {
		opts.Live = a.opts.Live.Get(g)
	}
	fix, err := RunIntra(g, opts)
	if err != nil {
		panic(err)
	}
	return fix
}

// summarize relates the inputs on entry with the outputs, joined over
// every return block.
func (a *InterAnalyzer) summarize(c *callContext, fix *Fixpoint) absval.Value {
	decl := c.proc.Decl()
	ins := inVars(decl.Inputs)
	outs := mapVars(len(decl.Outputs), outVar)

	from := append(append([]linear.Var{}, decl.Outputs...), ins...)
	to := append(outs, decl.Inputs...)
	sum := a.init.MakeBottom()
	for _, ret := range c.proc.Returns() {
		sum = sum.Join(fix.Post(ret).Project(from...).Rename(from, to))
	}
	return sum
}

func (a *InterAnalyzer) widen(g *cfg.Cfg, cur, next absval.Value) absval.Value {
	if ts := Thresholds(g, a.opts.JumpSet); len(ts) > 0 {
		return cur.WidenWithThresholds(next, ts)
	}
	return cur.Widen(next)
}

// analyze computes the summary of c. Summaries read during their own
// computation are iterated to a post-fixpoint.
func (a *InterAnalyzer) analyze(c *callContext) {
	a.opts.Log.Debugf("Analyzing %s", c)
	c.active = true
	a.stack = append(a.stack, c)
	defer func() {
		a.stack = a.stack[:len(a.stack)-1]
		c.active = false
	}()

	for iter := 0; ; iter++ {
		c.recursive, c.dirty, c.stale = false, false, false
		c.fix = a.runProc(c)
		sum := a.summarize(c, c.fix)

		if !c.recursive {
			c.summary = sum
			return
		}
		if sum.Leq(c.summary) && !c.dirty {
			return
		}
		if iter < a.opts.WideningDelay {
			c.summary = c.summary.Join(sum)
		} else {
			c.summary = a.widen(c.proc, c.summary, c.summary.Join(sum))
		}
	}
}

// markRead records that the summary of the active context c was used.
// Contexts computed on top of it are no longer final.
func (a *InterAnalyzer) markRead(c *callContext) {
	c.recursive = true
	for i := len(a.stack) - 1; i >= 0 && a.stack[i] != c; i-- {
		a.stack[i].stale = true
	}
}

func (a *InterAnalyzer) reuses(c *callContext, ctx absval.Value) bool {
	if a.opts.ExactSummaryReuse {
		return ctx.Equal(c.entry)
	}
	return ctx.Leq(c.entry)
}

// grow merges ctx into the entry of c. Repeated merges are widened.
func (a *InterAnalyzer) grow(c *callContext, ctx absval.Value) bool {
	if ctx.Leq(c.entry) {
		return false
	}
	if c.merges < a.opts.WideningDelay {
		c.entry = c.entry.Join(ctx)
	} else {
		c.entry = a.widen(c.proc, c.entry, c.entry.Join(ctx))
	}
	c.merges++
	return true
}

func (a *InterAnalyzer) active(g *cfg.Cfg) *callContext {
	for _, c := range a.contexts[g] {
		if c.active {
			return c
		}
	}
	return nil
}

// lookup finds or computes the context of callee for ctx. It returns nil
// if the call is recursive and recursion is not analyzed.
func (a *InterAnalyzer) lookup(callee *cfg.Cfg, ctx absval.Value) *callContext {
	ctxs := a.contexts[callee]
	for _, c := range ctxs {
		if !c.active && a.reuses(c, ctx) {
			if c.stale {
				a.analyze(c)
			}
			return c
		}
	}

	if c := a.active(callee); c != nil {
		if !a.opts.AnalyzeRecursive {
			return nil
		}
		if a.grow(c, ctx) {
			c.dirty = true
		}
		a.markRead(c)
		return c
	}

	if max := a.opts.MaxCallContexts; max > 0 && len(ctxs) >= max {
		c := ctxs[len(ctxs)-1]
		if a.grow(c, ctx) {
			a.opts.Log.Infof("Context bound %d reached for %s, merged into %s", max, callee.Name(), c)
			a.analyze(c)
		} else if c.stale {
			a.analyze(c)
		}
		return c
	}

	c := &callContext{proc: callee, entry: ctx, summary: ctx.MakeBottom()}
	a.contexts[callee] = append(ctxs, c)
	a.analyze(c)
	return c
}

// call is the effect of a call statement within the current context.
func (a *InterAnalyzer) call(v absval.Value, call *cfg.Call) absval.Value {
	callee, ok := a.cg.Lookup(call.Callee)
	if !ok {
		return havocCall(v, call)
	}
	decl := callee.Decl()
	args := mapVars(len(call.Args), argVar)
	rets := mapVars(len(decl.Outputs), retVar)

	for i, e := range call.Args {
		v = v.Assign(args[i], e)
	}
	ctx := v.Project(args...).Rename(args, decl.Inputs)

	c := a.lookup(callee, ctx)
	if c == nil {
		a.opts.Log.Debugf("Recursive call %s havocs its results", call)
		return havocCall(v.Forget(args...), call)
	}

	outs := mapVars(len(decl.Outputs), outVar)
	sum := c.summary.Rename(
		append(outs, decl.Inputs...),
		append(append([]linear.Var{}, rets...), args...),
	)
	v = v.Meet(sum)
	for j, x := range call.Lhs {
		v = v.Assign(x, linear.V(rets[j]))
	}
	return v.Forget(append(args, rets...)...)
}

// Contexts returns the number of calling contexts in which g was analyzed.
func (a *InterAnalyzer) Contexts(g *cfg.Cfg) int { return len(a.contexts[g]) }

// Results joins the invariants of every procedure over its contexts.
func (a *InterAnalyzer) Results() *results.Store {
	store := results.NewStore()
	for _, g := range a.cg.Nodes() {
		ctxs := a.contexts[g]
		if len(ctxs) == 0 {
			continue
		}
		ins := inVars(g.Decl().Inputs)
		db := &checks.DB{}
		for _, c := range ctxs {
			db.Merge(c.fix.Checks())
		}
		store.Checks().Merge(db.Collapse())

		for _, b := range g.Blocks() {
			pre, post := a.init.MakeBottom(), a.init.MakeBottom()
			for _, c := range ctxs {
				pre = pre.Join(c.fix.Pre(b))
				post = post.Join(c.fix.Post(b))
			}
			if e, ok := b.Edge(); ok {
				if post.IsBottom() {
					store.AddInfeasibleEdge(g.Name(), e)
				}
				continue
			}
			if a.opts.StoreInvariants {
				store.SetPre(g, b, pre.Forget(ins...))
				store.SetPost(g, b, post.Forget(ins...))
			}
		}
	}
	return store
}
