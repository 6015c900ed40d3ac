package absint

import (
	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"
)

// Assumptions restrict the values entering blocks. Values of another
// domain are converted through their constraints.
type Assumptions struct {
	Values      map[cfg.Label]absval.Value
	Constraints map[cfg.Label]linear.System
}

// Intra is an analysis session over a single procedure.
type Intra struct {
	g      *cfg.Cfg
	params *config.Params
	reg    *registry.Registry
	log    *config.LogGroup
	live   *liveness.Cache

	tag   absval.Tag
	store *results.Store
	path  *PathAnalyzer
}

// NewIntra opens a session on g. The domain is chosen from the parameters,
// subject to the liveness policy.
func NewIntra(
	g *cfg.Cfg,
	params *config.Params,
	reg *registry.Registry,
	log *config.LogGroup,
	cache *liveness.Cache,
) (*Intra, error) {
	if log == nil {
		log = discard
	}
	if cache == nil {
		cache = liveness.NewCache()
	}
	requested, err := reg.Lookup(params.Domain)
	if err != nil {
		return nil, err
	}
	tag, err := SelectDomain(reg, requested, []*cfg.Cfg{g}, params.RelationalThreshold, cache, log)
	if err != nil {
		return nil, err
	}
	return &Intra{
		g:      g,
		params: params,
		reg:    reg,
		log:    log,
		live:   cache,
		tag:    tag,
		store:  results.NewStore(),
	}, nil
}

// Domain returns the domain used by the session.
func (s *Intra) Domain() absval.Tag { return s.tag }

func (s *Intra) top() absval.Value {
	v, err := s.reg.Top(s.tag)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *Intra) assumptions(as Assumptions) map[cfg.Label]absval.Value {
	res := make(map[cfg.Label]absval.Value, len(as.Values)+len(as.Constraints))
	for l, v := range as.Values {
		if v.Tag() != s.tag {
			v = absval.FromConstraints(s.tag, v.ToConstraints())
		}
		res[l] = v
	}
	for l, sys := range as.Constraints {
		v := absval.FromConstraints(s.tag, sys)
		if prev, ok := res[l]; ok {
			v = v.Meet(prev)
		}
		res[l] = v
	}
	return res
}

// Analyze computes the invariants of the procedure, starting at entry, or
// at the procedure entry if entry is empty. Results of a previous analysis
// are replaced on success.
func (s *Intra) Analyze(entry cfg.Label, as Assumptions) error {
	p := s.params
	opts := IntraOptions{
		Entry:          entry,
		Init:           s.top(),
		Assumptions:    s.assumptions(as),
		Backward:       p.Backward,
		WideningDelay:  p.WideningDelay,
		NarrowingIters: p.NarrowingIters,
		Thresholds:     Thresholds(s.g, p.WideningJumpSet),
		Check:          p.RunChecks(),
		Log:            s.log,
	}
	if p.Liveness {
		opts.Live = s.live.Get(s.g)
	}

	fix, err := RunIntra(s.g, opts)
	if err != nil {
		return err
	}

	store := results.NewStore()
	if p.StoreInvariants || p.PrintInvariants {
		for _, b := range s.g.Blocks() {
			store.SetPre(s.g, b, fix.Pre(b))
			store.SetPost(s.g, b, fix.Post(b))
		}
	}
	for _, e := range fix.InfeasibleEdges() {
		store.AddInfeasibleEdge(s.g.Name(), e)
	}
	store.Checks().Merge(fix.Checks())
	s.store = store
	return nil
}

// PathAnalyze decides whether the path is feasible. With populate set, the
// values along the path are recorded as the invariants of its blocks.
func (s *Intra) PathAnalyze(path []cfg.Label, layered, populate bool) (bool, error) {
	pa := NewPathAnalyzer(s.g, s.top())
	feasible, err := pa.Solve(path, layered)
	if err != nil {
		return false, err
	}
	s.path = pa

	if populate {
		for _, l := range path {
			pre, ok := pa.Forward(l)
			if !ok {
				break
			}
			b, _ := s.g.Block(l)
			post := pre
			for _, st := range b.Stmts() {
				post = transfer(post, st, nil)
			}
			s.store.SetPre(s.g, b, pre)
			s.store.SetPost(s.g, b, post)
		}
	}
	return feasible, nil
}

// UnsatCore explains the infeasibility of the latest path.
func (s *Intra) UnsatCore() []PathStmt {
	if s.path == nil {
		return nil
	}
	return s.path.UnsatCore()
}

func (s *Intra) Pre(l cfg.Label) (absval.Value, bool) {
	return s.store.Pre(results.Ref{Proc: s.g.Name(), Block: l}, s.params.KeepShadowVars)
}

func (s *Intra) Post(l cfg.Label) (absval.Value, bool) {
	return s.store.Post(results.Ref{Proc: s.g.Name(), Block: l}, s.params.KeepShadowVars)
}

// HasFeasibleEdge checks whether the analysis found the edge possibly
// taken.
func (s *Intra) HasFeasibleEdge(from, to cfg.Label) bool {
	return s.store.IsEdgeFeasible(s.g.Name(), from, to)
}

func (s *Intra) Checks() *checks.DB { return s.store.Checks() }

// Results returns the result store of the session.
func (s *Intra) Results() *results.Store { return s.store }

// Clear forgets every result of the session.
func (s *Intra) Clear() {
	s.store.Clear()
	s.path = nil
}
