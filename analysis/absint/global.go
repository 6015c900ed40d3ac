package absint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cs-au-dk/invariant/analysis/callgraph"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"
	"github.com/cs-au-dk/invariant/utils"

	"golang.org/x/sync/errgroup"
)

// IntraGlobal analyzes every procedure on its own, running up to
// params.Jobs analyses in parallel. Calls havoc their results.
func IntraGlobal(
	ctx context.Context,
	cfgs []*cfg.Cfg,
	params *config.Params,
	reg *registry.Registry,
	log *config.LogGroup,
) (*results.Store, error) {
	if params.Jobs < 1 {
		return nil, fmt.Errorf("%w: jobs must be positive, got %d", config.ErrInvalidParams, params.Jobs)
	}
	if log == nil {
		log = discard
	}
	if params.Inter {
		log.Warnf("Inter-procedural analysis requested, analyzing procedures separately")
	}
	defer utils.TimeTrack(time.Now(), "Intra-procedural analysis", log.Debugf)

	cache := liveness.NewCache()
	stores := make([]*results.Store, len(cfgs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(params.Jobs)
	for i, g := range cfgs {
		i, g := i, g
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := NewIntra(g, params, reg, log, cache)
			if err != nil {
				return err
			}
			if err := s.Analyze("", Assumptions{}); err != nil {
				return err
			}
			stores[i] = s.Results()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	order := make([]int, len(cfgs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cfgs[order[i]].Name() < cfgs[order[j]].Name()
	})

	res := results.NewStore()
	for _, i := range order {
		res.Merge(stores[i])
	}
	return res, nil
}

// InterGlobal analyzes the program top-down from its entry procedures.
// The liveness policy is applied to the program as a whole.
func InterGlobal(
	cfgs []*cfg.Cfg,
	params *config.Params,
	reg *registry.Registry,
	log *config.LogGroup,
) (*results.Store, error) {
	if log == nil {
		log = discard
	}
	defer utils.TimeTrack(time.Now(), "Inter-procedural analysis", log.Debugf)

	cg, err := callgraph.New(cfgs)
	if err != nil {
		return nil, err
	}
	requested, err := reg.Lookup(params.Domain)
	if err != nil {
		return nil, err
	}
	cache := liveness.NewCache()
	tag, err := SelectDomain(reg, requested, cg.Nodes(), params.RelationalThreshold, cache, log)
	if err != nil {
		return nil, err
	}
	init, err := reg.Top(tag)
	if err != nil {
		return nil, err
	}
	if params.Backward {
		log.Warnf("Backward refinement is not available in inter-procedural mode")
	}

	opts := InterOptions{
		Check:             params.RunChecks(),
		MaxCallContexts:   params.MaxCallingContexts,
		ExactSummaryReuse: params.ExactSummaryReuse,
		AnalyzeRecursive:  params.AnalyzeRecursiveFunctions,
		OnlyMainAsEntry:   params.InterEntryMain,
		StoreInvariants:   params.StoreInvariants || params.PrintInvariants,
		WideningDelay:     params.WideningDelay,
		NarrowingIters:    params.NarrowingIters,
		JumpSet:           params.WideningJumpSet,
		Log:               log,
	}
	if params.Liveness {
		opts.Live = cache
	}

	a := NewInterAnalyzer(cg, init, opts)
	if err := a.Run(); err != nil {
		return nil, err
	}
	for _, g := range cg.Nodes() {
		log.Debugf("%s analyzed in %d contexts", g.Name(), a.Contexts(g))
	}
	return a.Results(), nil
}
