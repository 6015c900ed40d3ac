package absint

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/analysis/registry"
)

// SelectDomain decides which domain analyzes cfgs. A relational domain is
// replaced by its non-relational fallback if some block of some procedure
// has more than threshold live variables.
func SelectDomain(
	reg *registry.Registry,
	requested absval.Tag,
	cfgs []*cfg.Cfg,
	threshold int,
	cache *liveness.Cache,
	log *config.LogGroup,
) (absval.Tag, error) {
	if !reg.Has(requested) {
		return 0, fmt.Errorf("%w: %s", registry.ErrUnknownDomain, requested)
	}
	if log == nil {
		log = discard
	}
	if !requested.IsRelational() {
		return requested, nil
	}

	maxLive := 0
	for _, g := range cfgs {
		st := cache.Get(g).Stats()
		log.Debugf("Live variables of %s: %s", g.Name(), st)
		if st.MaxPerBlock > maxLive {
			maxLive = st.MaxPerBlock
		}
	}
	if maxLive <= threshold {
		return requested, nil
	}

	fallback := requested.Fallback()
	if !reg.Has(fallback) {
		return 0, fmt.Errorf("%w: %s (fallback of %s)", registry.ErrUnknownDomain, fallback, requested)
	}
	log.Infof("Max live per block %d exceeds %d: %s replaced by %s", maxLive, threshold, requested, fallback)
	return fallback, nil
}

// Thresholds selects at most n constants of g as widening thresholds,
// preferring those closest to zero.
func Thresholds(g *cfg.Cfg, n int) []int64 {
	if n <= 0 {
		return nil
	}
	ks := g.Constants()
	if len(ks) > n {
		abs := func(k int64) int64 {
			if k < 0 {
				return -k
			}
			return k
		}
		sort.SliceStable(ks, func(i, j int) bool { return abs(ks[i]) < abs(ks[j]) })
		ks = ks[:n]
		sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	}
	return ks
}
