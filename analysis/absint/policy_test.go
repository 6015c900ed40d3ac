package absint

import (
	"testing"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/liveness"
	"github.com/cs-au-dk/invariant/analysis/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

func TestSelectDomain(t *testing.T) {
	g := parseOne(t, `
func f(a, b) -> (c) {
entry:
  c := a + b
}
`)
	reg := registry.Default()
	tests := []struct {
		requested absval.Tag
		threshold int
		expected  absval.Tag
	}{
		{absval.TagZones, 0, absval.TagInt},
		{absval.TagZones, 1, absval.TagInt},
		{absval.TagZones, 2, absval.TagZones},
		{absval.TagArrZones, 0, absval.TagArrInt},
		{absval.TagTermInt, 0, absval.TagTermInt},
	}
	for _, test := range tests {
		tag, err := SelectDomain(reg, test.requested, []*cfg.Cfg{g}, test.threshold, liveness.NewCache(), nil)
		require.NoError(t, err)
		assert.Equal(t, test.expected, tag, "%s with threshold %d", test.requested, test.threshold)
	}

	_, err := SelectDomain(registry.New(), absval.TagInt, []*cfg.Cfg{g}, 0, liveness.NewCache(), nil)
	assert.ErrorIs(t, err, registry.ErrUnknownDomain)

	partial := registry.New()
	require.NoError(t, partial.Register(absval.TagZones, func() absval.Value { return absval.Top(absval.TagZones) }))
	_, err = SelectDomain(partial, absval.TagZones, []*cfg.Cfg{g}, 0, liveness.NewCache(), nil)
	assert.ErrorIs(t, err, registry.ErrUnknownDomain)
}

func TestSessionDowngrade(t *testing.T) {
	g := parseOne(t, loopProg)
	s := newSession(t, g, withParams(func(p *config.Params) {
		p.Domain = "zones"
		p.RelationalThreshold = 0
	}))
	assert.Equal(t, absval.TagInt, s.Domain())
	require.NoError(t, s.Analyze("", Assumptions{}))
	pre, ok := s.Pre("loop")
	require.True(t, ok)
	assert.Equal(t, absval.TagInt, pre.Tag())

	s = newSession(t, g, withParams(func(p *config.Params) { p.Domain = "zones" }))
	assert.Equal(t, absval.TagZones, s.Domain())
}

func TestThresholds(t *testing.T) {
	g := parseOne(t, loopProg)
	assert.Nil(t, Thresholds(g, 0))

	ts := Thresholds(g, 2)
	require.Len(t, ts, 2)
	assert.True(t, slices.IsSorted(ts))
	assert.Contains(t, ts, int64(0))

	all := g.Constants()
	assert.Equal(t, all, Thresholds(g, len(all)+5))
}
