package absint

import (
	"context"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/domains"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contextsProg = `
func id(x) -> (r) {
entry:
  r := x
}

func main() -> (y1, y2) {
entry:
  havoc(a)
  assume(a >= 0)
  assume(a <= 10)
  y1 := call id(a)
  havoc(b)
  assume(b >= 20)
  assume(b <= 30)
  y2 := call id(b)
  goto done
done:
  assert(y1 <= 10)
}
`

const recursiveProg = `
func down(n) -> (r) {
entry:
  goto base [n <= 0], rec [n >= 1]
base:
  r := 0
  goto ret
rec:
  m := n - 1
  r := call down(m)
  goto ret
ret:
}

func main() -> (y) {
entry:
  y := call down(5)
  goto done
done:
}
`

func inter(t *testing.T, src string, mod func(p *config.Params)) *results.Store {
	t.Helper()
	cfgs, err := cfg.ParseString(src)
	require.NoError(t, err)
	p := withParams(func(p *config.Params) {
		p.Inter = true
		if mod != nil {
			mod(p)
		}
	})
	store, err := InterGlobal(cfgs, p, registry.Default(), nil)
	require.NoError(t, err)
	return store
}

func TestCallContexts(t *testing.T) {
	tests := []struct {
		max int
		y2  domains.Interval
	}{
		{1, domains.IntervalOf(0, 30)},
		{0, domains.IntervalOf(20, 30)},
		{2, domains.IntervalOf(20, 30)},
	}
	for _, test := range tests {
		store := inter(t, contextsProg, func(p *config.Params) {
			p.MaxCallingContexts = test.max
			p.Check = config.AssertChecks
		})
		y1 := rangeOf(t, store, "main", "done", "y1")
		assert.True(t, y1.Equal(domains.IntervalOf(0, 10)), "max %d: y1 = %s", test.max, y1)
		y2 := rangeOf(t, store, "main", "done", "y2")
		assert.True(t, y2.Equal(test.y2), "max %d: y2 = %s", test.max, y2)

		// Invariants of id are joined over its contexts.
		x := rangeOf(t, store, "id", "entry", "x")
		assert.True(t, x.Equal(domains.IntervalOf(0, 30)), "max %d: x = %s", test.max, x)

		assert.Equal(t, checks.Summary{Safe: 1}, store.ChecksSummary())
	}
}

func TestApproximateSummaryReuse(t *testing.T) {
	src := `
func id(x) -> (r) {
entry:
  r := x
}

func main() -> (y1, y2) {
entry:
  havoc(a)
  assume(a >= 0)
  assume(a <= 10)
  y1 := call id(a)
  y2 := call id(5)
  goto done
done:
}
`
	store := inter(t, src, func(p *config.Params) { p.ExactSummaryReuse = false })
	y2 := rangeOf(t, store, "main", "done", "y2")
	assert.True(t, y2.Equal(domains.IntervalOf(0, 10)), "y2 = %s", y2)

	store = inter(t, src, nil)
	y2 = rangeOf(t, store, "main", "done", "y2")
	assert.True(t, y2.Equal(domains.Singleton(5)), "y2 = %s", y2)
}

func TestRecursion(t *testing.T) {
	store := inter(t, recursiveProg, func(p *config.Params) { p.AnalyzeRecursiveFunctions = true })
	y := rangeOf(t, store, "main", "done", "y")
	assert.True(t, y.Equal(domains.Singleton(0)), "y = %s", y)

	store = inter(t, recursiveProg, nil)
	y = rangeOf(t, store, "main", "done", "y")
	assert.True(t, y.IsTop(), "y = %s", y)
}

func TestInterEntries(t *testing.T) {
	src := `
func lonely(a) -> (b) {
entry:
  b := a + 1
}
`
	cfgs, err := cfg.ParseString(src)
	require.NoError(t, err)

	p := withParams(func(p *config.Params) { p.InterEntryMain = true })
	_, err = InterGlobal(cfgs, p, registry.Default(), nil)
	assert.ErrorIs(t, err, ErrNoMain)

	store := inter(t, src, nil)
	assert.Equal(t, []string{"lonely"}, store.Procs())
}

func TestArity(t *testing.T) {
	src := `
func id(x) -> (r) {
entry:
  r := x
}

func main() {
entry:
  y := call id(1, 2)
}
`
	cfgs, err := cfg.ParseString(src)
	require.NoError(t, err)
	_, err = InterGlobal(cfgs, withParams(nil), registry.Default(), nil)
	assert.ErrorIs(t, err, ErrArity)
}

func TestIntraGlobal(t *testing.T) {
	cfgs, err := cfg.ParseString(contextsProg + loopProg)
	require.NoError(t, err)

	p := withParams(func(p *config.Params) {
		p.Jobs = 2
		p.Check = config.AssertChecks
	})
	store, err := IntraGlobal(context.Background(), cfgs, p, registry.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "id", "main"}, store.Procs())

	// Calls are not analyzed: results are unknown.
	y1 := rangeOf(t, store, "main", "done", "y1")
	assert.True(t, y1.IsTop(), "y1 = %s", y1)
	assert.Equal(t, checks.Summary{Safe: 2, Error: 1, Warning: 1}, store.ChecksSummary())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = IntraGlobal(ctx, cfgs, p, registry.Default(), nil)
	assert.ErrorIs(t, err, context.Canceled)

	for _, jobs := range []int{0, -1} {
		p := withParams(func(p *config.Params) { p.Jobs = jobs })
		store, err := IntraGlobal(context.Background(), cfgs, p, registry.Default(), nil)
		assert.ErrorIs(t, err, config.ErrInvalidParams, "jobs = %d", jobs)
		assert.Nil(t, store)
	}
}

func TestMultipleReturns(t *testing.T) {
	src := `
func f(x) -> (r) {
entry:
  goto a [x >= 1], b [x <= 0]
a:
  r := 1
b:
  r := 2
}

func main() -> (y1, y2) {
entry:
  y1 := call f(5)
  havoc(z)
  y2 := call f(z)
  goto done
done:
}
`
	for _, live := range []bool{false, true} {
		store := inter(t, src, func(p *config.Params) {
			p.MaxCallingContexts = 0
			p.Liveness = live
		})
		y1 := rangeOf(t, store, "main", "done", "y1")
		assert.True(t, y1.Equal(domains.Singleton(1)), "liveness %v: y1 = %s", live, y1)
		y2 := rangeOf(t, store, "main", "done", "y2")
		assert.True(t, y2.Equal(domains.IntervalOf(1, 2)), "liveness %v: y2 = %s", live, y2)
	}
}
