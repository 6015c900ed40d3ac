package absint

import (
	"bytes"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/callgraph"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedProg = `
func n() -> (s) {
entry:
  i := 0
  s := 0
  goto outer
outer:
  goto prep [i <= 9], done [i >= 10]
prep:
  j := 0
  goto inner
inner:
  goto step [j <= i], next [j >= i + 1]
step:
  s := s + 1
  j := j + 1
  goto inner
next:
  i := i + 1
  goto outer
done:
  assert(i == 10)
  assert(s >= 0)
}
`

func render(t *testing.T, store *results.Store) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, store.Write(&buf, false))
	require.NoError(t, store.Checks().Write(&buf, true))
	return buf.String()
}

func TestAnalysisIsIdempotent(t *testing.T) {
	g := parseOne(t, nestedProg)
	for _, tag := range absval.Tags() {
		s := newSession(t, g, withParams(func(p *config.Params) {
			p.Domain = tag.String()
			p.Check = config.AssertChecks
		}))
		require.NoError(t, s.Analyze("", Assumptions{}), tag.String())
		first := render(t, s.Results())

		s.Clear()
		require.NoError(t, s.Analyze("", Assumptions{}), tag.String())
		assert.Equal(t, first, render(t, s.Results()), tag.String())
	}

	cfgs, err := cfg.ParseString(contextsProg)
	require.NoError(t, err)
	p := withParams(func(p *config.Params) {
		p.Inter = true
		p.Check = config.AssertChecks
	})
	first, err := InterGlobal(cfgs, p, registry.Default(), nil)
	require.NoError(t, err)
	second, err := InterGlobal(cfgs, p, registry.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, render(t, first), render(t, second))
}

func TestLoopHeadsAscend(t *testing.T) {
	g := parseOne(t, nestedProg)
	for _, tag := range absval.Tags() {
		// Ascending iterates of each head, one chain per entry into the loop.
		chains := map[*cfg.Block][][]absval.Value{}
		fix, err := RunIntra(g, IntraOptions{
			Init:           absval.Top(tag),
			WideningDelay:  1,
			NarrowingIters: 2,
			Observe: func(head *cfg.Block, iter int, pre absval.Value) {
				if iter == 0 {
					chains[head] = append(chains[head], nil)
				}
				cs := chains[head]
				cs[len(cs)-1] = append(cs[len(cs)-1], pre)
			},
		})
		require.NoError(t, err, tag.String())

		for _, l := range []cfg.Label{"outer", "inner"} {
			head, _ := g.Block(l)
			require.NotEmpty(t, chains[head], "%s: %s was never iterated", tag, l)
			for _, chain := range chains[head] {
				assert.Less(t, len(chain), 50, "%s: %s did not stabilize", tag, l)
				for i := 1; i < len(chain); i++ {
					assert.True(t, chain[i-1].Leq(chain[i]), "%s: %s iterate %d: %s ⋢ %s",
						tag, l, i, chain[i-1], chain[i])
				}
			}
			// Narrowing only refines the last ascending iterate.
			runs := chains[head]
			last := runs[len(runs)-1][len(runs[len(runs)-1])-1]
			assert.True(t, fix.Pre(head).Leq(last), "%s: %s: %s ⋢ %s", tag, l, fix.Pre(head), last)
		}
		if len(chains) != 2 {
			t.Errorf("%s: expected two loop heads, got %d", tag, len(chains))
		}
	}
}

func TestSummariesAreReused(t *testing.T) {
	src := `
func id(x) -> (r) {
entry:
  r := x
}

func main() -> (y1, y2, y3) {
entry:
  havoc(a)
  assume(a >= 0)
  assume(a <= 10)
  y1 := call id(a)
  y2 := call id(5)
  y3 := call id(5)
}
`
	cfgs, err := cfg.ParseString(src)
	require.NoError(t, err)
	cg, err := callgraph.New(cfgs)
	require.NoError(t, err)
	id, _ := cg.Lookup("id")
	main, _ := cg.Lookup("main")
	sites := len(main.Calls())

	tests := []struct {
		exact    bool
		contexts int
	}{
		{true, 2},
		{false, 1},
	}
	for _, test := range tests {
		a := NewInterAnalyzer(cg, absval.Top(absval.TagInt), InterOptions{
			ExactSummaryReuse: test.exact,
			StoreInvariants:   true,
			WideningDelay:     1,
			NarrowingIters:    2,
		})
		require.NoError(t, a.Run())
		assert.Equal(t, test.contexts, a.Contexts(id), "exact reuse %v", test.exact)
		assert.Less(t, a.Contexts(id), sites, "exact reuse %v", test.exact)
		assert.Equal(t, 1, a.Contexts(main))
	}
}
