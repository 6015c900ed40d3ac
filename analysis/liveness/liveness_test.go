package liveness

import (
	"testing"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

const counter = `
func f(n) -> (r) {
entry:
  i := 0
  t := 5
  goto loop
loop:
  goto body [i < n], done [i >= n]
body:
  i := i + 1
  goto loop
done:
  r := i
}
`

func vars(names ...string) []linear.Var {
	res := make([]linear.Var, len(names))
	for i, n := range names {
		res[i] = linear.Var(n)
	}
	return res
}

func sameVars(a, b []linear.Var) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func block(t *testing.T, g *cfg.Cfg, l cfg.Label) *cfg.Block {
	b, ok := g.Block(l)
	if !ok {
		t.Fatalf("No block %s", l)
	}
	return b
}

func TestLiveness(t *testing.T) {
	g := cfg.MustParse(counter)[0]
	l := Analyze(g)

	tests := []struct {
		block   cfg.Label
		in, out []linear.Var
		dead    []linear.Var
	}{
		{"entry", vars("n"), vars("i", "n"), vars("t")},
		{"loop", vars("i", "n"), vars("i", "n"), vars()},
		{"body", vars("i", "n"), vars("i", "n"), vars()},
		{"done", vars("i"), vars("r"), vars("i")},
		{cfg.EdgeLabel("loop", "done"), vars("i", "n"), vars("i"), vars("n")},
	}

	for _, test := range tests {
		b := block(t, g, test.block)
		if got := l.LiveIn(b); !sameVars(got, test.in) {
			t.Errorf("Live in at %s: expected %v, got %v", test.block, test.in, got)
		}
		if got := l.LiveOut(b); !sameVars(got, test.out) {
			t.Errorf("Live out at %s: expected %v, got %v", test.block, test.out, got)
		}
		if got := l.Dead(b); !sameVars(got, test.dead) {
			t.Errorf("Dead at %s: expected %v, got %v", test.block, test.dead, got)
		}
	}

	st := l.Stats()
	if st.Total != 2 || st.MaxPerBlock != 2 {
		t.Errorf("Unexpected statistics %s", st)
	}
}

func TestCache(t *testing.T) {
	g := cfg.MustParse(counter)[0]
	c := NewCache()
	if c.Get(g) != c.Get(g) {
		t.Errorf("The cache should return the same result twice")
	}
}

func TestOutputsLiveAtEveryReturn(t *testing.T) {
	g := cfg.MustParse(`
func f(x) -> (r) {
entry:
  goto a [x >= 1], b [x <= 0]
a:
  r := 1
b:
  r := 2
}
`)[0]
	l := Analyze(g)

	for _, label := range []cfg.Label{"a", "b"} {
		b := block(t, g, label)
		if got := l.LiveOut(b); !sameVars(got, vars("r")) {
			t.Errorf("Live out at %s: expected [r], got %v", label, got)
		}
		if got := l.LiveIn(b); len(got) != 0 {
			t.Errorf("Live in at %s: expected nothing, got %v", label, got)
		}
	}
}
