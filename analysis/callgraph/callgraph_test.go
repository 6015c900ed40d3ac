package callgraph

import (
	"errors"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/cfg"
)

const program = `
func main() {
entry:
  a := call even(10)
  b := call leaf(a)
}

func even(n) -> (r) {
entry:
  r := call odd(n - 1)
}

func odd(n) -> (r) {
entry:
  r := call even(n - 1)
  call ext(r)
}

func leaf(x) -> (y) {
entry:
  y := x + 1
}

func self(x) {
entry:
  call self(x)
}
`

func names(ps []*cfg.Cfg) (res []string) {
	for _, p := range ps {
		res = append(res, p.Name())
	}
	return
}

func equal(a, b []string) bool {
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

func TestCallGraph(t *testing.T) {
	cg, err := New(cfg.MustParse(program))
	if err != nil {
		t.Fatal(err)
	}
	get := func(name string) *cfg.Cfg {
		p, ok := cg.Lookup(name)
		if !ok {
			t.Fatalf("No procedure %s", name)
		}
		return p
	}

	if got := names(cg.Callees(get("main"))); !equal(got, []string{"even", "leaf"}) {
		t.Errorf("Unexpected callees of main: %v", got)
	}
	if got := names(cg.Callers(get("even"))); !equal(got, []string{"main", "odd"}) {
		t.Errorf("Unexpected callers of even: %v", got)
	}

	recursive := map[string]bool{"even": true, "odd": true, "self": true}
	for _, p := range cg.Nodes() {
		if cg.IsRecursive(p) != recursive[p.Name()] {
			t.Errorf("IsRecursive(%s) = %v", p.Name(), cg.IsRecursive(p))
		}
	}

	if got := names(cg.Roots()); !equal(got, []string{"main", "self"}) {
		t.Errorf("Unexpected roots %v", got)
	}
	if got := names(cg.Reachable(get("even"))); !equal(got, []string{"even", "odd"}) {
		t.Errorf("Unexpected procedures reachable from even: %v", got)
	}

	pos := map[string]int{}
	for i, n := range names(cg.BottomUp()) {
		pos[n] = i
	}
	if pos["leaf"] > pos["main"] || pos["even"] > pos["main"] {
		t.Errorf("Callees should come first in %v", names(cg.BottomUp()))
	}
}

func TestDuplicate(t *testing.T) {
	f := "func f() {\nentry:\n  x := 1\n}\n"
	procs := append(cfg.MustParse(f), cfg.MustParse(f)...)
	if _, err := New(procs); !errors.Is(err, ErrDuplicateProc) {
		t.Errorf("Expected ErrDuplicateProc, got %v", err)
	}
}
