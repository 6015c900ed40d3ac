package cfg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/sebdah/goldie/v2"
)

const program = `
// Counting loop with arrays.
func f(x, y) -> (r) {
entry:
  shadow s
  i := 0
  s := x
  goto loop
loop:
  goto body [i < 10], done [i >= 10]
body:
  i := i + 1
  t := x * y
  a[*] := 0
  a[i] := i
  z := a[i]
  goto loop
done:
  assert(i = 10)
  r := i
}

func g(p) -> (q) {
entry:
  q, w := call f(p, p + 1 + p)
  havoc(w)
  assume(q != w)
  call g(q - 1)
}
`

func printAll(cfgs []*Cfg) []byte {
	strs := make([]string, len(cfgs))
	for i, g := range cfgs {
		strs[i] = g.String()
	}
	return []byte(strings.Join(strs, "\n"))
}

func TestParsePrint(t *testing.T) {
	cfgs, err := ParseString(program)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("Expected 2 procedures, got %d", len(cfgs))
	}

	out := printAll(cfgs)
	goldie.New(t).Assert(t, "program", out)

	// The printed form parses back to the same procedures.
	again, err := ParseString(string(out))
	if err != nil {
		t.Fatal(err)
	}
	if out2 := printAll(again); !bytes.Equal(out, out2) {
		t.Errorf("Printing is not stable:\n%s\n---\n%s", out, out2)
	}
}

func TestCfgStructure(t *testing.T) {
	g := MustParse(program)[0]

	if g.Entry().Label() != "entry" {
		t.Errorf("Expected entry block, got %s", g.Entry())
	}
	if g.Exit() == nil || g.Exit().Label() != "done" {
		t.Errorf("Expected exit block done, got %v", g.Exit())
	}

	eb, ok := g.EdgeBlock("loop", "body")
	if !ok {
		t.Fatal("Missing edge block loop -> body")
	}
	if e, _ := eb.Edge(); e != (Edge{"loop", "body"}) {
		t.Errorf("Unexpected endpoints %v", e)
	}
	if len(eb.Stmts()) != 1 || eb.Stmts()[0].String() != "assume(i <= 9)" {
		t.Errorf("Unexpected edge block statements %v", eb.Stmts())
	}
	if len(eb.Preds()) != 1 || eb.Preds()[0].Label() != "loop" {
		t.Errorf("Unexpected predecessors of %s", eb)
	}

	for _, e := range []Edge{{"entry", "loop"}, {"loop", "body"}, {"body", "loop"}, {"loop", "done"}} {
		if !g.HasEdge(e.From, e.To) {
			t.Errorf("Missing edge %s", e)
		}
	}
	if g.HasEdge("entry", "done") {
		t.Error("Unexpected edge entry -> done")
	}

	if !g.IsShadow("s") || g.IsShadow("i") {
		t.Errorf("Unexpected shadows %v", g.Shadows())
	}
	if !g.HasArrays() {
		t.Error("f manipulates arrays")
	}

	vars := g.Vars()
	for _, v := range []linear.Var{"a", "i", "r", "s", "t", "x", "y", "z"} {
		found := false
		for _, w := range vars {
			found = found || v == w
		}
		if !found {
			t.Errorf("Variable %s missing from %v", v, vars)
		}
	}

	ks := g.Constants()
	for _, k := range []int64{9, 10, 11} {
		found := false
		for _, c := range ks {
			found = found || c == k
		}
		if !found {
			t.Errorf("Constant %d missing from %v", k, ks)
		}
	}

	calls := MustParse(program)[1].Calls()
	if len(calls) != 2 || calls[0].Call.Callee != "f" || calls[1].Index != 3 {
		t.Errorf("Unexpected call sites %v", calls)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, src string
	}{
		{"outside block", "func f() { x := 1 }"},
		{"undefined label", "func f() {\na:\n  goto b\n}"},
		{"nested non-linear", "func f() {\na:\n  x := y * z + 1\n}"},
		{"non-linear condition", "func f() {\na:\n  assume(x * y <= 1)\n}"},
		{"after goto", "func f() {\na:\n  goto a\n  x := 1\n}"},
		{"redefined label", "func f() {\na:\na:\n}"},
		{"duplicate edge", "func f() {\na:\n  goto a, a\n}"},
		{"duplicate procedure", "func f() {\na:\n}\nfunc f() {\nb:\n}"},
		{"no blocks", "func f() {}"},
		{"missing operator", "func f() {\na:\n  assume(x)\n}"},
		{"reserved label", "func f() {\na__b:\n}"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseString(test.src)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("Expected a syntax error, got %v", err)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	x := linear.V("x")
	g, err := NewBuilder(FuncDecl{Name: "h", Inputs: []linear.Var{"x"}}).
		Add("a", &Assign{Lhs: "y", Rhs: x.AddConst(1)}).
		GuardedEdge("a", "b", linear.Leq(x, linear.Const(0))).
		Edge("a", "c").
		Add("b", &Havoc{V: "y"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if g.Entry().Label() != "a" {
		t.Errorf("Expected entry a, got %s", g.Entry())
	}
	// b and c both return, c is the last of them.
	if g.Exit().Label() != "c" {
		t.Errorf("Expected exit c, got %s", g.Exit())
	}
	if rets := g.Returns(); len(rets) != 2 || rets[0].Label() != "b" || rets[1].Label() != "c" {
		t.Errorf("Expected returns [b c], got %v", rets)
	}
	if a, _ := g.Block("a"); g.IsReturn(a) {
		t.Error("a should not return")
	}
	if len(g.Blocks()) != 4 {
		t.Errorf("Expected 4 blocks, got %d", len(g.Blocks()))
	}

	_, err = NewBuilder(FuncDecl{Name: "h"}).Edge("a", "b").Edge("a", "b").Build()
	if !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("Expected duplicate edge error, got %v", err)
	}

	_, err = NewBuilder(FuncDecl{Name: "h"}).Block("a").Exit("z").Build()
	if !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Expected unknown label error, got %v", err)
	}

	_, err = NewBuilder(FuncDecl{Name: "h"}).Build()
	if !errors.Is(err, ErrEmptyCfg) {
		t.Errorf("Expected empty cfg error, got %v", err)
	}
}

func TestInvalidBlockPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrInvalidBlock {
			t.Errorf("Expected %v, got %v", ErrInvalidBlock, r)
		}
	}()
	(&Block{label: "bad"}).MustBeValid()
}

func TestToDot(t *testing.T) {
	g := MustParse(program)[0]
	dg := ToDot(g, func(b *Block) string {
		if b.Label() == "done" {
			return "{i == 10}"
		}
		return ""
	})

	var buf bytes.Buffer
	if err := dg.WriteDot(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, exp := range []string{
		`"entry" -> "loop"`,
		`"loop" -> "body" [ label="assume(i <= 9)" ]`,
		`{i == 10}\l`,
		`"entry" [ label="entry:\l  i := 0\l  s := x\l" style="bold" ]`,
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("Expected %q in\n%s", exp, out)
		}
	}
}
