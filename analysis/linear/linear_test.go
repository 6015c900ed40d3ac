package linear

import "testing"

func TestExprString(t *testing.T) {
	x, y := V("x"), V("y")

	tests := []struct {
		e        Expr
		expected string
	}{
		{Const(0), "0"},
		{Const(-3), "-3"},
		{x, "x"},
		{x.Scale(2).Sub(y).AddConst(3), "2*x - y + 3"},
		{y.Sub(x).AddConst(-1), "-x + y - 1"},
		{x.Add(y).Sub(x), "y"},
		{Of(4, Term{2, "y"}, Term{1, "x"}, Term{-2, "y"}), "x + 4"},
	}

	for _, test := range tests {
		if res := test.e.String(); res != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, res)
		}
	}
}

func TestExprOps(t *testing.T) {
	x, y := V("x"), V("y")

	e := x.Scale(3).Add(y).AddConst(2)
	if e.Coef("x") != 3 || e.Coef("y") != 1 || e.Coef("z") != 0 {
		t.Errorf("Unexpected coefficients in %s", e)
	}
	if !e.Without("x").Equal(y.AddConst(2)) {
		t.Errorf("Without(x) of %s is %s", e, e.Without("x"))
	}
	if v, ok := x.IsVar(); !ok || v != "x" {
		t.Errorf("%s should be a variable", x)
	}
	if _, ok := x.AddConst(1).IsVar(); ok {
		t.Errorf("x + 1 is not a variable")
	}

	ren := e.Substitute(map[Var]Var{"x": "y"})
	if !ren.Equal(y.Scale(4).AddConst(2)) {
		t.Errorf("Substitution produced %s", ren)
	}

	if vs := x.Add(y).Vars(); len(vs) != 2 || vs[0] != "x" || vs[1] != "y" {
		t.Errorf("Unexpected vars %v", vs)
	}
}

func TestCstString(t *testing.T) {
	x, y := V("x"), V("y")

	tests := []struct {
		c        Cst
		expected string
	}{
		{Leq(x, Const(9)), "x <= 9"},
		{Lt(x, Const(10)), "x <= 9"},
		{Geq(x, Const(10)), "x >= 10"},
		{Gt(x, y), "x - y >= 1"},
		{Eq(x, Const(5)), "x == 5"},
		{Neq(Const(5), x), "x != 5"},
		{True(), "true"},
		{False(), "false"},
		{Leq(Const(3), Const(2)), "false"},
	}

	for _, test := range tests {
		if res := test.c.String(); res != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, res)
		}
	}
}

func TestCstNegate(t *testing.T) {
	x := V("x")

	tests := []struct {
		c        Cst
		expected []string
	}{
		{Leq(x, Const(9)), []string{"x >= 10"}},
		{Eq(x, Const(5)), []string{"x <= 4", "x >= 6"}},
		{Neq(x, Const(5)), []string{"x == 5"}},
	}

	for _, test := range tests {
		res := test.c.Negate()
		if len(res) != len(test.expected) {
			t.Errorf("¬(%s) = %v, expected %v", test.c, res, test.expected)
			continue
		}
		for i, c := range res {
			if c.String() != test.expected[i] {
				t.Errorf("¬(%s)[%d] = %s, expected %s", test.c, i, c, test.expected[i])
			}
		}
	}
}

func TestConstantCsts(t *testing.T) {
	if !Leq(Const(1), Const(1)).IsTautology() {
		t.Error("1 <= 1 should be a tautology")
	}
	if !Neq(Const(1), Const(1)).IsContradiction() {
		t.Error("1 != 1 should be a contradiction")
	}
	if Leq(V("x"), Const(1)).IsTautology() || Leq(V("x"), Const(1)).IsContradiction() {
		t.Error("x <= 1 is neither a tautology nor a contradiction")
	}

	s := System{Leq(V("y"), Const(1))}.And(Eq(V("x"), V("y")))
	if vs := s.Vars(); len(vs) != 2 || vs[0] != "x" {
		t.Errorf("Unexpected vars %v", vs)
	}
	if s.IsFalse() {
		t.Errorf("%s is not false", s)
	}
	if !s.And(False()).IsFalse() {
		t.Errorf("%s should be false", s.And(False()))
	}
}
