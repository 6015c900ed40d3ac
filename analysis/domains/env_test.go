package domains

import (
	"testing"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

var (
	_ Domain[Intervals]           = Intervals{}
	_ Domain[Congruences]         = Congruences{}
	_ Domain[IntervalCongrs]      = IntervalCongrs{}
	_ Domain[DisjunctiveIntervs]  = DisjunctiveIntervs{}
	_ Domain[Zones]               = Zones{}
	_ Domain[TermIntervals]       = TermIntervals{}
	_ Domain[TermDisIntervs]      = TermDisIntervs{}
	_ Domain[ArrayIntervals]      = ArrayIntervals{}
	_ Domain[ArrayIntervalCongrs] = ArrayIntervalCongrs{}
	_ Domain[ArrayZones]          = ArrayZones{}
	_ Domain[ArrayDisIntervs]     = ArrayDisIntervs{}
	_ Domain[ArrayTermIntervals]  = ArrayTermIntervals{}
	_ Domain[ArrayTermDisIntervs] = ArrayTermDisIntervs{}
)

var x, y, z = linear.Var("x"), linear.Var("y"), linear.Var("z")

func TestIntervalsTransfer(t *testing.T) {
	e := Intervals{}
	if !e.IsTop() || e.IsBottom() {
		t.Fatalf("The zero environment should be ⊤")
	}

	e = e.Assign(x, linear.Const(5)).Assign(y, linear.V(x).AddConst(1))
	if !e.Get(y).Equal(Singleton(6)) {
		t.Errorf("Expected y = 6 in %s", e)
	}

	e = e.AddConstraint(linear.Leq(linear.V(z), linear.Const(10)))
	if !e.Get(z).Equal(itv(M{}, b(10))) {
		t.Errorf("Expected z ≤ 10 in %s", e)
	}

	if bot := e.AddConstraint(linear.Geq(linear.V(x), linear.Const(6))); !bot.IsBottom() {
		t.Errorf("x ≥ 6 contradicts %s, got %s", e, bot)
	}

	if s := e.String(); s != "{x -> [5, 5]; y -> [6, 6]; z -> [-∞, 10]}" {
		t.Errorf("Unexpected string %s", s)
	}
}

func TestIntervalsConstraints(t *testing.T) {
	e := Intervals{}.
		AddConstraint(linear.Geq(linear.V(x), linear.Const(0))).
		AddConstraint(linear.Leq(linear.V(x), linear.Const(10))).
		AddConstraint(linear.Geq(linear.V(y), linear.Const(0))).
		AddConstraint(linear.Leq(linear.V(y), linear.Const(10)))

	sum := e.AddConstraint(linear.Leq(linear.V(x).Add(linear.V(y)), linear.Const(3)))
	if !sum.Get(x).Equal(IntervalOf(0, 3)) || !sum.Get(y).Equal(IntervalOf(0, 3)) {
		t.Errorf("x + y ≤ 3 should bound both variables, got %s", sum)
	}

	neq := e.AddConstraint(linear.Neq(linear.V(x), linear.Const(0)))
	if !neq.Get(x).Equal(IntervalOf(1, 10)) {
		t.Errorf("x ≠ 0 should exclude the lower bound, got %s", neq)
	}

	if !Entails(sum, linear.Leq(linear.V(x), linear.Const(5))) {
		t.Errorf("%s should entail x ≤ 5", sum)
	}
	if Entails(sum, linear.Leq(linear.V(x), linear.Const(2))) {
		t.Errorf("%s should not entail x ≤ 2", sum)
	}
}

func TestIntervalsLattice(t *testing.T) {
	e1 := Intervals{}.Assign(x, linear.Const(0)).Assign(y, linear.Const(1))
	e2 := Intervals{}.Assign(x, linear.Const(2))

	j := e1.Join(e2)
	if s := j.String(); s != "{x -> [0, 2]}" {
		t.Errorf("%s ⊔ %s = %s", e1, e2, s)
	}
	if !e1.Leq(j) || !e2.Leq(j) || j.Leq(e1) {
		t.Errorf("%s should be an upper bound of %s and %s", j, e1, e2)
	}

	if m := e1.Meet(e2); !m.IsBottom() {
		t.Errorf("%s ⊓ %s = %s, expected ⊥", e1, e2, m)
	}

	w := e1.Widen(e1.Assign(x, linear.Const(1)))
	if !w.Get(x).Equal(itv(b(0), P{})) {
		t.Errorf("Unexpected widening %s", w)
	}
	n := w.Narrow(e1.Join(e1.Assign(x, linear.Const(3))))
	if !n.Get(x).Equal(IntervalOf(0, 3)) {
		t.Errorf("Unexpected narrowing %s", n)
	}

	bot := Intervals{}.Bottom()
	if !bot.Leq(e1) || e1.Leq(bot) {
		t.Errorf("⊥ should be the least element")
	}
}

func TestIntervalsRename(t *testing.T) {
	e := Intervals{}.Assign(x, linear.Const(1)).Assign(y, linear.Const(2))

	sw := e.Rename([]linear.Var{x, y}, []linear.Var{y, x})
	if !sw.Get(x).Equal(Singleton(2)) || !sw.Get(y).Equal(Singleton(1)) {
		t.Errorf("Swapping x and y in %s gave %s", e, sw)
	}

	mv := e.Rename([]linear.Var{x}, []linear.Var{z})
	if !mv.Get(z).Equal(Singleton(1)) || !mv.Get(x).IsTop() {
		t.Errorf("Renaming x into z in %s gave %s", e, mv)
	}

	if p := e.Project(y); p.Len() != 1 || !p.Get(y).Equal(Singleton(2)) {
		t.Errorf("Projecting %s onto y gave %s", e, p)
	}
	if f := e.Forget(x, y); !f.IsTop() {
		t.Errorf("Forgetting every variable of %s gave %s", e, f)
	}
}

func TestIntervalsApply(t *testing.T) {
	e := Intervals{}.
		AddConstraint(linear.Geq(linear.V(x), linear.Const(2))).
		AddConstraint(linear.Leq(linear.V(x), linear.Const(3))).
		AddConstraint(linear.Geq(linear.V(y), linear.Const(4))).
		AddConstraint(linear.Leq(linear.V(y), linear.Const(5)))

	tests := []struct {
		op       cfg.Op
		l, r     linear.Expr
		expected Interval
	}{
		{cfg.OpAdd, linear.V(x), linear.V(y), IntervalOf(6, 8)},
		{cfg.OpSub, linear.V(y), linear.V(x), IntervalOf(1, 3)},
		{cfg.OpMul, linear.V(x), linear.V(y), IntervalOf(8, 15)},
		{cfg.OpMul, linear.V(x), linear.Const(-2), IntervalOf(-6, -4)},
		{cfg.OpDiv, linear.V(y), linear.V(x), IntervalOf(1, 2)},
		{cfg.OpRem, linear.V(y), linear.Const(4), IntervalOf(0, 3)},
	}

	for _, test := range tests {
		res := e.Apply(test.op, z, test.l, test.r)
		if !res.Get(z).Equal(test.expected) {
			t.Errorf("z := %s %v %s gave %s, expected %s", test.l, test.op, test.r, res.Get(z), test.expected)
		}
	}

	if div := e.Apply(cfg.OpDiv, z, linear.V(x), linear.Const(0)); !div.IsBottom() {
		t.Errorf("Division by zero should be ⊥, got %s", div)
	}
}

func TestCongruences(t *testing.T) {
	e1 := Congruences{}.Assign(x, linear.Const(0))
	e2 := e1.Assign(x, linear.V(x).AddConst(2))

	j := e1.Join(e2)
	if !j.Get(x).Equal(NewCongruence(2, 0)) {
		t.Errorf("Expected x ∈ 2ℤ in %s", j)
	}
	if odd := j.AddConstraint(linear.Eq(linear.V(x), linear.Const(3))); !odd.IsBottom() {
		t.Errorf("x = 3 contradicts %s, got %s", j, odd)
	}
	if even := j.AddConstraint(linear.Eq(linear.V(x), linear.Const(4))); !even.Get(x).Equal(Congruence{}.Const(4)) {
		t.Errorf("x = 4 should be consistent with %s, got %s", j, even)
	}
}
