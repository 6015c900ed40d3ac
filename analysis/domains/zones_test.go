package domains

import (
	"math"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

func TestZonesAssign(t *testing.T) {
	zs := Zones{}.Assign(x, linear.Const(0))
	if !zs.Interval(x).Equal(Singleton(0)) {
		t.Errorf("Expected x = 0 in %s", zs)
	}
	if s := zs.String(); s != "{x == 0}" {
		t.Errorf("Unexpected string %s", s)
	}

	zs = zs.Assign(y, linear.V(x).AddConst(1))
	if !zs.Interval(y).Equal(Singleton(1)) {
		t.Errorf("Expected y = 1 in %s", zs)
	}

	zs = zs.Assign(x, linear.V(x).AddConst(3))
	if !zs.Interval(x).Equal(Singleton(3)) || !zs.Interval(y).Equal(Singleton(1)) {
		t.Errorf("Expected x = 3 and y = 1 in %s", zs)
	}

	zs = zs.Assign(z, linear.V(x).Scale(2))
	if !zs.Interval(z).Equal(Singleton(6)) {
		t.Errorf("Expected z = 6 in %s", zs)
	}
}

func TestZonesRelational(t *testing.T) {
	zs := Zones{}.
		AddConstraint(linear.Leq(linear.V(x), linear.V(y))).
		AddConstraint(linear.Leq(linear.V(y), linear.Const(5)))

	if !zs.Interval(x).Equal(itv(M{}, b(5))) {
		t.Errorf("x ≤ y ≤ 5 should bound x, got %s", zs)
	}
	if !Entails(zs, linear.Leq(linear.V(x), linear.V(y))) {
		t.Errorf("%s should entail x ≤ y", zs)
	}
	if Entails(zs, linear.Leq(linear.V(y), linear.V(x))) {
		t.Errorf("%s should not entail y ≤ x", zs)
	}

	if bot := zs.AddConstraint(linear.Gt(linear.V(x), linear.V(y))); !bot.IsBottom() {
		t.Errorf("x > y contradicts %s, got %s", zs, bot)
	}

	eq := Zones{}.AddConstraint(linear.Eq(linear.V(x), linear.V(y)))
	if bot := eq.AddConstraint(linear.Neq(linear.V(x), linear.V(y))); !bot.IsBottom() {
		t.Errorf("x ≠ y contradicts %s, got %s", eq, bot)
	}
}

func TestZonesJoin(t *testing.T) {
	z1 := Zones{}.Assign(x, linear.Const(0)).Assign(y, linear.Const(0))
	z2 := Zones{}.Assign(x, linear.Const(1)).Assign(y, linear.Const(1))

	j := z1.Join(z2)
	if !j.Interval(x).Equal(IntervalOf(0, 1)) {
		t.Errorf("Expected x ∈ [0, 1] in %s", j)
	}
	if !Entails(j, linear.Eq(linear.V(x), linear.V(y))) {
		t.Errorf("%s should retain x = y", j)
	}
	if !z1.Leq(j) || !z2.Leq(j) || j.Leq(z1) {
		t.Errorf("%s should be an upper bound of %s and %s", j, z1, z2)
	}
	if bot := (Zones{}).Bottom(); !bot.Join(z1).Equal(z1) {
		t.Errorf("⊥ should be neutral for join")
	}
}

func TestZonesWidenNarrow(t *testing.T) {
	z1 := Zones{}.Assign(x, linear.Const(0))
	z2 := z1.Join(Zones{}.Assign(x, linear.Const(1)))

	w := z1.Widen(z2)
	if !w.Interval(x).Equal(itv(b(0), P{})) {
		t.Errorf("Unexpected widening %s", w)
	}
	if wt := z1.WidenThresholds(z2, []int64{10}); !wt.Interval(x).Equal(IntervalOf(0, 10)) {
		t.Errorf("Unexpected threshold widening %s", wt)
	}

	low := z1.Join(Zones{}.Assign(x, linear.Const(-1)))
	if wt := z1.WidenThresholds(low, []int64{-5, 10}); !wt.Interval(x).Equal(IntervalOf(-5, 0)) {
		t.Errorf("Unexpected threshold widening %s", wt)
	}

	n := w.Narrow(z1.Join(Zones{}.Assign(x, linear.Const(3))))
	if !n.Interval(x).Equal(IntervalOf(0, 3)) {
		t.Errorf("Unexpected narrowing %s", n)
	}
}

func TestZonesRename(t *testing.T) {
	zs := Zones{}.Assign(x, linear.Const(0)).Assign(y, linear.Const(1))

	mv := zs.Rename([]linear.Var{x}, []linear.Var{z})
	if !mv.Interval(z).Equal(Singleton(0)) || !mv.Interval(y).Equal(Singleton(1)) || !mv.Interval(x).IsTop() {
		t.Errorf("Renaming x into z in %s gave %s", zs, mv)
	}

	if f := zs.Forget(x); !f.Interval(x).IsTop() || !f.Interval(y).Equal(Singleton(1)) {
		t.Errorf("Forgetting x in %s gave %s", zs, f)
	}
	if p := zs.Project(x); !p.Interval(y).IsTop() || !p.Interval(x).Equal(Singleton(0)) {
		t.Errorf("Projecting %s onto x gave %s", zs, p)
	}
}

func TestZonesOverflow(t *testing.T) {
	zs := Zones{}.
		Assign(x, linear.Const(math.MaxInt64)).
		Assign(y, linear.V(x).AddConst(1))

	if r := zs.Interval(y); !r.Equal(itv(b(math.MaxInt64), P{})) {
		t.Errorf("Expected y ≥ %d in %s, got %s", int64(math.MaxInt64), zs, r)
	}
	if !zs.AddConstraint(linear.Leq(linear.V(y), linear.Const(-1))).IsBottom() {
		t.Errorf("y ≤ -1 should contradict %s", zs)
	}
	if zs.AddConstraint(linear.Geq(linear.V(y), linear.Const(0))).IsBottom() {
		t.Errorf("y ≥ 0 should be consistent with %s", zs)
	}
}
