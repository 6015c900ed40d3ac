package domains

import (
	"math"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

// Value is a non-relational abstraction of a single integer. Env lifts any
// Value to an abstract domain over environments.
type Value[V any] interface {
	IsBottom() bool
	IsTop() bool
	Top() V
	Bottom() V
	Leq(V) bool
	Equal(V) bool
	Join(V) V
	Meet(V) V
	Widen(V) V
	WidenThresholds(V, []int64) V
	Narrow(V) V

	Const(k int64) V
	Add(V) V
	Scale(c int64) V
	Mul(V) V
	Div(V) V
	Rem(V) V

	// Bounds returns the interval hull of the value.
	Bounds() Interval
	// MeetInterval refines the value with an interval.
	MeetInterval(Interval) V
	// Exclude removes a single integer from the value, where representable.
	Exclude(k int64) V
	// Constraints returns linear constraints over v implied by the value.
	Constraints(v linear.Var) []linear.Cst
	String() string
}

// refine computes interval bounds implied by a linear constraint for every
// variable it mentions, given the current bounds of the variables.
// It reports false if the constraint is unsatisfiable under the bounds.
func refine(c linear.Cst, bounds func(linear.Var) Interval) (map[linear.Var]Interval, bool) {
	if c.IsTautology() {
		return nil, true
	}
	if c.IsContradiction() {
		return nil, false
	}

	res := make(map[linear.Var]Interval)
	get := func(v linear.Var) Interval {
		if i, ok := res[v]; ok {
			return i
		}
		return bounds(v)
	}

	switch c.Kind {
	case linear.LEQ:
		if !refineLeq(c.Expr, get, res) {
			return nil, false
		}
	case linear.EQ:
		if !refineLeq(c.Expr, get, res) || !refineLeq(c.Expr.Scale(-1), get, res) {
			return nil, false
		}
	case linear.NEQ:
		terms := c.Expr.Terms()
		if len(terms) == 1 {
			// a·x + k ≠ 0
			a, x, k := terms[0].Coef, terms[0].Var, c.Expr.Constant()
			if k%a == 0 {
				i := get(x)
				if s, ok := i.Singleton(); ok && s == -k/a {
					return nil, false
				}
				res[x] = i.Exclude(-k / a)
			}
			break
		}
		// Evaluate when every variable is known exactly.
		sum := c.Expr.Constant()
		for _, t := range terms {
			s, ok := get(t.Var).Singleton()
			if !ok {
				return res, true
			}
			sum += t.Coef * s
		}
		if sum == 0 {
			return nil, false
		}
	}

	for _, i := range res {
		if i.IsBottom() {
			return nil, false
		}
	}
	return res, true
}

// refineLeq propagates Σ aᵢ·xᵢ + k ≤ 0 into bounds for each xᵢ.
func refineLeq(e linear.Expr, get func(linear.Var) Interval, res map[linear.Var]Interval) bool {
	terms := e.Terms()
	mins := make([]Bound, len(terms))
	for i, t := range terms {
		iv := get(t.Var)
		if iv.IsBottom() {
			return false
		}
		mins[i] = iv.Scale(t.Coef).low
	}

	// The constraint is unsatisfiable if the minimal value is positive.
	total := Bound(FiniteBound(e.Constant()))
	for _, m := range mins {
		total = total.Plus(m)
	}
	if FiniteBound(0).Lt(total) {
		return false
	}

	for j, t := range terms {
		// R = -k - Σ_{i≠j} min(aᵢ·xᵢ)
		rest := Bound(FiniteBound(e.Constant()))
		for i, m := range mins {
			if i != j {
				rest = rest.Plus(m)
			}
		}
		f, ok := rest.(FiniteBound)
		if !ok || f == math.MinInt64 {
			continue
		}
		r := -int64(f)
		var bound Interval
		if t.Coef > 0 {
			bound = NewInterval(MinusInfinity{}, FiniteBound(floorDiv(r, t.Coef)))
		} else {
			bound = NewInterval(FiniteBound(ceilDiv(r, t.Coef)), PlusInfinity{})
		}
		res[t.Var] = get(t.Var).Meet(bound)
		if res[t.Var].IsBottom() {
			return false
		}
	}
	return true
}
