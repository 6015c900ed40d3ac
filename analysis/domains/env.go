package domains

import (
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/utils"
)

// Env is a non-relational domain mapping variables to values. Variables
// that are not bound are ⊤, and ⊤ values are never stored. An environment
// binding any variable to ⊥ is ⊥.
type Env[V Value[V]] struct {
	mp  *immutable.Map[linear.Var, V]
	bot bool
}

type (
	Intervals          = Env[Interval]
	Congruences        = Env[Congruence]
	IntervalCongrs     = Env[IntervalCongruence]
	DisjunctiveIntervs = Env[DisInterval]
)

func (Env[V]) Top() Env[V]    { return Env[V]{} }
func (Env[V]) Bottom() Env[V] { return Env[V]{bot: true} }

func (e Env[V]) IsBottom() bool { return e.bot }
func (e Env[V]) IsTop() bool    { return !e.bot && e.Len() == 0 }

// Len returns the number of constrained variables.
func (e Env[V]) Len() int {
	if e.mp == nil {
		return 0
	}
	return e.mp.Len()
}

// Get returns the value of v.
func (e Env[V]) Get(v linear.Var) V {
	var zero V
	switch {
	case e.bot:
		return zero.Bottom()
	case e.mp == nil:
		return zero.Top()
	}
	if val, ok := e.mp.Get(v); ok {
		return val
	}
	return zero.Top()
}

// Set binds v to val.
func (e Env[V]) Set(v linear.Var, val V) Env[V] {
	switch {
	case e.bot:
		return e
	case val.IsBottom():
		return e.Bottom()
	case val.IsTop():
		if e.mp == nil {
			return e
		}
		return Env[V]{mp: e.mp.Delete(v)}
	}
	mp := e.mp
	if mp == nil {
		mp = immutable.NewMap[linear.Var, V](utils.StringHasher[linear.Var]{})
	}
	return Env[V]{mp: mp.Set(v, val)}
}

// ForEach visits every constrained variable in sorted order.
func (e Env[V]) ForEach(do func(linear.Var, V)) {
	for _, v := range e.Vars() {
		do(v, e.Get(v))
	}
}

// Vars returns the constrained variables in sorted order.
func (e Env[V]) Vars() []linear.Var {
	if e.mp == nil {
		return nil
	}
	vs := make([]linear.Var, 0, e.mp.Len())
	for itr := e.mp.Iterator(); !itr.Done(); {
		k, _, _ := itr.Next()
		vs = append(vs, k)
	}
	return linear.SortVars(vs)
}

func (e1 Env[V]) Leq(e2 Env[V]) bool {
	switch {
	case e1.bot:
		return true
	case e2.bot:
		return false
	}
	for _, v := range e2.Vars() {
		if !e1.Get(v).Leq(e2.Get(v)) {
			return false
		}
	}
	return true
}

func (e1 Env[V]) Equal(e2 Env[V]) bool {
	return e1.Leq(e2) && e2.Leq(e1)
}

// pointwise combines the bindings of both environments. With union set,
// variables bound in either environment are visited, otherwise only
// variables bound in both.
func (e1 Env[V]) pointwise(e2 Env[V], union bool, f func(a, b V) V) Env[V] {
	res := Env[V]{}
	seen := map[linear.Var]bool{}
	for _, v := range e1.Vars() {
		seen[v] = true
		if _, ok := e2.lookup(v); ok || union {
			res = res.Set(v, f(e1.Get(v), e2.Get(v)))
		}
	}
	if union {
		for _, v := range e2.Vars() {
			if !seen[v] {
				res = res.Set(v, f(e1.Get(v), e2.Get(v)))
			}
		}
	}
	return res
}

func (e Env[V]) lookup(v linear.Var) (V, bool) {
	if e.mp == nil {
		var zero V
		return zero, false
	}
	return e.mp.Get(v)
}

func (e1 Env[V]) Join(e2 Env[V]) Env[V] {
	switch {
	case e1.bot:
		return e2
	case e2.bot:
		return e1
	}
	return e1.pointwise(e2, false, func(a, b V) V { return a.Join(b) })
}

func (e1 Env[V]) Meet(e2 Env[V]) Env[V] {
	if e1.bot || e2.bot {
		return e1.Bottom()
	}
	return e1.pointwise(e2, true, func(a, b V) V { return a.Meet(b) })
}

func (e1 Env[V]) Widen(e2 Env[V]) Env[V] {
	return e1.WidenThresholds(e2, nil)
}

func (e1 Env[V]) WidenThresholds(e2 Env[V], ts []int64) Env[V] {
	switch {
	case e1.bot:
		return e2
	case e2.bot:
		return e1
	}
	return e1.pointwise(e2, false, func(a, b V) V { return a.WidenThresholds(b, ts) })
}

func (e1 Env[V]) Narrow(e2 Env[V]) Env[V] {
	if e1.bot || e2.bot {
		return e1.Bottom()
	}
	return e1.pointwise(e2, true, func(a, b V) V { return a.Narrow(b) })
}

// Eval evaluates a linear expression.
func (e Env[V]) Eval(ex linear.Expr) V {
	var zero V
	res := zero.Const(ex.Constant())
	for _, t := range ex.Terms() {
		res = res.Add(e.Get(t.Var).Scale(t.Coef))
	}
	return res
}

func (e Env[V]) Assign(x linear.Var, ex linear.Expr) Env[V] {
	if e.bot {
		return e
	}
	return e.Set(x, e.Eval(ex))
}

func (e Env[V]) Apply(op cfg.Op, x linear.Var, y, z linear.Expr) Env[V] {
	if e.bot {
		return e
	}
	if ex, ok := linearApply(op, y, z); ok {
		return e.Assign(x, ex)
	}
	vy, vz := e.Eval(y), e.Eval(z)
	switch op {
	case cfg.OpMul:
		return e.Set(x, vy.Mul(vz))
	case cfg.OpDiv:
		return e.Set(x, vy.Div(vz))
	case cfg.OpRem:
		return e.Set(x, vy.Rem(vz))
	}
	panic(errInternal)
}

func (e Env[V]) AddConstraint(c linear.Cst) Env[V] {
	if e.bot {
		return e
	}

	if terms := c.Expr.Terms(); c.Kind == linear.NEQ && len(terms) == 1 {
		a, x, k := terms[0].Coef, terms[0].Var, c.Expr.Constant()
		if k%a != 0 {
			return e
		}
		return e.Set(x, e.Get(x).Exclude(-k/a))
	}

	bounds, ok := refine(c, func(v linear.Var) Interval { return e.Get(v).Bounds() })
	if !ok {
		return e.Bottom()
	}
	for _, v := range linear.SortVars(keys(bounds)) {
		e = e.Set(v, e.Get(v).MeetInterval(bounds[v]))
	}
	return e
}

func keys[T any](m map[linear.Var]T) []linear.Var {
	vs := make([]linear.Var, 0, len(m))
	for v := range m {
		vs = append(vs, v)
	}
	return vs
}

func (e Env[V]) Forget(vs ...linear.Var) Env[V] {
	if e.bot || e.mp == nil {
		return e
	}
	mp := e.mp
	for _, v := range vs {
		mp = mp.Delete(v)
	}
	return Env[V]{mp: mp}
}

func (e Env[V]) Project(vs ...linear.Var) Env[V] {
	if e.bot {
		return e
	}
	res := Env[V]{}
	for _, v := range vs {
		if val, ok := e.lookup(v); ok {
			res = res.Set(v, val)
		}
	}
	return res
}

func (e Env[V]) Rename(from, to []linear.Var) Env[V] {
	checkRename(from, to)
	if e.bot {
		return e
	}
	vals := make([]V, len(from))
	for i, v := range from {
		vals[i] = e.Get(v)
	}
	res := e.Forget(from...).Forget(to...)
	for i, v := range to {
		res = res.Set(v, vals[i])
	}
	return res
}

// Arrays are not modelled by environments.
func (e Env[V]) ArrayInit(a linear.Var, _ linear.Expr) Env[V]     { return e.Forget(a) }
func (e Env[V]) ArrayStore(a linear.Var, _, _ linear.Expr) Env[V] { return e.Forget(a) }
func (e Env[V]) ArrayLoad(x, _ linear.Var, _ linear.Expr) Env[V]  { return e.Forget(x) }

func (e Env[V]) ToConstraints() linear.System {
	if e.bot {
		return linear.System{linear.False()}
	}
	res := linear.System{}
	e.ForEach(func(v linear.Var, val V) {
		res = append(res, val.Constraints(v)...)
	})
	return res
}

func (e Env[V]) String() string {
	if e.bot {
		return "⊥"
	}
	strs := []string{}
	e.ForEach(func(v linear.Var, val V) {
		strs = append(strs, v.String()+" -> "+val.String())
	})
	return "{" + strings.Join(strs, "; ") + "}"
}
