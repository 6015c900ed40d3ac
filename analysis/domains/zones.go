package domains

import (
	"math"
	"sort"
	"strings"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

const inf = math.MaxInt64

// Zones is the difference-bound matrix domain. It tracks constraints of the
// shape x - y ≤ c and ±x ≤ c.
//
// The matrix is indexed by the sorted variables shifted by one; index 0 is
// the constant zero. Entry (i, j) bounds vⱼ - vᵢ. Every operation except
// widening returns a closed matrix.
type Zones struct {
	vars []linear.Var
	m    []int64
	bot  bool
	open bool
}

func (Zones) Top() Zones    { return Zones{} }
func (Zones) Bottom() Zones { return Zones{bot: true} }

func (z Zones) IsBottom() bool {
	return z.bot || z.close().bot
}

func (z Zones) IsTop() bool {
	if z.bot {
		return false
	}
	n := z.size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && z.at(i, j) != inf {
				return false
			}
		}
	}
	return true
}

func (z Zones) size() int             { return len(z.vars) + 1 }
func (z Zones) at(i, j int) int64     { return z.m[i*z.size()+j] }
func (z Zones) set(i, j int, c int64) { z.m[i*z.size()+j] = c }

func (z Zones) tighten(i, j int, c int64) {
	if c < z.at(i, j) {
		z.set(i, j, c)
	}
}

// addBound adds two matrix entries. Sums beyond the int64 range saturate
// to inf or to the smallest integer.
func addBound(a, b int64) int64 {
	if a == inf || b == inf {
		return inf
	}
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return inf
	case b < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}

// negBound negates a constant used as an upper bound. The negation of the
// smallest integer does not fit and the bound is dropped.
func negBound(c int64) int64 {
	if c == math.MinInt64 {
		return inf
	}
	return -c
}

// index returns the matrix index of v.
func (z Zones) index(v linear.Var) (int, bool) {
	i := sort.Search(len(z.vars), func(i int) bool { return z.vars[i] >= v })
	if i < len(z.vars) && z.vars[i] == v {
		return i + 1, true
	}
	return 0, false
}

func (z Zones) copy() Zones {
	res := z
	res.vars = append([]linear.Var(nil), z.vars...)
	res.m = append([]int64(nil), z.m...)
	return res
}

// reindex builds an unconstrained matrix over vars, copying the entries
// of variables present in z.
func (z Zones) reindex(vars []linear.Var) Zones {
	res := Zones{vars: vars, open: z.open}
	n := res.size()
	res.m = make([]int64, n*n)
	for i := range res.m {
		res.m[i] = inf
	}
	old := make([]int, n)
	old[0] = 0
	for i, v := range vars {
		if k, ok := z.index(v); ok {
			old[i+1] = k
		} else {
			old[i+1] = -1
		}
	}
	for i := 0; i < n; i++ {
		res.set(i, i, 0)
		if old[i] < 0 {
			continue
		}
		for j := 0; j < n; j++ {
			if old[j] >= 0 && i != j {
				res.set(i, j, z.at(old[i], old[j]))
			}
		}
	}
	return res
}

// extend adds unconstrained dimensions for the given variables.
func (z Zones) extend(vs ...linear.Var) Zones {
	if z.m == nil {
		z.m = []int64{0}
	}
	missing := false
	for _, v := range vs {
		if _, ok := z.index(v); !ok {
			missing = true
			break
		}
	}
	if !missing {
		return z.copy()
	}
	return z.reindex(union(z.vars, vs))
}

func union(a, b []linear.Var) []linear.Var {
	seen := map[linear.Var]bool{}
	res := []linear.Var{}
	for _, vs := range [][]linear.Var{a, b} {
		for _, v := range vs {
			if !seen[v] {
				seen[v] = true
				res = append(res, v)
			}
		}
	}
	return linear.SortVars(res)
}

// unify brings both matrices to the same dimensions.
func unify(z1, z2 Zones) (Zones, Zones) {
	vars := union(z1.vars, z2.vars)
	return z1.extend(vars...), z2.extend(vars...)
}

// close computes the shortest-path closure, detecting negative cycles.
func (z Zones) close() Zones {
	if z.bot || !z.open && z.m != nil {
		return z
	}
	if z.m == nil {
		return Zones{}
	}
	z = z.copy()
	n := z.size()
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			ik := z.at(i, k)
			if ik == inf {
				continue
			}
			for j := 0; j < n; j++ {
				z.tighten(i, j, addBound(ik, z.at(k, j)))
			}
		}
	}
	for i := 0; i < n; i++ {
		if z.at(i, i) < 0 {
			return z.Bottom()
		}
	}
	z.open = false
	return z
}

// Interval returns the bounds of v.
func (z Zones) Interval(v linear.Var) Interval {
	z = z.close()
	if z.bot {
		return BotInterval()
	}
	i, ok := z.index(v)
	if !ok {
		return TopInterval()
	}
	low, high := Bound(MinusInfinity{}), Bound(PlusInfinity{})
	if c := z.at(i, 0); c == math.MinInt64 {
		low = FiniteBound(math.MaxInt64)
	} else if c != inf {
		low = FiniteBound(-c)
	}
	if c := z.at(0, i); c != inf {
		high = FiniteBound(c)
	}
	return NewInterval(low, high)
}

func (z1 Zones) Leq(z2 Zones) bool {
	z1, z2 = z1.close(), z2.close()
	switch {
	case z1.bot:
		return true
	case z2.bot:
		return false
	}
	z1, z2 = unify(z1, z2)
	for i := range z2.m {
		if z1.m[i] > z2.m[i] {
			return false
		}
	}
	return true
}

func (z1 Zones) Equal(z2 Zones) bool {
	return z1.Leq(z2) && z2.Leq(z1)
}

func (z1 Zones) Join(z2 Zones) Zones {
	z1, z2 = z1.close(), z2.close()
	switch {
	case z1.bot:
		return z2
	case z2.bot:
		return z1
	}
	z1, z2 = unify(z1, z2)
	for i, c := range z2.m {
		if c > z1.m[i] {
			z1.m[i] = c
		}
	}
	return z1.compact()
}

func (z1 Zones) Meet(z2 Zones) Zones {
	if z1.bot || z2.bot {
		return z1.Bottom()
	}
	z1, z2 = unify(z1, z2)
	for i, c := range z2.m {
		if c < z1.m[i] {
			z1.m[i] = c
		}
	}
	z1.open = true
	return z1.close()
}

func (z1 Zones) Widen(z2 Zones) Zones {
	return z1.WidenThresholds(z2, nil)
}

// WidenThresholds drops every unstable bound. Unstable variable bounds
// are first relaxed to the closest threshold. The result is not closed.
func (z1 Zones) WidenThresholds(z2 Zones, ts []int64) Zones {
	z2 = z2.close()
	switch {
	case z1.bot:
		return z2
	case z2.bot:
		return z1
	}
	z1, z2 = unify(z1, z2)
	n := z1.size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c1, c2 := z1.at(i, j), z2.at(i, j)
			if c2 <= c1 {
				continue
			}
			switch {
			case i == 0:
				z1.set(i, j, thresholdAbove(c2, ts))
			case j == 0:
				// -x ≤ c, i.e. x ≥ -c
				z1.set(i, j, thresholdAbove(c2, negated(ts)))
			default:
				z1.set(i, j, inf)
			}
		}
	}
	z1.open = true
	return z1
}

// thresholdAbove returns the smallest threshold ≥ c.
func thresholdAbove(c int64, ts []int64) int64 {
	i := sort.Search(len(ts), func(i int) bool { return ts[i] >= c })
	if i < len(ts) {
		return ts[i]
	}
	return inf
}

func negated(ts []int64) []int64 {
	res := make([]int64, len(ts))
	for i, t := range ts {
		res[len(ts)-1-i] = negBound(t)
	}
	return res
}

// Narrow refines the bounds that are unconstrained in z1.
func (z1 Zones) Narrow(z2 Zones) Zones {
	if z1.bot || z2.bot {
		return z1.Bottom()
	}
	z1, z2 = unify(z1.close(), z2.close())
	for i, c := range z1.m {
		if c == inf {
			z1.m[i] = z2.m[i]
		}
	}
	z1.open = true
	return z1.close()
}

// compact drops unconstrained variables.
func (z Zones) compact() Zones {
	if z.bot || z.open {
		return z
	}
	n := z.size()
	keep := []linear.Var{}
	for i, v := range z.vars {
		for j := 0; j < n; j++ {
			if j != i+1 && (z.at(i+1, j) != inf || z.at(j, i+1) != inf) {
				keep = append(keep, v)
				break
			}
		}
	}
	if len(keep) == len(z.vars) {
		return z
	}
	return z.reindex(keep)
}

// assignInterval forgets x and bounds it by i.
func (z Zones) assignInterval(x linear.Var, i Interval) Zones {
	if i.IsBottom() {
		return z.Bottom()
	}
	z = z.Forget(x).extend(x)
	k, _ := z.index(x)
	if h, ok := i.high.(FiniteBound); ok {
		z.set(0, k, int64(h))
	}
	if l, ok := i.low.(FiniteBound); ok {
		z.set(k, 0, negBound(int64(l)))
	}
	z.open = true
	return z.close().compact()
}

// Eval evaluates a linear expression to an interval.
func (z Zones) Eval(e linear.Expr) Interval {
	res := Singleton(e.Constant())
	for _, t := range e.Terms() {
		res = res.Add(z.Interval(t.Var).Scale(t.Coef))
	}
	return res
}

func (z Zones) Assign(x linear.Var, e linear.Expr) Zones {
	z = z.close()
	if z.bot {
		return z
	}
	terms := e.Terms()
	if len(terms) != 1 || terms[0].Coef != 1 {
		return z.assignInterval(x, z.Eval(e))
	}

	y, k := terms[0].Var, e.Constant()
	if y == x {
		// x := x + k shifts every bound on x.
		i, ok := z.index(x)
		if !ok {
			return z
		}
		z = z.copy()
		for j := 0; j < z.size(); j++ {
			if j == i {
				continue
			}
			if c := z.at(i, j); c != inf {
				z.set(i, j, addBound(c, negBound(k)))
			}
			if c := z.at(j, i); c != inf {
				z.set(j, i, addBound(c, k))
			}
		}
		return z
	}

	// x := y + k
	z = z.Forget(x).extend(x, y)
	xi, _ := z.index(x)
	yi, _ := z.index(y)
	z.set(yi, xi, k)
	z.set(xi, yi, negBound(k))
	z.open = true
	return z.close()
}

func (z Zones) Apply(op cfg.Op, x linear.Var, y, e linear.Expr) Zones {
	if ex, ok := linearApply(op, y, e); ok {
		return z.Assign(x, ex)
	}
	z = z.close()
	if z.bot {
		return z
	}
	vy, ve := z.Eval(y), z.Eval(e)
	switch op {
	case cfg.OpMul:
		return z.assignInterval(x, vy.Mul(ve))
	case cfg.OpDiv:
		return z.assignInterval(x, vy.Div(ve))
	case cfg.OpRem:
		return z.assignInterval(x, vy.Rem(ve))
	}
	panic(errInternal)
}

// difference matches e against pos - neg + k.
func difference(e linear.Expr) (pos, neg linear.Var, ok bool) {
	terms := e.Terms()
	if len(terms) != 2 || terms[0].Coef != -terms[1].Coef {
		return "", "", false
	}
	switch terms[0].Coef {
	case 1:
		return terms[0].Var, terms[1].Var, true
	case -1:
		return terms[1].Var, terms[0].Var, true
	}
	return "", "", false
}

// addLeq adds e ≤ 0 when e is a unary or difference constraint.
func (z Zones) addLeq(e linear.Expr) (Zones, bool) {
	terms, k := e.Terms(), e.Constant()
	switch {
	case len(terms) == 1 && terms[0].Coef == 1:
		z = z.extend(terms[0].Var)
		i, _ := z.index(terms[0].Var)
		z.tighten(0, i, negBound(k))
	case len(terms) == 1 && terms[0].Coef == -1:
		z = z.extend(terms[0].Var)
		i, _ := z.index(terms[0].Var)
		z.tighten(i, 0, negBound(k))
	default:
		pos, neg, ok := difference(e)
		if !ok {
			return z, false
		}
		z = z.extend(pos, neg)
		i, _ := z.index(neg)
		j, _ := z.index(pos)
		z.tighten(i, j, negBound(k))
	}
	z.open = true
	return z, true
}

func (z Zones) AddConstraint(c linear.Cst) Zones {
	z = z.close()
	switch {
	case z.bot || c.IsTautology():
		return z
	case c.IsContradiction():
		return z.Bottom()
	}

	switch c.Kind {
	case linear.LEQ:
		if res, ok := z.addLeq(c.Expr); ok {
			return res.close()
		}
	case linear.EQ:
		if res, ok := z.addLeq(c.Expr); ok {
			res, _ = res.addLeq(c.Expr.Scale(-1))
			return res.close()
		}
	case linear.NEQ:
		if k, ok := z.Eval(c.Expr).Singleton(); ok && k == 0 {
			return z.Bottom()
		}
		if pos, neg, ok := difference(c.Expr); ok {
			// pos - neg ≠ -k fails only if the difference is known exactly.
			k := c.Expr.Constant()
			i, ok1 := z.index(neg)
			j, ok2 := z.index(pos)
			if ok1 && ok2 && z.at(i, j) != inf && z.at(i, j) == negBound(k) && z.at(j, i) == k {
				return z.Bottom()
			}
			return z
		}
	}

	bounds, ok := refine(c, z.Interval)
	if !ok {
		return z.Bottom()
	}
	for _, v := range linear.SortVars(keys(bounds)) {
		z = z.meetInterval(v, bounds[v])
	}
	return z.close()
}

func (z Zones) meetInterval(v linear.Var, i Interval) Zones {
	if i.IsBottom() {
		return z.Bottom()
	}
	z = z.extend(v)
	k, _ := z.index(v)
	if h, ok := i.high.(FiniteBound); ok {
		z.tighten(0, k, int64(h))
	}
	if l, ok := i.low.(FiniteBound); ok {
		z.tighten(k, 0, negBound(int64(l)))
	}
	z.open = true
	return z
}

func (z Zones) Forget(vs ...linear.Var) Zones {
	z = z.close()
	if z.bot || z.m == nil {
		return z
	}
	drop := map[linear.Var]bool{}
	for _, v := range vs {
		drop[v] = true
	}
	keep := []linear.Var{}
	for _, v := range z.vars {
		if !drop[v] {
			keep = append(keep, v)
		}
	}
	if len(keep) == len(z.vars) {
		return z
	}
	return z.reindex(keep)
}

func (z Zones) Project(vs ...linear.Var) Zones {
	z = z.close()
	if z.bot || z.m == nil {
		return z
	}
	want := map[linear.Var]bool{}
	for _, v := range vs {
		want[v] = true
	}
	keep := []linear.Var{}
	for _, v := range z.vars {
		if want[v] {
			keep = append(keep, v)
		}
	}
	return z.reindex(keep)
}

func (z Zones) Rename(from, to []linear.Var) Zones {
	ren := renameMap(from, to)
	z = z.close()
	if z.bot || z.m == nil {
		return z
	}

	// Targets that are not renamed themselves are overwritten.
	overwritten := []linear.Var{}
	for _, v := range to {
		if _, ok := ren[v]; !ok {
			overwritten = append(overwritten, v)
		}
	}
	z = z.Forget(overwritten...)

	names := make([]linear.Var, len(z.vars))
	for i, v := range z.vars {
		if w, ok := ren[v]; ok {
			names[i] = w
		} else {
			names[i] = v
		}
	}
	perm := make([]int, len(names))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return names[perm[a]] < names[perm[b]] })

	res := Zones{vars: make([]linear.Var, len(names))}
	n := res.size()
	res.m = make([]int64, n*n)
	// idx maps new indices to old ones.
	idx := make([]int, n)
	for i, p := range perm {
		res.vars[i] = names[p]
		idx[i+1] = p + 1
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			res.set(i, j, z.at(idx[i], idx[j]))
		}
	}
	return res
}

// Arrays are not modelled by zones.
func (z Zones) ArrayInit(a linear.Var, _ linear.Expr) Zones     { return z.Forget(a) }
func (z Zones) ArrayStore(a linear.Var, _, _ linear.Expr) Zones { return z.Forget(a) }
func (z Zones) ArrayLoad(x, _ linear.Var, _ linear.Expr) Zones  { return z.Forget(x) }

func (z Zones) ToConstraints() linear.System {
	z = z.close()
	if z.bot {
		return linear.System{linear.False()}
	}
	res := linear.System{}
	if z.m == nil {
		return res
	}
	expr := func(i int) linear.Expr {
		if i == 0 {
			return linear.Const(0)
		}
		return linear.V(z.vars[i-1])
	}
	n := z.size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := z.at(i, j)
			if i == j || c == inf {
				continue
			}
			// vⱼ - vᵢ ≤ c
			if r := z.at(j, i); r != inf && r == negBound(c) {
				if j < i {
					continue
				}
				res = append(res, linear.Eq(expr(j).Sub(expr(i)), linear.Const(c)))
				continue
			}
			res = append(res, linear.Leq(expr(j).Sub(expr(i)), linear.Const(c)))
		}
	}
	return res
}

func (z Zones) String() string {
	cs := z.ToConstraints()
	if cs.IsFalse() {
		return "⊥"
	}
	strs := make([]string, len(cs))
	for i, c := range cs {
		strs[i] = c.String()
	}
	return "{" + strings.Join(strs, "; ") + "}"
}
