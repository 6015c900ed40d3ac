package domains

import (
	"strings"

	"github.com/benbjohnson/immutable"
	uf "github.com/spakin/disjoint"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/cs-au-dk/invariant/utils"
)

// Terms extends a base domain with equivalence classes of variables that
// are known to hold the same value. Equalities are also pushed into the
// base domain, so that refinements on one member carry over to the others.
type Terms[B Domain[B]] struct {
	base B
	// Maps every member of a non-singleton class to the smallest member.
	reps *immutable.Map[linear.Var, linear.Var]
}

type (
	TermIntervals  = Terms[Intervals]
	TermDisIntervs = Terms[DisjunctiveIntervs]
)

// NewTerms lifts a base value without any known equalities.
func NewTerms[B Domain[B]](base B) Terms[B] {
	return Terms[B]{base: base}
}

// Base returns the underlying value.
func (t Terms[B]) Base() B { return t.base }

func (t Terms[B]) Top() Terms[B] {
	return Terms[B]{base: t.base.Top()}
}

func (t Terms[B]) Bottom() Terms[B] {
	return Terms[B]{base: t.base.Bottom()}
}

func (t Terms[B]) IsBottom() bool { return t.base.IsBottom() }
func (t Terms[B]) IsTop() bool    { return t.base.IsTop() && t.numReps() == 0 }

func (t Terms[B]) numReps() int {
	if t.reps == nil {
		return 0
	}
	return t.reps.Len()
}

// find returns the representative of v.
func (t Terms[B]) find(v linear.Var) linear.Var {
	if t.reps != nil {
		if r, ok := t.reps.Get(v); ok {
			return r
		}
	}
	return v
}

func (t Terms[B]) members() []linear.Var {
	if t.reps == nil {
		return nil
	}
	vs := make([]linear.Var, 0, t.reps.Len())
	for itr := t.reps.Iterator(); !itr.Done(); {
		v, _, _ := itr.Next()
		vs = append(vs, v)
	}
	return linear.SortVars(vs)
}

// Classes returns the non-singleton equivalence classes, each sorted with
// its representative first.
func (t Terms[B]) Classes() [][]linear.Var {
	idx := map[linear.Var]int{}
	res := [][]linear.Var{}
	for _, v := range t.members() {
		r := t.find(v)
		i, ok := idx[r]
		if !ok {
			i = len(res)
			idx[r] = i
			res = append(res, nil)
		}
		res[i] = append(res[i], v)
	}
	return res
}

func buildReps(classes [][]linear.Var) *immutable.Map[linear.Var, linear.Var] {
	var mp *immutable.Map[linear.Var, linear.Var]
	for _, cls := range classes {
		if len(cls) < 2 {
			continue
		}
		if mp == nil {
			mp = immutable.NewMap[linear.Var, linear.Var](utils.StringHasher[linear.Var]{})
		}
		cls = linear.SortVars(append([]linear.Var(nil), cls...))
		for _, v := range cls {
			mp = mp.Set(v, cls[0])
		}
	}
	return mp
}

// remove takes the variables out of their classes.
func (t Terms[B]) remove(vs ...linear.Var) Terms[B] {
	if t.reps == nil {
		return t
	}
	drop := map[linear.Var]bool{}
	for _, v := range vs {
		drop[v] = true
	}
	classes := t.Classes()
	for i, cls := range classes {
		kept := []linear.Var{}
		for _, v := range cls {
			if !drop[v] {
				kept = append(kept, v)
			}
		}
		classes[i] = kept
	}
	t.reps = buildReps(classes)
	return t
}

// intersect refines both partitions: two variables are equivalent in the
// result if they are equivalent in both.
func (t1 Terms[B]) intersect(t2 Terms[B]) *immutable.Map[linear.Var, linear.Var] {
	type key struct{ r1, r2 linear.Var }
	groups := map[key][]linear.Var{}
	order := []key{}
	for _, v := range t1.members() {
		k := key{t1.find(v), t2.find(v)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	classes := make([][]linear.Var, 0, len(order))
	for _, k := range order {
		classes = append(classes, groups[k])
	}
	return buildReps(classes)
}

// merge coarsens both partitions into their union.
func (t1 Terms[B]) merge(t2 Terms[B]) [][]linear.Var {
	elems := map[linear.Var]*uf.Element{}
	vars := []linear.Var{}
	elem := func(v linear.Var) *uf.Element {
		el, ok := elems[v]
		if !ok {
			el = uf.NewElement()
			el.Data = v
			elems[v] = el
			vars = append(vars, v)
		}
		return el
	}
	for _, t := range []Terms[B]{t1, t2} {
		for _, v := range t.members() {
			uf.Union(elem(v), elem(t.find(v)))
		}
	}

	idx := map[*uf.Element]int{}
	classes := [][]linear.Var{}
	for _, v := range linear.SortVars(vars) {
		root := elems[v].Find()
		i, ok := idx[root]
		if !ok {
			i = len(classes)
			idx[root] = i
			classes = append(classes, nil)
		}
		classes[i] = append(classes[i], v)
	}
	return classes
}

// reduce pushes the equalities of the classes into the base domain.
func (t Terms[B]) reduce(classes [][]linear.Var) Terms[B] {
	for _, cls := range classes {
		for _, v := range cls[1:] {
			t.base = t.base.AddConstraint(linear.Eq(linear.V(v), linear.V(cls[0])))
		}
	}
	if t.base.IsBottom() {
		return t.Bottom()
	}
	return t
}

func (t1 Terms[B]) Leq(t2 Terms[B]) bool {
	switch {
	case t1.IsBottom():
		return true
	case t2.IsBottom() || !t1.base.Leq(t2.base):
		return false
	}
	for _, v := range t2.members() {
		r := t2.find(v)
		if t1.find(v) != t1.find(r) && !Entails(t1.base, linear.Eq(linear.V(v), linear.V(r))) {
			return false
		}
	}
	return true
}

func (t1 Terms[B]) Equal(t2 Terms[B]) bool {
	return t1.Leq(t2) && t2.Leq(t1)
}

func (t1 Terms[B]) Join(t2 Terms[B]) Terms[B] {
	switch {
	case t1.IsBottom():
		return t2
	case t2.IsBottom():
		return t1
	}
	return Terms[B]{base: t1.base.Join(t2.base), reps: t1.intersect(t2)}
}

func (t1 Terms[B]) Meet(t2 Terms[B]) Terms[B] {
	if t1.IsBottom() || t2.IsBottom() {
		return t1.Bottom()
	}
	classes := t1.merge(t2)
	res := Terms[B]{base: t1.base.Meet(t2.base), reps: buildReps(classes)}
	return res.reduce(classes)
}

func (t1 Terms[B]) Widen(t2 Terms[B]) Terms[B] {
	return t1.WidenThresholds(t2, nil)
}

func (t1 Terms[B]) WidenThresholds(t2 Terms[B], ts []int64) Terms[B] {
	switch {
	case t1.IsBottom():
		return t2
	case t2.IsBottom():
		return t1
	}
	return Terms[B]{base: t1.base.WidenThresholds(t2.base, ts), reps: t1.intersect(t2)}
}

func (t1 Terms[B]) Narrow(t2 Terms[B]) Terms[B] {
	if t1.IsBottom() || t2.IsBottom() {
		return t1.Bottom()
	}
	classes := t1.merge(t2)
	res := Terms[B]{base: t1.base.Narrow(t2.base), reps: buildReps(classes)}
	return res.reduce(classes)
}

func (t Terms[B]) Assign(x linear.Var, e linear.Expr) Terms[B] {
	if t.IsBottom() {
		return t
	}
	y, ok := e.IsVar()
	if ok && y == x {
		return t
	}
	t = t.remove(x)
	t.base = t.base.Assign(x, e)
	if !ok {
		return t
	}
	// x joins the class of y.
	classes := t.Classes()
	found := false
	for i, cls := range classes {
		if cls[0] == t.find(y) {
			classes[i] = append(cls, x)
			found = true
		}
	}
	if !found {
		classes = append(classes, []linear.Var{x, y})
	}
	t.reps = buildReps(classes)
	return t
}

func (t Terms[B]) Apply(op cfg.Op, x linear.Var, y, z linear.Expr) Terms[B] {
	if ex, ok := linearApply(op, y, z); ok {
		return t.Assign(x, ex)
	}
	if t.IsBottom() {
		return t
	}
	t = t.remove(x)
	t.base = t.base.Apply(op, x, y, z)
	return t
}

func (t Terms[B]) AddConstraint(c linear.Cst) Terms[B] {
	if t.IsBottom() {
		return t
	}
	t.base = t.base.AddConstraint(c)
	if t.base.IsBottom() {
		return t.Bottom()
	}

	if c.Kind == linear.EQ && c.Expr.Constant() == 0 {
		if x, y, ok := difference(c.Expr); ok && t.find(x) != t.find(y) {
			classes := t.merge(Terms[B]{reps: buildReps([][]linear.Var{{x, y}})})
			t.reps = buildReps(classes)
		}
	}

	// Propagate the refinement to the other members of the touched classes.
	touched := map[linear.Var]bool{}
	for _, v := range c.Vars() {
		touched[t.find(v)] = true
	}
	var classes [][]linear.Var
	for _, cls := range t.Classes() {
		if touched[cls[0]] {
			classes = append(classes, cls)
		}
	}
	return t.reduce(classes)
}

func (t Terms[B]) Forget(vs ...linear.Var) Terms[B] {
	if t.IsBottom() {
		return t
	}
	t = t.remove(vs...)
	t.base = t.base.Forget(vs...)
	return t
}

func (t Terms[B]) Project(vs ...linear.Var) Terms[B] {
	if t.IsBottom() {
		return t
	}
	keep := map[linear.Var]bool{}
	for _, v := range vs {
		keep[v] = true
	}
	drop := []linear.Var{}
	for _, v := range t.members() {
		if !keep[v] {
			drop = append(drop, v)
		}
	}
	t = t.remove(drop...)
	t.base = t.base.Project(vs...)
	return t
}

func (t Terms[B]) Rename(from, to []linear.Var) Terms[B] {
	ren := renameMap(from, to)
	if t.IsBottom() {
		return t
	}
	overwritten := []linear.Var{}
	for _, v := range to {
		if _, ok := ren[v]; !ok {
			overwritten = append(overwritten, v)
		}
	}
	t = t.remove(overwritten...)

	classes := t.Classes()
	for _, cls := range classes {
		for i, v := range cls {
			if w, ok := ren[v]; ok {
				cls[i] = w
			}
		}
	}
	return Terms[B]{base: t.base.Rename(from, to), reps: buildReps(classes)}
}

func (t Terms[B]) ArrayInit(a linear.Var, v linear.Expr) Terms[B] {
	if t.IsBottom() {
		return t
	}
	t = t.remove(a)
	t.base = t.base.ArrayInit(a, v)
	return t
}

func (t Terms[B]) ArrayStore(a linear.Var, i, v linear.Expr) Terms[B] {
	if t.IsBottom() {
		return t
	}
	t = t.remove(a)
	t.base = t.base.ArrayStore(a, i, v)
	return t
}

func (t Terms[B]) ArrayLoad(x, a linear.Var, i linear.Expr) Terms[B] {
	if t.IsBottom() {
		return t
	}
	t = t.remove(x)
	t.base = t.base.ArrayLoad(x, a, i)
	return t
}

func (t Terms[B]) ToConstraints() linear.System {
	res := t.base.ToConstraints()
	if res.IsFalse() {
		return res
	}
	for _, cls := range t.Classes() {
		for _, v := range cls[1:] {
			res = append(res, linear.Eq(linear.V(v), linear.V(cls[0])))
		}
	}
	return res
}

func (t Terms[B]) String() string {
	if t.IsBottom() || t.numReps() == 0 {
		return t.base.String()
	}
	strs := []string{}
	for _, cls := range t.Classes() {
		names := make([]string, len(cls))
		for i, v := range cls {
			names[i] = v.String()
		}
		strs = append(strs, strings.Join(names, " == "))
	}
	return t.base.String() + " ∧ {" + strings.Join(strs, "; ") + "}"
}
