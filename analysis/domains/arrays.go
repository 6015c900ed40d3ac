package domains

import (
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

// Arrays extends a base domain with array smashing: every array is
// summarized by a single variable of the same name that describes all of
// its cells. Stores are weak updates, except for initialization.
type Arrays[B Domain[B]] struct {
	base B
}

type (
	ArrayIntervals      = Arrays[Intervals]
	ArrayIntervalCongrs = Arrays[IntervalCongrs]
	ArrayZones          = Arrays[Zones]
	ArrayDisIntervs     = Arrays[DisjunctiveIntervs]
	ArrayTermIntervals  = Arrays[TermIntervals]
	ArrayTermDisIntervs = Arrays[TermDisIntervs]
)

// NewArrays lifts a base value.
func NewArrays[B Domain[B]](base B) Arrays[B] { return Arrays[B]{base} }

// Base returns the underlying value.
func (a Arrays[B]) Base() B { return a.base }

func (a Arrays[B]) Top() Arrays[B]    { return Arrays[B]{a.base.Top()} }
func (a Arrays[B]) Bottom() Arrays[B] { return Arrays[B]{a.base.Bottom()} }

func (a Arrays[B]) IsBottom() bool { return a.base.IsBottom() }
func (a Arrays[B]) IsTop() bool    { return a.base.IsTop() }

func (a1 Arrays[B]) Leq(a2 Arrays[B]) bool   { return a1.base.Leq(a2.base) }
func (a1 Arrays[B]) Equal(a2 Arrays[B]) bool { return a1.base.Equal(a2.base) }

func (a1 Arrays[B]) Join(a2 Arrays[B]) Arrays[B]   { return Arrays[B]{a1.base.Join(a2.base)} }
func (a1 Arrays[B]) Meet(a2 Arrays[B]) Arrays[B]   { return Arrays[B]{a1.base.Meet(a2.base)} }
func (a1 Arrays[B]) Widen(a2 Arrays[B]) Arrays[B]  { return Arrays[B]{a1.base.Widen(a2.base)} }
func (a1 Arrays[B]) Narrow(a2 Arrays[B]) Arrays[B] { return Arrays[B]{a1.base.Narrow(a2.base)} }

func (a1 Arrays[B]) WidenThresholds(a2 Arrays[B], ts []int64) Arrays[B] {
	return Arrays[B]{a1.base.WidenThresholds(a2.base, ts)}
}

func (a Arrays[B]) Assign(x linear.Var, e linear.Expr) Arrays[B] {
	return Arrays[B]{a.base.Assign(x, e)}
}

func (a Arrays[B]) Apply(op cfg.Op, x linear.Var, y, z linear.Expr) Arrays[B] {
	return Arrays[B]{a.base.Apply(op, x, y, z)}
}

func (a Arrays[B]) AddConstraint(c linear.Cst) Arrays[B] {
	return Arrays[B]{a.base.AddConstraint(c)}
}

func (a Arrays[B]) Forget(vs ...linear.Var) Arrays[B]  { return Arrays[B]{a.base.Forget(vs...)} }
func (a Arrays[B]) Project(vs ...linear.Var) Arrays[B] { return Arrays[B]{a.base.Project(vs...)} }

func (a Arrays[B]) Rename(from, to []linear.Var) Arrays[B] {
	return Arrays[B]{a.base.Rename(from, to)}
}

// ArrayInit sets every cell, which is a strong update of the summary.
func (a Arrays[B]) ArrayInit(arr linear.Var, v linear.Expr) Arrays[B] {
	return Arrays[B]{a.base.Assign(arr, v)}
}

// ArrayStore weakly updates the summary with v.
func (a Arrays[B]) ArrayStore(arr linear.Var, _, v linear.Expr) Arrays[B] {
	if a.base.IsBottom() {
		return a
	}
	return Arrays[B]{a.base.Join(a.base.Assign(arr, v))}
}

// ArrayLoad binds x to the facts known about every cell.
func (a Arrays[B]) ArrayLoad(x, arr linear.Var, _ linear.Expr) Arrays[B] {
	if a.base.IsBottom() {
		return a
	}
	if x == arr {
		return a
	}
	cell := a.base.Project(arr).Rename([]linear.Var{arr}, []linear.Var{x})
	return Arrays[B]{a.base.Forget(x).Meet(cell)}
}

func (a Arrays[B]) ToConstraints() linear.System { return a.base.ToConstraints() }
func (a Arrays[B]) String() string               { return a.base.String() }
