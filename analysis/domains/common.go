// Package domains implements the numerical abstract domains the analyses
// are parameterized by: non-relational environments over intervals,
// congruences and their reduced product, disjunctive intervals, zones,
// and the variable-equivalence and array-smashing functors.
package domains

import (
	"errors"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

var (
	errInternal       = errors.New("internal error")
	errDivisionByZero = errors.New("division by zero")
	errRenameArity    = errors.New("rename: mismatched variable lists")
)

// Domain is the uniform contract of every abstract domain. Values are
// immutable: every operation returns a new value. The zero value of every
// implementation is a valid top element.
type Domain[D any] interface {
	IsBottom() bool
	IsTop() bool
	// Top and Bottom do not depend on the receiver.
	Top() D
	Bottom() D

	Leq(D) bool
	Equal(D) bool
	Join(D) D
	Meet(D) D
	Widen(D) D
	// WidenThresholds widens, stopping at the given sorted thresholds.
	WidenThresholds(D, []int64) D
	Narrow(D) D

	// Assign computes x := e.
	Assign(x linear.Var, e linear.Expr) D
	// Apply computes x := y op z.
	Apply(op cfg.Op, x linear.Var, y, z linear.Expr) D
	AddConstraint(c linear.Cst) D
	// Forget removes all information about the variables.
	Forget(vs ...linear.Var) D
	// Project removes all information about variables other than vs.
	Project(vs ...linear.Var) D
	// Rename simultaneously renames from[i] into to[i].
	// Information about variables in to that are not in from is lost.
	Rename(from, to []linear.Var) D

	// ArrayInit sets every cell of a to v.
	ArrayInit(a linear.Var, v linear.Expr) D
	// ArrayStore computes a[i] := v.
	ArrayStore(a linear.Var, i, v linear.Expr) D
	// ArrayLoad computes x := a[i].
	ArrayLoad(x, a linear.Var, i linear.Expr) D

	// ToConstraints returns an equivalent (or weaker, for non-linear facts)
	// conjunction of linear constraints.
	ToConstraints() linear.System
	String() string
}

// AddConstraints conjoins every constraint of a system.
func AddConstraints[D Domain[D]](d D, s linear.System) D {
	for _, c := range s {
		if d.IsBottom() {
			return d
		}
		d = d.AddConstraint(c)
	}
	return d
}

// FromConstraints builds the value of the system conjoined with top.
func FromConstraints[D Domain[D]](s linear.System) D {
	var zero D
	return AddConstraints(zero.Top(), s)
}

// Entails checks whether every state described by d satisfies c.
func Entails[D Domain[D]](d D, c linear.Cst) bool {
	if d.IsBottom() || c.IsTautology() {
		return true
	}
	for _, neg := range c.Negate() {
		if !d.AddConstraint(neg).IsBottom() {
			return false
		}
	}
	return true
}

func checkRename(from, to []linear.Var) {
	if len(from) != len(to) {
		panic(errRenameArity)
	}
}

// renameMap builds the simultaneous renaming map.
func renameMap(from, to []linear.Var) map[linear.Var]linear.Var {
	checkRename(from, to)
	ren := make(map[linear.Var]linear.Var, len(from))
	for i, v := range from {
		ren[v] = to[i]
	}
	return ren
}

// linearApply converts x := y op z into a linear assignment when possible.
func linearApply(op cfg.Op, y, z linear.Expr) (linear.Expr, bool) {
	switch op {
	case cfg.OpAdd:
		return y.Add(z), true
	case cfg.OpSub:
		return y.Sub(z), true
	case cfg.OpMul:
		switch {
		case y.IsConstant():
			return z.Scale(y.Constant()), true
		case z.IsConstant():
			return y.Scale(z.Constant()), true
		}
	}
	return linear.Expr{}, false
}
