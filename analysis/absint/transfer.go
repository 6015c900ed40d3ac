package absint

import (
	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

// CallHandler computes the abstract effect of a call statement.
type CallHandler func(v absval.Value, call *cfg.Call) absval.Value

// havocCall forgets everything about the variables bound by the call.
func havocCall(v absval.Value, call *cfg.Call) absval.Value {
	return v.Forget(call.Lhs...)
}

// transfer executes a statement forward. Assertions are assumed to hold
// afterwards.
func transfer(v absval.Value, s cfg.Stmt, calls CallHandler) absval.Value {
	if v.IsBottom() {
		return v
	}
	switch s := s.(type) {
	case *cfg.Assign:
		return v.Assign(s.Lhs, s.Rhs)
	case *cfg.BinOp:
		return v.Apply(s.Op, s.Lhs, s.X, s.Y)
	case *cfg.Assume:
		return v.AddConstraint(s.Cond)
	case *cfg.Assert:
		return v.AddConstraint(s.Cond)
	case *cfg.Havoc:
		return v.Havoc(s.V)
	case *cfg.Call:
		if calls == nil {
			return havocCall(v, s)
		}
		return calls(v, s)
	case *cfg.ArrayInit:
		return v.ArrayInit(s.Arr, s.Val)
	case *cfg.ArrayStore:
		return v.ArrayStore(s.Arr, s.Idx, s.Val)
	case *cfg.ArrayLoad:
		return v.ArrayLoad(s.Lhs, s.Arr, s.Idx)
	}
	panic(errUnknownStmt(s))
}

// oldVar names the value of x before an assignment to it.
func oldVar(x linear.Var) linear.Var { return "$old." + x }

// transferBack refines pre, the forward invariant before s, with the
// states from which executing s leads into post.
func transferBack(pre, post absval.Value, s cfg.Stmt, calls CallHandler) absval.Value {
	if pre.IsBottom() {
		return pre
	}
	if post.IsBottom() {
		return pre.MakeBottom()
	}
	switch s := s.(type) {
	case *cfg.Assign:
		// post[x ↦ x'] ∧ x' = rhs, with x' projected away.
		x, tmp := s.Lhs, oldVar(s.Lhs)
		v := post.Rename([]linear.Var{x}, []linear.Var{tmp}).Meet(pre)
		v = v.AddConstraint(linear.Eq(linear.V(tmp), s.Rhs))
		return v.Forget(tmp)
	case *cfg.Assume:
		return pre.Meet(post.AddConstraint(s.Cond))
	case *cfg.Assert:
		return pre.Meet(post.AddConstraint(s.Cond))
	case *cfg.Havoc:
		return pre.Meet(post.Forget(s.V))
	}
	// Variables not defined by s are unchanged, so the states reaching post
	// constrain them on entry too.
	reach := transfer(pre, s, calls).Meet(post)
	return pre.Meet(reach.Forget(s.Defs()...))
}
