package cfg

import (
	"strings"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

// Stmt is implemented by every statement that may appear in a basic block.
// The set of statements is closed.
type Stmt interface {
	// Defs returns the variables written by the statement.
	Defs() []linear.Var
	// Uses returns the variables read by the statement.
	Uses() []linear.Var
	String() string

	stmt()
}

// Op is a (possibly non-linear) binary arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpRem
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	}
	panic(errUnknownOp)
}

type (
	// Assign is  Lhs := Rhs  for a linear right hand side.
	Assign struct {
		Lhs linear.Var
		Rhs linear.Expr
	}
	// BinOp is  Lhs := X op Y.
	BinOp struct {
		Lhs  linear.Var
		Op   Op
		X, Y linear.Expr
	}
	// Assume restricts execution to states satisfying Cond.
	Assume struct {
		Cond linear.Cst
	}
	// Assert is a user assertion that is checked by the analysis.
	Assert struct {
		Cond linear.Cst
	}
	// Havoc sets V to an arbitrary value.
	Havoc struct {
		V linear.Var
	}
	// Call invokes Callee with Args and binds its outputs to Lhs.
	Call struct {
		Lhs    []linear.Var
		Callee string
		Args   []linear.Expr
	}
	// ArrayInit sets every cell of Arr to Val.
	ArrayInit struct {
		Arr linear.Var
		Val linear.Expr
	}
	// ArrayStore is  Arr[Idx] := Val.
	ArrayStore struct {
		Arr      linear.Var
		Idx, Val linear.Expr
	}
	// ArrayLoad is  Lhs := Arr[Idx].
	ArrayLoad struct {
		Lhs, Arr linear.Var
		Idx      linear.Expr
	}
)

func (*Assign) stmt()     {}
func (*BinOp) stmt()      {}
func (*Assume) stmt()     {}
func (*Assert) stmt()     {}
func (*Havoc) stmt()      {}
func (*Call) stmt()       {}
func (*ArrayInit) stmt()  {}
func (*ArrayStore) stmt() {}
func (*ArrayLoad) stmt()  {}

func (s *Assign) Defs() []linear.Var     { return []linear.Var{s.Lhs} }
func (s *BinOp) Defs() []linear.Var      { return []linear.Var{s.Lhs} }
func (s *Assume) Defs() []linear.Var     { return nil }
func (s *Assert) Defs() []linear.Var     { return nil }
func (s *Havoc) Defs() []linear.Var      { return []linear.Var{s.V} }
func (s *Call) Defs() []linear.Var       { return s.Lhs }
func (s *ArrayInit) Defs() []linear.Var  { return []linear.Var{s.Arr} }
func (s *ArrayStore) Defs() []linear.Var { return []linear.Var{s.Arr} }
func (s *ArrayLoad) Defs() []linear.Var  { return []linear.Var{s.Lhs} }

func (s *Assign) Uses() []linear.Var { return s.Rhs.Vars() }
func (s *BinOp) Uses() []linear.Var  { return varsOf(s.X, s.Y) }
func (s *Assume) Uses() []linear.Var { return s.Cond.Vars() }
func (s *Assert) Uses() []linear.Var { return s.Cond.Vars() }
func (s *Havoc) Uses() []linear.Var  { return nil }
func (s *Call) Uses() []linear.Var   { return varsOf(s.Args...) }

// Uses of an array initialization do not include the array itself: it is
// overwritten entirely.
func (s *ArrayInit) Uses() []linear.Var { return s.Val.Vars() }

// A store to a smashed array is a weak update, so the array is also read.
func (s *ArrayStore) Uses() []linear.Var {
	return append(varsOf(s.Idx, s.Val), s.Arr)
}
func (s *ArrayLoad) Uses() []linear.Var { return append(s.Idx.Vars(), s.Arr) }

func varsOf(es ...linear.Expr) (res []linear.Var) {
	for _, e := range es {
		res = append(res, e.Vars()...)
	}
	return
}

func (s *Assign) String() string { return s.Lhs.String() + " := " + s.Rhs.String() }
func (s *BinOp) String() string {
	return s.Lhs.String() + " := " + s.X.String() + " " + s.Op.String() + " " + s.Y.String()
}
func (s *Assume) String() string { return "assume(" + s.Cond.String() + ")" }
func (s *Assert) String() string { return "assert(" + s.Cond.String() + ")" }
func (s *Havoc) String() string  { return "havoc(" + s.V.String() + ")" }

func (s *Call) String() string {
	var sb strings.Builder
	for i, v := range s.Lhs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	if len(s.Lhs) > 0 {
		sb.WriteString(" := ")
	}
	sb.WriteString("call " + s.Callee + "(")
	for i, a := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (s *ArrayInit) String() string { return s.Arr.String() + "[*] := " + s.Val.String() }
func (s *ArrayStore) String() string {
	return s.Arr.String() + "[" + s.Idx.String() + "] := " + s.Val.String()
}
func (s *ArrayLoad) String() string {
	return s.Lhs.String() + " := " + s.Arr.String() + "[" + s.Idx.String() + "]"
}

// IsArrayStmt holds for statements operating on arrays.
func IsArrayStmt(s Stmt) bool {
	switch s.(type) {
	case *ArrayInit, *ArrayStore, *ArrayLoad:
		return true
	}
	return false
}
