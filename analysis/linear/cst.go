package linear

import "strings"

// Kind distinguishes the relation of a constraint  e ⋈ 0.
type Kind int

const (
	// LEQ is e ≤ 0.
	LEQ Kind = iota
	// EQ is e = 0.
	EQ
	// NEQ is e ≠ 0.
	NEQ
)

// Cst is a linear constraint  e ⋈ 0. Strict inequalities are normalised
// over the integers: e < 0 is stored as e + 1 ≤ 0.
type Cst struct {
	Expr Expr
	Kind Kind
}

// Leq creates a ≤ b.
func Leq(a, b Expr) Cst { return Cst{a.Sub(b), LEQ} }

// Lt creates a < b.
func Lt(a, b Expr) Cst { return Cst{a.Sub(b).AddConst(1), LEQ} }

// Geq creates a ≥ b.
func Geq(a, b Expr) Cst { return Leq(b, a) }

// Gt creates a > b.
func Gt(a, b Expr) Cst { return Lt(b, a) }

// Eq creates a = b.
func Eq(a, b Expr) Cst { return Cst{a.Sub(b), EQ} }

// Neq creates a ≠ b.
func Neq(a, b Expr) Cst { return Cst{a.Sub(b), NEQ} }

// True is the tautology 0 ≤ 0.
func True() Cst { return Cst{Const(0), LEQ} }

// False is the contradiction 1 ≤ 0.
func False() Cst { return Cst{Const(1), LEQ} }

// IsTautology holds for constant constraints that are always satisfied.
func (c Cst) IsTautology() bool {
	if !c.Expr.IsConstant() {
		return false
	}
	return c.holds(c.Expr.Constant())
}

// IsContradiction holds for constant constraints that are never satisfied.
func (c Cst) IsContradiction() bool {
	if !c.Expr.IsConstant() {
		return false
	}
	return !c.holds(c.Expr.Constant())
}

func (c Cst) holds(k int64) bool {
	switch c.Kind {
	case LEQ:
		return k <= 0
	case EQ:
		return k == 0
	case NEQ:
		return k != 0
	}
	panic(errInvalidKind)
}

// Vars returns the variables mentioned in the constraint.
func (c Cst) Vars() []Var { return c.Expr.Vars() }

// Negate returns the constraints whose disjunction is ¬c.
// A negated equality yields two inequalities.
func (c Cst) Negate() []Cst {
	switch c.Kind {
	case LEQ:
		// ¬(e ≤ 0) ⟺ -e + 1 ≤ 0
		return []Cst{{c.Expr.Scale(-1).AddConst(1), LEQ}}
	case EQ:
		return []Cst{
			{c.Expr.AddConst(1), LEQ},
			{c.Expr.Scale(-1).AddConst(1), LEQ},
		}
	case NEQ:
		return []Cst{{c.Expr, EQ}}
	}
	panic(errInvalidKind)
}

// Substitute renames the variables of c.
func (c Cst) Substitute(ren map[Var]Var) Cst {
	return Cst{c.Expr.Substitute(ren), c.Kind}
}

// Equal checks for syntactic equality.
func (c1 Cst) Equal(c2 Cst) bool {
	return c1.Kind == c2.Kind && c1.Expr.Equal(c2.Expr)
}

// String prints the constraint with the constant moved to the right hand
// side, e.g. x - y <= 3.
func (c Cst) String() string {
	if c.Expr.IsConstant() {
		if c.holds(c.Expr.Constant()) {
			return "true"
		}
		return "false"
	}
	lhs := Expr{terms: c.Expr.terms}
	rhs := Const(-c.Expr.k)
	flip := lhs.terms[0].Coef < 0
	if flip {
		lhs, rhs = lhs.Scale(-1), rhs.Scale(-1)
	}
	var op string
	switch {
	case c.Kind == LEQ && flip:
		op = " >= "
	case c.Kind == LEQ:
		op = " <= "
	case c.Kind == EQ:
		op = " == "
	case c.Kind == NEQ:
		op = " != "
	}
	return lhs.String() + op + rhs.String()
}

// System is a conjunction of linear constraints.
type System []Cst

// And returns the conjunction of s and the given constraints.
func (s System) And(cs ...Cst) System {
	res := make(System, 0, len(s)+len(cs))
	res = append(res, s...)
	return append(res, cs...)
}

// Vars returns all variables mentioned in the system, sorted and deduplicated.
func (s System) Vars() []Var {
	seen := map[Var]bool{}
	vs := []Var{}
	for _, c := range s {
		for _, v := range c.Vars() {
			if !seen[v] {
				seen[v] = true
				vs = append(vs, v)
			}
		}
	}
	return SortVars(vs)
}

// IsFalse holds if the system contains a contradiction.
func (s System) IsFalse() bool {
	for _, c := range s {
		if c.IsContradiction() {
			return true
		}
	}
	return false
}

func (s System) String() string {
	if len(s) == 0 {
		return "{}"
	}
	if s.IsFalse() {
		return "_|_"
	}
	strs := make([]string, 0, len(s))
	for _, c := range s {
		strs = append(strs, c.String())
	}
	return "{" + strings.Join(strs, "; ") + "}"
}
