// Package linear provides linear expressions and constraints over integer
// program variables. Values are immutable: every operation returns a fresh
// expression or constraint.
package linear

import (
	"sort"
	"strconv"
	"strings"
)

// Var is a program variable. Variables are identified by name.
type Var string

func (v Var) String() string { return string(v) }

// Term is a coefficient-variable pair.
type Term struct {
	Coef int64
	Var  Var
}

// Expr is a linear expression  Σ cᵢ·xᵢ + k.
// Terms are kept sorted by variable name and never carry a zero coefficient.
type Expr struct {
	terms []Term
	k     int64
}

// Const creates the constant expression k.
func Const(k int64) Expr {
	return Expr{k: k}
}

// V creates the expression 1·v.
func V(v Var) Expr {
	return Expr{terms: []Term{{1, v}}}
}

// Of creates an expression from arbitrary terms, merging duplicate variables.
func Of(k int64, terms ...Term) Expr {
	e := Const(k)
	for _, t := range terms {
		e = e.Add(Expr{terms: []Term{t}})
	}
	return e.normalize()
}

func (e Expr) normalize() Expr {
	res := e.terms[:0:0]
	for _, t := range e.terms {
		if t.Coef != 0 {
			res = append(res, t)
		}
	}
	return Expr{terms: res, k: e.k}
}

// Constant returns the constant part of the expression.
func (e Expr) Constant() int64 { return e.k }

// Terms returns the non-constant part. The slice must not be mutated.
func (e Expr) Terms() []Term { return e.terms }

// IsConstant holds if the expression mentions no variable.
func (e Expr) IsConstant() bool { return len(e.terms) == 0 }

// IsVar reports whether the expression is exactly 1·v for some v.
func (e Expr) IsVar() (Var, bool) {
	if len(e.terms) == 1 && e.terms[0].Coef == 1 && e.k == 0 {
		return e.terms[0].Var, true
	}
	return "", false
}

// Coef returns the coefficient of v in e.
func (e Expr) Coef(v Var) int64 {
	for _, t := range e.terms {
		if t.Var == v {
			return t.Coef
		}
	}
	return 0
}

// Vars returns the variables mentioned in e in sorted order.
func (e Expr) Vars() []Var {
	vs := make([]Var, 0, len(e.terms))
	for _, t := range e.terms {
		vs = append(vs, t.Var)
	}
	return vs
}

// Add computes e1 + e2.
func (e1 Expr) Add(e2 Expr) Expr {
	terms := make([]Term, 0, len(e1.terms)+len(e2.terms))
	i, j := 0, 0
	for i < len(e1.terms) || j < len(e2.terms) {
		switch {
		case j == len(e2.terms) || (i < len(e1.terms) && e1.terms[i].Var < e2.terms[j].Var):
			terms = append(terms, e1.terms[i])
			i++
		case i == len(e1.terms) || e2.terms[j].Var < e1.terms[i].Var:
			terms = append(terms, e2.terms[j])
			j++
		default:
			if c := e1.terms[i].Coef + e2.terms[j].Coef; c != 0 {
				terms = append(terms, Term{c, e1.terms[i].Var})
			}
			i++
			j++
		}
	}
	return Expr{terms: terms, k: e1.k + e2.k}
}

// AddConst computes e + k.
func (e Expr) AddConst(k int64) Expr {
	return Expr{terms: e.terms, k: e.k + k}
}

// Sub computes e1 - e2.
func (e1 Expr) Sub(e2 Expr) Expr {
	return e1.Add(e2.Scale(-1))
}

// Scale computes c·e.
func (e Expr) Scale(c int64) Expr {
	if c == 0 {
		return Const(0)
	}
	terms := make([]Term, len(e.terms))
	for i, t := range e.terms {
		terms[i] = Term{t.Coef * c, t.Var}
	}
	return Expr{terms: terms, k: e.k * c}
}

// Without drops the term of v from e.
func (e Expr) Without(v Var) Expr {
	terms := make([]Term, 0, len(e.terms))
	for _, t := range e.terms {
		if t.Var != v {
			terms = append(terms, t)
		}
	}
	return Expr{terms: terms, k: e.k}
}

// Substitute replaces every variable by its image under ren.
// Variables without an image are left untouched.
func (e Expr) Substitute(ren map[Var]Var) Expr {
	res := Const(e.k)
	for _, t := range e.terms {
		v := t.Var
		if w, ok := ren[v]; ok {
			v = w
		}
		res = res.Add(Expr{terms: []Term{{t.Coef, v}}})
	}
	return res
}

// Equal checks for syntactic equality.
func (e1 Expr) Equal(e2 Expr) bool {
	if e1.k != e2.k || len(e1.terms) != len(e2.terms) {
		return false
	}
	for i := range e1.terms {
		if e1.terms[i] != e2.terms[i] {
			return false
		}
	}
	return true
}

func (e Expr) String() string {
	var sb strings.Builder
	for i, t := range e.terms {
		c := t.Coef
		switch {
		case i == 0 && c < 0:
			sb.WriteString("-")
			c = -c
		case i > 0 && c < 0:
			sb.WriteString(" - ")
			c = -c
		case i > 0:
			sb.WriteString(" + ")
		}
		if c != 1 {
			sb.WriteString(strconv.FormatInt(c, 10))
			sb.WriteString("*")
		}
		sb.WriteString(string(t.Var))
	}
	switch {
	case len(e.terms) == 0:
		sb.WriteString(strconv.FormatInt(e.k, 10))
	case e.k > 0:
		sb.WriteString(" + " + strconv.FormatInt(e.k, 10))
	case e.k < 0:
		sb.WriteString(" - " + strconv.FormatInt(-e.k, 10))
	}
	return sb.String()
}

// SortVars sorts a slice of variables in place and returns it.
func SortVars(vs []Var) []Var {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}
