// Package absval provides a uniform handle over the numerical domains.
// A handle wraps exactly one domain value together with the tag of its
// kind, so that the analyses can be written without knowing which domain
// is active.
package absval

import (
	"errors"
	"fmt"
	"io"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/domains"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

var (
	// ErrTagMismatch is raised (as a panic) when handles of different
	// kinds are combined.
	ErrTagMismatch = errors.New("abstract value tag mismatch")
	errUnknownKind = errors.New("unknown abstract domain kind")
)

// Value is an abstract value of any supported domain.
type Value interface {
	Tag() Tag

	IsBottom() bool
	IsTop() bool
	MakeTop() Value
	MakeBottom() Value

	Leq(Value) bool
	Equal(Value) bool
	Join(Value) Value
	Meet(Value) Value
	Widen(Value) Value
	WidenWithThresholds(Value, []int64) Value
	Narrow(Value) Value

	Assign(x linear.Var, e linear.Expr) Value
	Apply(op cfg.Op, x linear.Var, y, z linear.Expr) Value
	AddConstraint(linear.Cst) Value
	AddConstraints(linear.System) Value
	Havoc(x linear.Var) Value
	Forget(vs ...linear.Var) Value
	Project(vs ...linear.Var) Value
	Rename(from, to []linear.Var) Value

	ArrayInit(a linear.Var, v linear.Expr) Value
	ArrayStore(a linear.Var, i, v linear.Expr) Value
	ArrayLoad(x, a linear.Var, i linear.Expr) Value

	ToConstraints() linear.System
	Write(io.Writer) error
	String() string

	sealed()
}

type handle[D domains.Domain[D]] struct {
	tag Tag
	d   D
}

// Of wraps a domain value, capturing its tag.
func Of(d any) Value {
	switch d := d.(type) {
	case domains.Intervals:
		return handle[domains.Intervals]{TagInt, d}
	case domains.IntervalCongrs:
		return handle[domains.IntervalCongrs]{TagRIC, d}
	case domains.Zones:
		return handle[domains.Zones]{TagZones, d}
	case domains.DisjunctiveIntervs:
		return handle[domains.DisjunctiveIntervs]{TagDisInt, d}
	case domains.TermIntervals:
		return handle[domains.TermIntervals]{TagTermInt, d}
	case domains.TermDisIntervs:
		return handle[domains.TermDisIntervs]{TagTermDisInt, d}
	case domains.ArrayIntervals:
		return handle[domains.ArrayIntervals]{TagArrInt, d}
	case domains.ArrayIntervalCongrs:
		return handle[domains.ArrayIntervalCongrs]{TagArrRIC, d}
	case domains.ArrayZones:
		return handle[domains.ArrayZones]{TagArrZones, d}
	case domains.ArrayDisIntervs:
		return handle[domains.ArrayDisIntervs]{TagArrDisInt, d}
	case domains.ArrayTermIntervals:
		return handle[domains.ArrayTermIntervals]{TagArrTermInt, d}
	case domains.ArrayTermDisIntervs:
		return handle[domains.ArrayTermDisIntervs]{TagArrTermDisInt, d}
	}
	panic(fmt.Errorf("%w: %T", errUnknownKind, d))
}

// Top returns the top value of the domain with the given tag.
func Top(t Tag) Value {
	switch t {
	case TagInt:
		return Of(domains.Intervals{})
	case TagRIC:
		return Of(domains.IntervalCongrs{})
	case TagZones:
		return Of(domains.Zones{})
	case TagDisInt:
		return Of(domains.DisjunctiveIntervs{})
	case TagTermInt:
		return Of(domains.TermIntervals{})
	case TagTermDisInt:
		return Of(domains.TermDisIntervs{})
	case TagArrInt:
		return Of(domains.ArrayIntervals{})
	case TagArrRIC:
		return Of(domains.ArrayIntervalCongrs{})
	case TagArrZones:
		return Of(domains.ArrayZones{})
	case TagArrDisInt:
		return Of(domains.ArrayDisIntervs{})
	case TagArrTermInt:
		return Of(domains.ArrayTermIntervals{})
	case TagArrTermDisInt:
		return Of(domains.ArrayTermDisIntervs{})
	}
	panic(fmt.Errorf("%w: %s", errUnknownKind, t))
}

// Unwrap extracts the domain value of a handle.
// It panics if the handle does not wrap a value of type D.
func Unwrap[D domains.Domain[D]](v Value) D {
	h, ok := v.(handle[D])
	if !ok {
		var zero D
		panic(fmt.Errorf("%w: %s is not a %T", ErrTagMismatch, v.Tag(), zero))
	}
	return h.d
}

func (handle[D]) sealed() {}

func (h handle[D]) Tag() Tag { return h.tag }

func (h handle[D]) wrap(d D) Value { return handle[D]{h.tag, d} }

// other unwraps the second operand of a binary operation.
func (h handle[D]) other(v Value, op string) D {
	o, ok := v.(handle[D])
	if !ok || o.tag != h.tag {
		panic(fmt.Errorf("%w: %s %s %s", ErrTagMismatch, h.tag, op, v.Tag()))
	}
	return o.d
}

func (h handle[D]) IsBottom() bool    { return h.d.IsBottom() }
func (h handle[D]) IsTop() bool       { return h.d.IsTop() }
func (h handle[D]) MakeTop() Value    { return h.wrap(h.d.Top()) }
func (h handle[D]) MakeBottom() Value { return h.wrap(h.d.Bottom()) }

func (h handle[D]) Leq(v Value) bool   { return h.d.Leq(h.other(v, "⊑")) }
func (h handle[D]) Equal(v Value) bool { return h.d.Equal(h.other(v, "=")) }

func (h handle[D]) Join(v Value) Value   { return h.wrap(h.d.Join(h.other(v, "⊔"))) }
func (h handle[D]) Meet(v Value) Value   { return h.wrap(h.d.Meet(h.other(v, "⊓"))) }
func (h handle[D]) Widen(v Value) Value  { return h.wrap(h.d.Widen(h.other(v, "∇"))) }
func (h handle[D]) Narrow(v Value) Value { return h.wrap(h.d.Narrow(h.other(v, "Δ"))) }

func (h handle[D]) WidenWithThresholds(v Value, ts []int64) Value {
	return h.wrap(h.d.WidenThresholds(h.other(v, "∇"), ts))
}

func (h handle[D]) Assign(x linear.Var, e linear.Expr) Value {
	return h.wrap(h.d.Assign(x, e))
}

func (h handle[D]) Apply(op cfg.Op, x linear.Var, y, z linear.Expr) Value {
	return h.wrap(h.d.Apply(op, x, y, z))
}

func (h handle[D]) AddConstraint(c linear.Cst) Value {
	return h.wrap(h.d.AddConstraint(c))
}

func (h handle[D]) AddConstraints(s linear.System) Value {
	return h.wrap(domains.AddConstraints(h.d, s))
}

func (h handle[D]) Havoc(x linear.Var) Value { return h.wrap(h.d.Forget(x)) }

func (h handle[D]) Forget(vs ...linear.Var) Value  { return h.wrap(h.d.Forget(vs...)) }
func (h handle[D]) Project(vs ...linear.Var) Value { return h.wrap(h.d.Project(vs...)) }

func (h handle[D]) Rename(from, to []linear.Var) Value {
	return h.wrap(h.d.Rename(from, to))
}

func (h handle[D]) ArrayInit(a linear.Var, v linear.Expr) Value {
	return h.wrap(h.d.ArrayInit(a, v))
}

func (h handle[D]) ArrayStore(a linear.Var, i, v linear.Expr) Value {
	return h.wrap(h.d.ArrayStore(a, i, v))
}

func (h handle[D]) ArrayLoad(x, a linear.Var, i linear.Expr) Value {
	return h.wrap(h.d.ArrayLoad(x, a, i))
}

func (h handle[D]) ToConstraints() linear.System { return h.d.ToConstraints() }

func (h handle[D]) Write(w io.Writer) error {
	_, err := io.WriteString(w, h.d.String())
	return err
}

func (h handle[D]) String() string { return h.d.String() }

// Entails checks whether every state described by v satisfies c.
func Entails(v Value, c linear.Cst) bool {
	if v.IsBottom() || c.IsTautology() {
		return true
	}
	for _, neg := range c.Negate() {
		if !v.AddConstraint(neg).IsBottom() {
			return false
		}
	}
	return true
}

// FromConstraints builds the value of the given tag described by s.
func FromConstraints(t Tag, s linear.System) Value {
	return Top(t).AddConstraints(s)
}
