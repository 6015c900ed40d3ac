package domains

import "github.com/cs-au-dk/invariant/analysis/linear"

// IntervalCongruence is the reduced product of an interval and a
// congruence.
type IntervalCongruence struct {
	i Interval
	c Congruence
}

// NewIntervalCongruence creates the reduced product of i and c.
func NewIntervalCongruence(i Interval, c Congruence) IntervalCongruence {
	return IntervalCongruence{i, c}.reduce()
}

// reduce tightens the interval bounds to members of the congruence and
// propagates singletons between the components.
func (e IntervalCongruence) reduce() IntervalCongruence {
	if e.i.IsBottom() || e.c.IsBottom() {
		return e.Bottom()
	}
	if e.c.a == 0 {
		e.i = e.i.Meet(Singleton(e.c.b))
	} else if e.c.a > 1 {
		low, high := e.i.low, e.i.high
		// Bounds whose tightening overflows are kept as they are.
		if l, ok := low.(FiniteBound); ok {
			// Smallest member ≥ l.
			if m, ok := addInt(int64(l), mod(e.c.b-mod(int64(l), e.c.a), e.c.a)); ok {
				low = FiniteBound(m)
			}
		}
		if h, ok := high.(FiniteBound); ok {
			// Largest member ≤ h.
			if m, ok := addInt(int64(h), -mod(mod(int64(h), e.c.a)-e.c.b, e.c.a)); ok {
				high = FiniteBound(m)
			}
		}
		e.i = NewInterval(low, high)
	}
	if e.i.IsBottom() {
		return e.Bottom()
	}
	if k, ok := e.i.Singleton(); ok {
		e.c = e.c.Meet(e.c.Const(k))
		if e.c.IsBottom() {
			return e.Bottom()
		}
	}
	return e
}

func (IntervalCongruence) Top() IntervalCongruence {
	return IntervalCongruence{TopInterval(), Congruence{}.Top()}
}

func (IntervalCongruence) Bottom() IntervalCongruence {
	return IntervalCongruence{BotInterval(), Congruence{}.Bottom()}
}

func (IntervalCongruence) Const(k int64) IntervalCongruence {
	return IntervalCongruence{Singleton(k), Congruence{}.Const(k)}
}

func (e IntervalCongruence) IsBottom() bool { return e.i.IsBottom() || e.c.IsBottom() }
func (e IntervalCongruence) IsTop() bool    { return e.i.IsTop() && e.c.IsTop() }

// Interval returns the interval component.
func (e IntervalCongruence) Interval() Interval { return e.i }

// Congruence returns the congruence component.
func (e IntervalCongruence) Congruence() Congruence { return e.c }

func (e1 IntervalCongruence) Leq(e2 IntervalCongruence) bool {
	if e1.IsBottom() {
		return true
	}
	return e1.i.Leq(e2.i) && e1.c.Leq(e2.c)
}

func (e1 IntervalCongruence) Equal(e2 IntervalCongruence) bool {
	return e1.Leq(e2) && e2.Leq(e1)
}

func (e1 IntervalCongruence) Join(e2 IntervalCongruence) IntervalCongruence {
	switch {
	case e1.IsBottom():
		return e2
	case e2.IsBottom():
		return e1
	}
	return NewIntervalCongruence(e1.i.Join(e2.i), e1.c.Join(e2.c))
}

func (e1 IntervalCongruence) Meet(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Meet(e2.i), e1.c.Meet(e2.c))
}

// Widen is not reduced, so that widening chains stabilize.
func (e1 IntervalCongruence) Widen(e2 IntervalCongruence) IntervalCongruence {
	return e1.WidenThresholds(e2, nil)
}

func (e1 IntervalCongruence) WidenThresholds(e2 IntervalCongruence, ts []int64) IntervalCongruence {
	switch {
	case e1.IsBottom():
		return e2
	case e2.IsBottom():
		return e1
	}
	return IntervalCongruence{e1.i.WidenThresholds(e2.i, ts), e1.c.Widen(e2.c)}
}

func (e1 IntervalCongruence) Narrow(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Narrow(e2.i), e1.c.Narrow(e2.c))
}

func (e1 IntervalCongruence) Add(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Add(e2.i), e1.c.Add(e2.c))
}

func (e IntervalCongruence) Scale(k int64) IntervalCongruence {
	return NewIntervalCongruence(e.i.Scale(k), e.c.Scale(k))
}

func (e1 IntervalCongruence) Mul(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Mul(e2.i), e1.c.Mul(e2.c))
}

func (e1 IntervalCongruence) Div(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Div(e2.i), e1.c.Div(e2.c))
}

func (e1 IntervalCongruence) Rem(e2 IntervalCongruence) IntervalCongruence {
	return NewIntervalCongruence(e1.i.Rem(e2.i), e1.c.Rem(e2.c))
}

func (e IntervalCongruence) Bounds() Interval { return e.i }

func (e IntervalCongruence) MeetInterval(i Interval) IntervalCongruence {
	return NewIntervalCongruence(e.i.Meet(i), e.c.MeetInterval(i))
}

func (e IntervalCongruence) Exclude(k int64) IntervalCongruence {
	return NewIntervalCongruence(e.i.Exclude(k), e.c.Exclude(k))
}

func (e IntervalCongruence) Constraints(v linear.Var) []linear.Cst {
	return e.i.Constraints(v)
}

func (e IntervalCongruence) String() string {
	switch {
	case e.IsBottom():
		return "⊥"
	case e.c.IsTop():
		return e.i.String()
	case e.c.a == 0:
		return e.c.String()
	}
	return e.i.String() + "∩" + e.c.String()
}
