package domains

import (
	"math"
	"sort"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

// Interval is a member of the interval lattice. Any interval consists of
// two bounds, `low` and `high`. The bottom interval is [∞, -∞].
type Interval struct {
	low  Bound
	high Bound
}

// NewInterval creates an interval with possibly infinite bounds.
// Empty intervals are normalized to ⊥.
func NewInterval(low, high Bound) Interval {
	if high.Lt(low) {
		return BotInterval()
	}
	return Interval{low: low, high: high}
}

// IntervalOf creates an interval with finite bounds.
func IntervalOf(low, high int64) Interval {
	return NewInterval(FiniteBound(low), FiniteBound(high))
}

// Singleton creates the interval [k, k].
func Singleton(k int64) Interval {
	return IntervalOf(k, k)
}

// TopInterval is [-∞, ∞].
func TopInterval() Interval {
	return Interval{low: MinusInfinity{}, high: PlusInfinity{}}
}

// BotInterval is [∞, -∞].
func BotInterval() Interval {
	return Interval{low: PlusInfinity{}, high: MinusInfinity{}}
}

func (Interval) Top() Interval    { return TopInterval() }
func (Interval) Bottom() Interval { return BotInterval() }

// Low returns the lower bound.
func (e Interval) Low() Bound { return e.low }

// High returns the upper bound.
func (e Interval) High() Bound { return e.high }

func (e Interval) String() string {
	if e.IsBottom() {
		return "⊥"
	}
	return "[" + e.low.String() + ", " + e.high.String() + "]"
}

// IsBottom checks that the interval is equal to ⊥ = [∞, -∞].
func (e Interval) IsBottom() bool {
	_, ok := e.low.(PlusInfinity)
	return ok
}

// IsTop checks that the interval is equal to ⊤ = [-∞, ∞].
func (e Interval) IsTop() bool {
	_, l := e.low.(MinusInfinity)
	_, h := e.high.(PlusInfinity)
	return l && h
}

// Singleton returns k if the interval is [k, k].
func (e Interval) Singleton() (int64, bool) {
	l, lok := e.low.(FiniteBound)
	h, hok := e.high.(FiniteBound)
	if lok && hok && l == h {
		return int64(l), true
	}
	return 0, false
}

// Contains checks whether k ∈ e.
func (e Interval) Contains(k int64) bool {
	return e.low.Leq(FiniteBound(k)) && FiniteBound(k).Leq(e.high)
}

// Leq computes e1 ⊑ e2.
func (e1 Interval) Leq(e2 Interval) bool {
	switch {
	case e1.IsBottom():
		return true
	case e2.IsBottom():
		return false
	}
	return e2.low.Leq(e1.low) && e1.high.Leq(e2.high)
}

// Equal computes e1 = e2.
func (e1 Interval) Equal(e2 Interval) bool {
	return e1.Leq(e2) && e2.Leq(e1)
}

// Join computes e1 ⊔ e2.
// The resulting interval takes the lowest of the lower bounds,
// and the highest of the upper bounds.
func (e1 Interval) Join(e2 Interval) Interval {
	switch {
	case e1.IsBottom():
		return e2
	case e2.IsBottom():
		return e1
	}
	return Interval{low: e1.low.Min(e2.low), high: e1.high.Max(e2.high)}
}

// Meet computes e1 ⊓ e2.
func (e1 Interval) Meet(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	return NewInterval(e1.low.Max(e2.low), e1.high.Min(e2.high))
}

// Widen computes e1 ∇ e2. Unstable bounds are pushed to infinity.
func (e1 Interval) Widen(e2 Interval) Interval {
	return e1.WidenThresholds(e2, nil)
}

// WidenThresholds computes e1 ∇ e2, where unstable bounds are relaxed to the
// closest threshold before being pushed to infinity.
func (e1 Interval) WidenThresholds(e2 Interval, ts []int64) Interval {
	switch {
	case e1.IsBottom():
		return e2
	case e2.IsBottom():
		return e1
	}

	low, high := e1.low, e1.high
	if e2.low.Lt(e1.low) {
		low = MinusInfinity{}
		// Largest threshold below the new bound.
		i := sort.Search(len(ts), func(i int) bool { return !FiniteBound(ts[i]).Leq(e2.low) })
		if i > 0 {
			low = FiniteBound(ts[i-1])
		}
	}
	if e1.high.Lt(e2.high) {
		high = PlusInfinity{}
		// Smallest threshold above the new bound.
		i := sort.Search(len(ts), func(i int) bool { return e2.high.Leq(FiniteBound(ts[i])) })
		if i < len(ts) {
			high = FiniteBound(ts[i])
		}
	}
	return Interval{low: low, high: high}
}

// Narrow computes e1 Δ e2. Only infinite bounds are refined.
func (e1 Interval) Narrow(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	low, high := e1.low, e1.high
	if low.IsInfinite() {
		low = e2.low
	}
	if high.IsInfinite() {
		high = e2.high
	}
	return NewInterval(low, high)
}

func (Interval) Const(k int64) Interval { return Singleton(k) }

// Add computes e1 + e2.
func (e1 Interval) Add(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	return saturated(e1.low.Plus(e2.low), e1.high.Plus(e2.high))
}

// Scale computes c · e.
func (e Interval) Scale(c int64) Interval {
	switch {
	case e.IsBottom():
		return e
	case c == 0:
		return Singleton(0)
	case c > 0:
		return saturated(e.low.Mult(FiniteBound(c)), e.high.Mult(FiniteBound(c)))
	}
	return saturated(e.high.Mult(FiniteBound(c)), e.low.Mult(FiniteBound(c)))
}

// saturated builds the result of arithmetic on non-empty intervals. A lower
// bound that overflowed to ∞ stays at the largest integer, and an upper
// bound that overflowed to -∞ at the smallest.
func saturated(low, high Bound) Interval {
	if _, ok := low.(PlusInfinity); ok {
		low = FiniteBound(math.MaxInt64)
	}
	if _, ok := high.(MinusInfinity); ok {
		high = FiniteBound(math.MinInt64)
	}
	return NewInterval(low, high)
}

// hull computes the smallest interval containing all bounds.
func hull(bs ...Bound) Interval {
	low, high := bs[0], bs[0]
	for _, b := range bs[1:] {
		low, high = low.Min(b), high.Max(b)
	}
	return Interval{low: low, high: high}
}

// Mul computes e1 · e2.
func (e1 Interval) Mul(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	h := hull(
		e1.low.Mult(e2.low), e1.low.Mult(e2.high),
		e1.high.Mult(e2.low), e1.high.Mult(e2.high),
	)
	return saturated(h.low, h.high)
}

// Div computes the truncated division e1 / e2. Division by [0, 0] has no
// result and yields ⊥.
func (e1 Interval) Div(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	if e2.Contains(0) {
		// Split the divisor around zero.
		neg := e2.Meet(NewInterval(MinusInfinity{}, FiniteBound(-1)))
		pos := e2.Meet(NewInterval(FiniteBound(1), PlusInfinity{}))
		return e1.Div(neg).Join(e1.Div(pos))
	}
	h := hull(
		e1.low.Div(e2.low), e1.low.Div(e2.high),
		e1.high.Div(e2.low), e1.high.Div(e2.high),
	)
	return saturated(h.low, h.high)
}

// Rem computes the truncated remainder e1 % e2. The result has the sign of
// the dividend and is strictly smaller than the divisor in magnitude.
func (e1 Interval) Rem(e2 Interval) Interval {
	if e1.IsBottom() || e2.IsBottom() {
		return BotInterval()
	}
	if k, ok := e2.Singleton(); ok && k == 0 {
		return BotInterval()
	}
	if a, ok := e1.Singleton(); ok {
		if b, ok := e2.Singleton(); ok {
			return Singleton(a % b)
		}
	}

	// m = max(|l2|, |h2|) - 1
	m := e2.low.Neg().Max(e2.high).Plus(FiniteBound(-1))
	res := NewInterval(m.Neg(), m)
	switch {
	case FiniteBound(0).Leq(e1.low):
		res = res.Meet(NewInterval(FiniteBound(0), PlusInfinity{}))
	case e1.high.Leq(FiniteBound(0)):
		res = res.Meet(NewInterval(MinusInfinity{}, FiniteBound(0)))
	}
	// |e1 % e2| ≤ |e1|
	mag := e1.low.Neg().Max(e1.high)
	return res.Meet(NewInterval(mag.Neg(), mag))
}

func (e Interval) Bounds() Interval { return e }

// MeetInterval refines the interval.
func (e Interval) MeetInterval(o Interval) Interval { return e.Meet(o) }

// Exclude removes k from the interval when it lies on one of the bounds.
func (e Interval) Exclude(k int64) Interval {
	switch {
	case e.IsBottom(), k == math.MinInt64, k == math.MaxInt64:
		return e
	case e.low.Eq(FiniteBound(k)):
		return NewInterval(FiniteBound(k+1), e.high)
	case e.high.Eq(FiniteBound(k)):
		return NewInterval(e.low, FiniteBound(k-1))
	}
	return e
}

// Constraints expresses the interval as constraints over v.
func (e Interval) Constraints(v linear.Var) []linear.Cst {
	if e.IsBottom() {
		return []linear.Cst{linear.False()}
	}
	if k, ok := e.Singleton(); ok {
		return []linear.Cst{linear.Eq(linear.V(v), linear.Const(k))}
	}
	var res []linear.Cst
	if l, ok := e.low.(FiniteBound); ok {
		res = append(res, linear.Geq(linear.V(v), linear.Const(int64(l))))
	}
	if h, ok := e.high.(FiniteBound); ok {
		res = append(res, linear.Leq(linear.V(v), linear.Const(int64(h))))
	}
	return res
}
