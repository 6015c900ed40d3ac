package domains

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

// MaxDisjuncts bounds the number of intervals kept by a DisInterval. Larger
// unions are collapsed to their hull.
const MaxDisjuncts = 16

// DisInterval is a finite union of intervals. The intervals are sorted,
// pairwise disjoint and non-adjacent. ⊥ is the empty union.
type DisInterval struct {
	is []Interval
}

// NewDisInterval creates the union of the given intervals.
func NewDisInterval(is ...Interval) DisInterval {
	return DisInterval{normalize(is)}
}

func normalize(is []Interval) []Interval {
	res := make([]Interval, 0, len(is))
	for _, i := range is {
		if !i.IsBottom() {
			res = append(res, i)
		}
	}
	sort.Slice(res, func(a, b int) bool { return res[a].low.Lt(res[b].low) })

	merged := res[:0]
	for _, i := range res {
		if n := len(merged); n > 0 {
			last := merged[n-1]
			// Merge overlapping or adjacent intervals.
			if _, inf := last.high.(PlusInfinity); inf || i.low.Leq(last.high.Plus(FiniteBound(1))) {
				merged[n-1] = last.Join(i)
				continue
			}
		}
		merged = append(merged, i)
	}

	if len(merged) > MaxDisjuncts {
		return []Interval{merged[0].Join(merged[len(merged)-1])}
	}
	return merged
}

func (DisInterval) Top() DisInterval    { return DisInterval{[]Interval{TopInterval()}} }
func (DisInterval) Bottom() DisInterval { return DisInterval{} }

func (DisInterval) Const(k int64) DisInterval { return DisInterval{[]Interval{Singleton(k)}} }

func (d DisInterval) IsBottom() bool { return len(d.is) == 0 }
func (d DisInterval) IsTop() bool    { return len(d.is) == 1 && d.is[0].IsTop() }

// Intervals returns the disjuncts.
func (d DisInterval) Intervals() []Interval { return d.is }

// Bounds returns the hull of the union.
func (d DisInterval) Bounds() Interval {
	if d.IsBottom() {
		return BotInterval()
	}
	return d.is[0].Join(d.is[len(d.is)-1])
}

// Leq checks that every disjunct of d1 is included in some disjunct of d2.
func (d1 DisInterval) Leq(d2 DisInterval) bool {
	for _, i := range d1.is {
		found := false
		for _, j := range d2.is {
			if i.Leq(j) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (d1 DisInterval) Equal(d2 DisInterval) bool {
	return d1.Leq(d2) && d2.Leq(d1)
}

func (d1 DisInterval) Join(d2 DisInterval) DisInterval {
	is := make([]Interval, 0, len(d1.is)+len(d2.is))
	is = append(is, d1.is...)
	return NewDisInterval(append(is, d2.is...)...)
}

func (d1 DisInterval) pairwise(d2 DisInterval, f func(a, b Interval) Interval) DisInterval {
	is := make([]Interval, 0, len(d1.is)*len(d2.is))
	for _, i := range d1.is {
		for _, j := range d2.is {
			is = append(is, f(i, j))
		}
	}
	return NewDisInterval(is...)
}

func (d1 DisInterval) Meet(d2 DisInterval) DisInterval {
	return d1.pairwise(d2, Interval.Meet)
}

// Widen widens the hulls of the unions, giving up disjunctions whenever
// the value is not yet stable.
func (d1 DisInterval) Widen(d2 DisInterval) DisInterval {
	return d1.WidenThresholds(d2, nil)
}

func (d1 DisInterval) WidenThresholds(d2 DisInterval, ts []int64) DisInterval {
	switch {
	case d1.IsBottom():
		return d2
	case d2.Leq(d1):
		return d1
	}
	return NewDisInterval(d1.Bounds().WidenThresholds(d2.Bounds(), ts))
}

// Narrow refines by meet. Callers bound the number of narrowing iterations.
func (d1 DisInterval) Narrow(d2 DisInterval) DisInterval {
	return d1.Meet(d2)
}

func (d1 DisInterval) Add(d2 DisInterval) DisInterval { return d1.pairwise(d2, Interval.Add) }
func (d1 DisInterval) Mul(d2 DisInterval) DisInterval { return d1.pairwise(d2, Interval.Mul) }
func (d1 DisInterval) Div(d2 DisInterval) DisInterval { return d1.pairwise(d2, Interval.Div) }
func (d1 DisInterval) Rem(d2 DisInterval) DisInterval { return d1.pairwise(d2, Interval.Rem) }

func (d DisInterval) Scale(k int64) DisInterval {
	is := make([]Interval, len(d.is))
	for n, i := range d.is {
		is[n] = i.Scale(k)
	}
	return NewDisInterval(is...)
}

func (d DisInterval) MeetInterval(i Interval) DisInterval {
	return d.Meet(NewDisInterval(i))
}

// Exclude splits the disjunct containing k.
func (d DisInterval) Exclude(k int64) DisInterval {
	is := make([]Interval, 0, len(d.is)+1)
	for _, i := range d.is {
		if !i.Contains(k) {
			is = append(is, i)
			continue
		}
		is = append(is,
			i.Meet(NewInterval(MinusInfinity{}, FiniteBound(k-1))),
			i.Meet(NewInterval(FiniteBound(k+1), PlusInfinity{})))
	}
	return NewDisInterval(is...)
}

func (d DisInterval) Constraints(v linear.Var) []linear.Cst {
	return d.Bounds().Constraints(v)
}

func (d DisInterval) String() string {
	if d.IsBottom() {
		return "⊥"
	}
	strs := make([]string, len(d.is))
	for n, i := range d.is {
		strs[n] = i.String()
	}
	return strings.Join(strs, " ∪ ")
}
