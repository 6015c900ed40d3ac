package domains

import (
	"math"
	"strconv"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

// Congruence is the set aℤ + b. When a = 0 the congruence is the constant b,
// otherwise 0 ≤ b < a. ⊤ is 1ℤ + 0. Operations whose coefficients overflow
// int64 give ⊤.
type Congruence struct {
	a, b int64
	bot  bool
}

// NewCongruence creates aℤ + b.
func NewCongruence(a, b int64) Congruence {
	if a < 0 {
		a = -a
	}
	if a != 0 {
		b = mod(b, a)
	}
	return Congruence{a: a, b: b}
}

func (Congruence) Top() Congruence    { return Congruence{a: 1} }
func (Congruence) Bottom() Congruence { return Congruence{bot: true} }

func (Congruence) Const(k int64) Congruence { return Congruence{a: 0, b: k} }

func (c Congruence) IsBottom() bool { return c.bot }
func (c Congruence) IsTop() bool    { return !c.bot && c.a == 1 }

func mod(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// egcd returns g, x, y such that a·x + b·y = g = gcd(a, b).
func egcd(a, b int64) (int64, int64, int64) {
	if b == 0 {
		return a, 1, 0
	}
	g, x, y := egcd(b, a%b)
	return g, y, x - (a/b)*y
}

func (c Congruence) contains(k int64) bool {
	switch {
	case c.bot:
		return false
	case c.a == 0:
		return c.b == k
	}
	return mod(k-c.b, c.a) == 0
}

// Leq computes c1 ⊑ c2.
func (c1 Congruence) Leq(c2 Congruence) bool {
	switch {
	case c1.bot:
		return true
	case c2.bot:
		return false
	case c2.a == 0:
		return c1.a == 0 && c1.b == c2.b
	}
	return c1.a%c2.a == 0 && c2.contains(c1.b)
}

func (c1 Congruence) Equal(c2 Congruence) bool {
	return c1.Leq(c2) && c2.Leq(c1)
}

// Join computes gcd(a1, a2, |b1 - b2|)ℤ + b1.
func (c1 Congruence) Join(c2 Congruence) Congruence {
	switch {
	case c1.bot:
		return c2
	case c2.bot:
		return c1
	}
	d, ok := addInt(c1.b, -c2.b)
	if !ok || c2.b == math.MinInt64 || d == math.MinInt64 {
		return c1.Top()
	}
	return NewCongruence(gcd(gcd(c1.a, c2.a), d), c1.b)
}

// Meet solves the system x ≡ b1 (mod a1), x ≡ b2 (mod a2).
func (c1 Congruence) Meet(c2 Congruence) Congruence {
	switch {
	case c1.bot || c2.bot:
		return c1.Bottom()
	case c1.a == 0:
		if c2.contains(c1.b) {
			return c1
		}
		return c1.Bottom()
	case c2.a == 0:
		if c1.contains(c2.b) {
			return c2
		}
		return c1.Bottom()
	}

	// Both remainders are reduced, so the difference fits.
	g, p, _ := egcd(c1.a, c2.a)
	d := c2.b - c1.b
	if d%g != 0 {
		return c1.Bottom()
	}
	lcm, ok1 := mulInt(c1.a/g, c2.a)
	t, ok2 := mulInt(p, d/g)
	var step int64
	ok3 := ok2
	if ok2 {
		step, ok3 = mulInt(c1.a, mod(t, c2.a/g))
	}
	if !ok1 || !ok3 {
		// c1 still over-approximates the intersection.
		return c1
	}
	// x = b1 + a1·p·(b2 - b1)/g
	x, ok := addInt(c1.b, mod(step, lcm))
	if !ok {
		return c1
	}
	return NewCongruence(lcm, x)
}

// Widen coincides with join: ascending chains are finite.
func (c1 Congruence) Widen(c2 Congruence) Congruence { return c1.Join(c2) }

func (c1 Congruence) WidenThresholds(c2 Congruence, _ []int64) Congruence { return c1.Join(c2) }

// Narrow coincides with meet.
func (c1 Congruence) Narrow(c2 Congruence) Congruence { return c1.Meet(c2) }

func (c1 Congruence) Add(c2 Congruence) Congruence {
	if c1.bot || c2.bot {
		return c1.Bottom()
	}
	b, ok := addInt(c1.b, c2.b)
	if !ok {
		return c1.Top()
	}
	return NewCongruence(gcd(c1.a, c2.a), b)
}

func (c Congruence) Scale(k int64) Congruence {
	if c.bot {
		return c
	}
	a, ok1 := mulInt(c.a, k)
	b, ok2 := mulInt(c.b, k)
	if !ok1 || !ok2 {
		return c.Top()
	}
	return NewCongruence(a, b)
}

// Mul computes gcd(a1·a2, a1·b2, a2·b1)ℤ + b1·b2.
func (c1 Congruence) Mul(c2 Congruence) Congruence {
	if c1.bot || c2.bot {
		return c1.Bottom()
	}
	aa, ok1 := mulInt(c1.a, c2.a)
	ab, ok2 := mulInt(c1.a, c2.b)
	ba, ok3 := mulInt(c2.a, c1.b)
	bb, ok4 := mulInt(c1.b, c2.b)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return c1.Top()
	}
	return NewCongruence(gcd(gcd(aa, ab), ba), bb)
}

// Div is exact when the divisor is a constant dividing the dividend.
func (c1 Congruence) Div(c2 Congruence) Congruence {
	switch {
	case c1.bot || c2.bot:
		return c1.Bottom()
	case c2.a != 0:
		return c1.Top()
	case c2.b == 0:
		return c1.Bottom()
	case c1.b == math.MinInt64 && c2.b == -1:
		return c1.Top()
	case c1.a == 0:
		return c1.Const(c1.b / c2.b)
	case c1.a%c2.b == 0 && c1.b%c2.b == 0:
		return NewCongruence(c1.a/c2.b, c1.b/c2.b)
	}
	return c1.Top()
}

// Rem is only precise for constants.
func (c1 Congruence) Rem(c2 Congruence) Congruence {
	switch {
	case c1.bot || c2.bot:
		return c1.Bottom()
	case c2.a == 0 && c2.b == 0:
		return c1.Bottom()
	case c1.a == 0 && c2.a == 0:
		return c1.Const(c1.b % c2.b)
	case c2.a == 0 && c1.a%c2.b == 0 && c1.b%c2.b == 0:
		// Every member is a multiple of the divisor.
		return c1.Const(0)
	}
	return c1.Top()
}

func (c Congruence) Bounds() Interval {
	switch {
	case c.bot:
		return BotInterval()
	case c.a == 0:
		return Singleton(c.b)
	}
	return TopInterval()
}

func (c Congruence) MeetInterval(i Interval) Congruence {
	switch {
	case c.bot:
		return c
	case i.IsBottom():
		return c.Bottom()
	case c.a == 0:
		if i.Contains(c.b) {
			return c
		}
		return c.Bottom()
	}
	if k, ok := i.Singleton(); ok {
		return c.Meet(c.Const(k))
	}
	return c
}

func (c Congruence) Exclude(k int64) Congruence {
	if c.a == 0 && c.b == k {
		return c.Bottom()
	}
	return c
}

func (c Congruence) Constraints(v linear.Var) []linear.Cst {
	switch {
	case c.bot:
		return []linear.Cst{linear.False()}
	case c.a == 0:
		return []linear.Cst{linear.Eq(linear.V(v), linear.Const(c.b))}
	}
	return nil
}

func (c Congruence) String() string {
	switch {
	case c.bot:
		return "⊥"
	case c.a == 0:
		return strconv.FormatInt(c.b, 10)
	case c.b == 0:
		return strconv.FormatInt(c.a, 10) + "ℤ"
	}
	return strconv.FormatInt(c.a, 10) + "ℤ+" + strconv.FormatInt(c.b, 10)
}
