package domains

import (
	"math"
	"strconv"
)

// Bound is implemented by all interval bounds i.e., any FiniteBound value,
// PlusInfinity and MinusInfinity.
type Bound interface {
	String() string

	// IsInfinite checks whether the bound is ±∞.
	IsInfinite() bool

	// BINARY RELATIONS

	// Eq checks for bound equality.
	Eq(Bound) bool
	// Leq computes b1 ≤ b2. The semantics is -∞ ≤ c ≤ ∞, where c ∈ ℤ.
	Leq(Bound) bool
	// Lt computes b1 < b2.
	Lt(Bound) bool

	// BINARY OPERATIONS

	// Plus computes b1 + b2. Adding ∞ and -∞ panics. Finite results that
	// overflow int64 saturate to ±∞, as do those of Mult, Div and Neg.
	Plus(Bound) Bound
	// Mult computes b1 * b2, where 0 * (±)∞ = 0.
	Mult(Bound) Bound
	// Div computes the truncated quotient b1 / b2. The semantics of division is:
	//	.-----------------------------.
	//	|   b1   |   b2   |  b1 / b2  |
	//	|========|========|===========|
	//	|  ∈  ℤ  |  ∈ ℤ≠0 |  b1 / b2  |
	//	|--------|--------|-----------|
	//	|  (-)∞  |  ∈ ℤ≠0 |   (-)∞    |
	//	|--------|--------|-----------|
	//	|  ∈  ℤ  |  (-)∞  |     0     |
	//	|--------|--------|-----------|
	//	|  (-)∞  |  (-)∞  |   (-)∞    |
	//	|--------|--------|-----------|
	//	|  ∀ b1  |    0   |   panic   |
	//	 -----------------------------
	// Signs of infinite results follow the signs of the operands.
	Div(Bound) Bound
	// Neg computes -b.
	Neg() Bound
	// Max computes max(b1, b2).
	Max(Bound) Bound
	// Min computes min(b1, b2).
	Min(Bound) Bound
}

type (
	// FiniteBound is used to represent finite limits of an interval.
	FiniteBound int64
	// PlusInfinity represents ∞.
	PlusInfinity struct{}
	// MinusInfinity represents -∞.
	MinusInfinity struct{}
)

// rank orders bounds by kind: -∞ < ℤ < ∞.
func rank(b Bound) int {
	switch b.(type) {
	case MinusInfinity:
		return -1
	case FiniteBound:
		return 0
	case PlusInfinity:
		return 1
	}
	panic(errInternal)
}

// sign returns the sign of a bound.
func sign(b Bound) int {
	if f, ok := b.(FiniteBound); ok {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return 0
	}
	return rank(b)
}

func infinity(sign int) Bound {
	if sign < 0 {
		return MinusInfinity{}
	}
	return PlusInfinity{}
}

func compare(b1, b2 Bound) int {
	r1, r2 := rank(b1), rank(b2)
	switch {
	case r1 < r2:
		return -1
	case r1 > r2:
		return 1
	case r1 != 0:
		return 0
	}
	f1, f2 := b1.(FiniteBound), b2.(FiniteBound)
	switch {
	case f1 < f2:
		return -1
	case f1 > f2:
		return 1
	}
	return 0
}

func plus(b1, b2 Bound) Bound {
	f1, ok1 := b1.(FiniteBound)
	f2, ok2 := b2.(FiniteBound)
	switch {
	case ok1 && ok2:
		if sum, ok := addInt(int64(f1), int64(f2)); ok {
			return FiniteBound(sum)
		}
		return infinity(sign(f2))
	case ok1:
		return b2
	case ok2:
		return b1
	case rank(b1) == rank(b2):
		return b1
	}
	panic("∞ + -∞")
}

func mult(b1, b2 Bound) Bound {
	f1, ok1 := b1.(FiniteBound)
	f2, ok2 := b2.(FiniteBound)
	switch {
	case ok1 && ok2:
		if prod, ok := mulInt(int64(f1), int64(f2)); ok {
			return FiniteBound(prod)
		}
		return infinity(sign(f1) * sign(f2))
	case sign(b1) == 0 || sign(b2) == 0:
		return FiniteBound(0)
	}
	return infinity(sign(b1) * sign(b2))
}

func div(b1, b2 Bound) Bound {
	f1, ok1 := b1.(FiniteBound)
	f2, ok2 := b2.(FiniteBound)
	switch {
	case ok2 && f2 == 0:
		panic(errDivisionByZero)
	case ok1 && ok2:
		if f1 == math.MinInt64 && f2 == -1 {
			return PlusInfinity{}
		}
		return f1 / f2
	case ok1:
		return FiniteBound(0)
	case sign(b2) == 0:
		panic(errDivisionByZero)
	}
	return infinity(sign(b1) * sign(b2))
}

func (b1 FiniteBound) Eq(b2 Bound) bool      { return compare(b1, b2) == 0 }
func (b1 FiniteBound) Leq(b2 Bound) bool     { return compare(b1, b2) <= 0 }
func (b1 FiniteBound) Lt(b2 Bound) bool      { return compare(b1, b2) < 0 }
func (b1 FiniteBound) Plus(b2 Bound) Bound   { return plus(b1, b2) }
func (b1 FiniteBound) Mult(b2 Bound) Bound   { return mult(b1, b2) }
func (b1 FiniteBound) Div(b2 Bound) Bound    { return div(b1, b2) }
func (b1 FiniteBound) Neg() Bound            { return neg(b1) }
func (FiniteBound) IsInfinite() bool         { return false }
func (b FiniteBound) String() string         { return strconv.FormatInt(int64(b), 10) }
func (b1 PlusInfinity) Eq(b2 Bound) bool     { return compare(b1, b2) == 0 }
func (b1 PlusInfinity) Leq(b2 Bound) bool    { return compare(b1, b2) <= 0 }
func (b1 PlusInfinity) Lt(b2 Bound) bool     { return compare(b1, b2) < 0 }
func (b1 PlusInfinity) Plus(b2 Bound) Bound  { return plus(b1, b2) }
func (b1 PlusInfinity) Mult(b2 Bound) Bound  { return mult(b1, b2) }
func (b1 PlusInfinity) Div(b2 Bound) Bound   { return div(b1, b2) }
func (PlusInfinity) Neg() Bound              { return MinusInfinity{} }
func (PlusInfinity) IsInfinite() bool        { return true }
func (PlusInfinity) String() string          { return "∞" }
func (b1 MinusInfinity) Eq(b2 Bound) bool    { return compare(b1, b2) == 0 }
func (b1 MinusInfinity) Leq(b2 Bound) bool   { return compare(b1, b2) <= 0 }
func (b1 MinusInfinity) Lt(b2 Bound) bool    { return compare(b1, b2) < 0 }
func (b1 MinusInfinity) Plus(b2 Bound) Bound { return plus(b1, b2) }
func (b1 MinusInfinity) Mult(b2 Bound) Bound { return mult(b1, b2) }
func (b1 MinusInfinity) Div(b2 Bound) Bound  { return div(b1, b2) }
func (MinusInfinity) Neg() Bound             { return PlusInfinity{} }
func (MinusInfinity) IsInfinite() bool       { return true }
func (MinusInfinity) String() string         { return "-∞" }

func (b1 FiniteBound) Max(b2 Bound) Bound {
	if compare(b1, b2) < 0 {
		return b2
	}
	return b1
}

func (b1 FiniteBound) Min(b2 Bound) Bound {
	if compare(b1, b2) > 0 {
		return b2
	}
	return b1
}

func (b1 PlusInfinity) Max(Bound) Bound  { return b1 }
func (PlusInfinity) Min(b2 Bound) Bound  { return b2 }
func (MinusInfinity) Max(b2 Bound) Bound { return b2 }
func (b1 MinusInfinity) Min(Bound) Bound { return b1 }

// addInt computes a + b, or reports that the sum overflows.
func addInt(a, b int64) (int64, bool) {
	sum := a + b
	if b > 0 && sum < a || b < 0 && sum > a {
		return 0, false
	}
	return sum, true
}

// mulInt computes a · b, or reports that the product overflows.
func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	prod := a * b
	if a == -1 && b == math.MinInt64 || b == -1 && a == math.MinInt64 || prod/b != a {
		return 0, false
	}
	return prod, true
}

func neg(b FiniteBound) Bound {
	if b == math.MinInt64 {
		return PlusInfinity{}
	}
	return -b
}

// floorDiv computes ⌊a / b⌋ for b ≠ 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ceilDiv computes ⌈a / b⌉ for b ≠ 0.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
