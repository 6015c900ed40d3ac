package utils

import (
	"github.com/benbjohnson/immutable"
)

var stringHasher = immutable.NewHasher("")

// StringHasher is a hasher for string-like values, avoiding the
// reflection-based fallback of immutable.NewHasher for named string types.
type StringHasher[T ~string] struct{}

// Hash computes the uint32 hash of s.
func (StringHasher[T]) Hash(s T) uint32 { return stringHasher.Hash(string(s)) }

// Equal checks two strings for equality.
func (StringHasher[T]) Equal(a, b T) bool { return a == b }

var _ immutable.Hasher[string] = StringHasher[string]{}
