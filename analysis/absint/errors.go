package absint

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBlock is returned when an option names a block that is not
	// part of the procedure.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrMalformedPath is returned when a path does not follow the edges of
	// the procedure.
	ErrMalformedPath = errors.New("malformed path")
	// ErrArity is returned when a call does not match the signature of its
	// callee.
	ErrArity = errors.New("call arity mismatch")
	// ErrNoMain is returned when main is the only allowed entry but the
	// program has none.
	ErrNoMain = errors.New("no main procedure")
	errNoInit = errors.New("no initial abstract value")
)

func errUnknownStmt(s any) error {
	return fmt.Errorf("invalid statement: %v %T", s, s)
}
