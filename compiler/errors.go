package compiler

import (
	"github.com/pkg/errors"

	"github.com/tscheck/tscheck/tsys"
)

// ErrInternal marks a condition that should be unreachable given a
// well-formed abstract.Result — a bug in C3's or C4's own bookkeeping, not a
// malformed input module.
var ErrInternal = errors.New("compiler: internal inconsistency")

func errLatchNotDeclared(sym tsys.Symbol) error {
	return errors.Wrapf(ErrInternal, "state variable %s has no declared latch", sym)
}

func errWidthMismatch(sym tsys.Symbol, latchWidth, rhsWidth int) error {
	return errors.Wrapf(ErrInternal, "latch %s is %d bits wide but its next-state expression evaluated to %d", sym, latchWidth, rhsWidth)
}
