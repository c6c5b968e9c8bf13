// Package encode implements C2: the finite-sort bit-blasting encoder. It
// wraps a netlist.Netlist and maps every finite-sort symbol to a vector of
// netlist literals, implementing vectorized Boolean ops, equality (with
// enum saturation), and bit-vector arithmetic over those vectors.
package encode

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/tsys"
)

// ErrNoDefinition is wrapped into a DefinitionDependencyError by callers
// when Eval encounters a symbol with neither allocated bits nor a pending
// definition — spec.md §7's "Definition dependency error", which indicates
// an internal bug upstream in C3/C4.
var ErrNoDefinition = errors.New("encode: no bits and no pending definition for symbol")

// DefinitionDependencyError wraps ErrNoDefinition with the offending symbol.
type DefinitionDependencyError struct {
	Symbol tsys.Symbol
}

func (e DefinitionDependencyError) Error() string {
	return fmt.Sprintf("no definition for %s in netlist output", e.Symbol)
}

func (e DefinitionDependencyError) Unwrap() error { return ErrNoDefinition }

// Encoder wraps a Netlist and maintains the encoding map from finite-sort
// symbol to its bit vector, MSB-first (spec.md §4.2).
type Encoder struct {
	nl       *netlist.Netlist
	encoding map[string][]netlist.Lit
	pending  map[string]tsys.Expr
}

// New returns an Encoder over nl. The Encoder is the netlist's exclusive
// owner for the remainder of the compilation (DESIGN.md: "composition, not
// inheritance").
func New(nl *netlist.Netlist) *Encoder {
	return &Encoder{
		nl:       nl,
		encoding: make(map[string][]netlist.Lit),
		pending:  make(map[string]tsys.Expr),
	}
}

// True returns the one-bit vector for Boolean true.
func (e *Encoder) True() []netlist.Lit { return []netlist.Lit{e.nl.ConstantTrue()} }

// False returns the one-bit vector for Boolean false.
func (e *Encoder) False() []netlist.Lit { return []netlist.Lit{e.nl.ConstantFalse()} }

// DeclareInput allocates encoding_bits(sym.Sort) fresh netlist inputs for
// sym and records them in the encoding map, MSB-first.
func (e *Encoder) DeclareInput(sym tsys.Symbol) ([]netlist.Lit, error) {
	n, err := sym.Sort.EncodingBits()
	if err != nil {
		return nil, err
	}
	bits := make([]netlist.Lit, n)
	for i := range bits {
		lit, err := e.nl.DeclareInput()
		if err != nil {
			return nil, err
		}
		bits[i] = lit
	}
	e.encoding[sym.Name] = bits
	return bits, nil
}

// DeclareLatch allocates encoding_bits(sym.Sort) fresh netlist latches for
// sym and records them in the encoding map, MSB-first. Each bit's
// next-state literal must still be set via the underlying Netlist's
// SetLatchNext.
func (e *Encoder) DeclareLatch(sym tsys.Symbol) ([]netlist.Lit, error) {
	n, err := sym.Sort.EncodingBits()
	if err != nil {
		return nil, err
	}
	bits := make([]netlist.Lit, n)
	for i := range bits {
		lit, err := e.nl.DeclareLatch()
		if err != nil {
			return nil, err
		}
		bits[i] = lit
	}
	e.encoding[sym.Name] = bits
	return bits, nil
}

// LitsOf returns the previously declared/defined bit vector for sym, or
// false if sym has no bits yet.
func (e *Encoder) LitsOf(sym tsys.Symbol) ([]netlist.Lit, bool) {
	bits, ok := e.encoding[sym.Name]
	return bits, ok
}

// Netlist returns the wrapped Netlist, for callers (the compiler driver)
// that need to declare the netlist's outputs or serialize it once the
// encoder's work is done.
func (e *Encoder) Netlist() *netlist.Netlist { return e.nl }

// Define aliases sym's bits to val — a literal alias, not new gates
// (spec.md §4.2: "definitions are literal aliases, not new gates").
func (e *Encoder) Define(sym tsys.Symbol, val []netlist.Lit) {
	e.encoding[sym.Name] = val
}

// andv, orv, notv — vectorized pointwise Boolean ops over equal-length
// vectors, built from the underlying Netlist's scalar primitives.

func (e *Encoder) andv(xs ...[]netlist.Lit) []netlist.Lit {
	if len(xs) == 0 {
		return e.True()
	}
	n := len(xs[0])
	res := make([]netlist.Lit, n)
	for i := 0; i < n; i++ {
		col := make([]netlist.Lit, len(xs))
		for j, v := range xs {
			col[j] = v[i]
		}
		res[i] = e.nl.AndMany(col...)
	}
	return res
}

func (e *Encoder) orv(xs ...[]netlist.Lit) []netlist.Lit {
	if len(xs) == 0 {
		return e.False()
	}
	n := len(xs[0])
	res := make([]netlist.Lit, n)
	for i := 0; i < n; i++ {
		col := make([]netlist.Lit, len(xs))
		for j, v := range xs {
			col[j] = v[i]
		}
		res[i] = e.nl.OrMany(col...)
	}
	return res
}

func (e *Encoder) notv(x []netlist.Lit) []netlist.Lit {
	res := make([]netlist.Lit, len(x))
	for i, lit := range x {
		res[i] = e.nl.NotLit(lit)
	}
	return res
}

// IteV selects between t and e bit-for-bit according to the single-bit
// selector c[0]. Precondition: len(c) == 1.
func (e *Encoder) IteV(c, t, el []netlist.Lit) ([]netlist.Lit, error) {
	if len(c) != 1 {
		return nil, errors.Errorf("encode: ite selector must be 1 bit, got %d", len(c))
	}
	if len(t) != len(el) {
		return nil, errors.Errorf("encode: ite branches have different widths %d/%d", len(t), len(el))
	}
	res := make([]netlist.Lit, len(t))
	for i := range t {
		res[i] = e.nl.Ite(c[0], t[i], el[i])
	}
	return res, nil
}

// BinEnc returns the MSB-first constant encoding of m modulo 2^n.
func (e *Encoder) BinEnc(m, n int) []netlist.Lit {
	res := make([]netlist.Lit, n)
	for i := 0; i < n; i++ {
		if m&(1<<(n-1-i)) != 0 {
			res[i] = e.nl.ConstantTrue()
		} else {
			res[i] = e.nl.ConstantFalse()
		}
	}
	return res
}

// BinDec is the inverse of BinEnc, interpreting constant literals as 0/1.
func (e *Encoder) BinDec(bits []netlist.Lit) int {
	res := 0
	n := len(bits)
	for i, b := range bits {
		if b == e.nl.ConstantTrue() {
			res |= 1 << (n - 1 - i)
		}
	}
	return res
}

// GeBin returns a single literal true iff the unsigned integer represented
// by MSB-first bits is >= n. Recursive per spec.md §4.2: n=0 is always
// true; n >= 2^|bits| is always false; otherwise compare the high bit.
func (e *Encoder) GeBin(bits []netlist.Lit, n int) netlist.Lit {
	if n <= 0 {
		return e.nl.ConstantTrue()
	}
	if len(bits) == 0 || n >= (1<<uint(len(bits))) {
		return e.nl.ConstantFalse()
	}
	half := 1 << uint(len(bits)-1)
	if half <= n {
		return e.nl.AndGate(bits[0], e.GeBin(bits[1:], n-half))
	}
	return e.nl.OrMany(bits[0], e.GeBin(bits[1:], n))
}
