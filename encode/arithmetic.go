package encode

import (
	"github.com/pkg/errors"

	"github.com/tscheck/tscheck/netlist"
)

// Eq returns a single literal true iff x and y, both MSB-first encodings of
// sort, represent equal values. For enumerated sorts whose cardinality is
// not a power of two, every encoding at or past the last constructor is
// folded into one equivalence class (enum saturation) via the second
// disjunct, matching spec.md §4.2.
func (e *Encoder) Eq(cardinality int, x, y []netlist.Lit) (netlist.Lit, error) {
	if len(x) != len(y) {
		return 0, errors.Errorf("encode: eq operands have different widths %d/%d", len(x), len(y))
	}
	pointwise := make([]netlist.Lit, len(x))
	for i := range x {
		pointwise[i] = e.nl.Iff(x[i], y[i])
	}
	eq := e.nl.AndMany(pointwise...)
	alt := e.nl.AndGate(e.GeBin(x, cardinality-1), e.GeBin(y, cardinality-1))
	return e.nl.OrMany(eq, alt), nil
}

func (e *Encoder) maj(a, b, c netlist.Lit) netlist.Lit {
	return e.nl.OrMany(e.nl.AndGate(a, b), e.nl.AndGate(a, c), e.nl.AndGate(b, c))
}

// AddC is ripple-carry addition of two MSB-first operands with the given
// incoming carry.
func (e *Encoder) AddC(x, y []netlist.Lit, cin netlist.Lit) ([]netlist.Lit, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("encode: add operands have different widths %d/%d", len(x), len(y))
	}
	res := make([]netlist.Lit, len(x))
	cy := cin
	for i := len(x) - 1; i >= 0; i-- {
		res[i] = e.nl.Xor(e.nl.Xor(x[i], y[i]), cy)
		cy = e.maj(x[i], y[i], cy)
	}
	return res, nil
}

// Add is AddC with no incoming carry: unsigned addition modulo 2^w.
func (e *Encoder) Add(x, y []netlist.Lit) ([]netlist.Lit, error) {
	return e.AddC(x, y, e.nl.ConstantFalse())
}

// Sub computes x - y via two's-complement addition: x + ~y + 1.
func (e *Encoder) Sub(x, y []netlist.Lit) ([]netlist.Lit, error) {
	return e.AddC(x, e.notv(y), e.nl.ConstantTrue())
}

// Mul computes x * y modulo 2^w by shift-and-conditional-add, processing
// x's bits from MSB to LSB: at each step the accumulator is shifted left
// by one (introducing a zero at the LSB), then y is conditionally added
// depending on the current bit of x.
func (e *Encoder) Mul(x, y []netlist.Lit) ([]netlist.Lit, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("encode: mul operands have different widths %d/%d", len(x), len(y))
	}
	n := len(x)
	acc := make([]netlist.Lit, n)
	for i := range acc {
		acc[i] = e.nl.ConstantFalse()
	}
	for i := 0; i < n; i++ {
		shifted := append(append([]netlist.Lit{}, acc[1:]...), e.nl.ConstantFalse())
		added, err := e.Add(shifted, y)
		if err != nil {
			return nil, err
		}
		sel, err := e.IteV([]netlist.Lit{x[i]}, added, shifted)
		if err != nil {
			return nil, err
		}
		acc = sel
	}
	return acc, nil
}

// Div computes unsigned x / y modulo 2^w by restoring long division: the
// running remainder is shifted left introducing the next bit of x (MSB to
// LSB), compared against y, and y is subtracted (emitting quotient bit 1)
// whenever it fits.
func (e *Encoder) Div(x, y []netlist.Lit) ([]netlist.Lit, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("encode: div operands have different widths %d/%d", len(x), len(y))
	}
	n := len(x)
	remainder := make([]netlist.Lit, n)
	for i := range remainder {
		remainder[i] = e.nl.ConstantFalse()
	}
	quotient := make([]netlist.Lit, n)
	for i := 0; i < n; i++ {
		shifted := append(append([]netlist.Lit{}, remainder[1:]...), x[i])
		fits := e.Le(y, shifted)
		subtracted, err := e.Sub(shifted, y)
		if err != nil {
			return nil, err
		}
		selected, err := e.IteV([]netlist.Lit{fits}, subtracted, shifted)
		if err != nil {
			return nil, err
		}
		remainder = selected
		quotient[i] = fits
	}
	return quotient, nil
}

// Mod computes x % y via the quotient-residue identity
// mod(x,y) = sub(x, mul(div(x,y), y)) — spec.md §4.2 and DESIGN.md's
// resolution of open question (b) (the original's encode_mod calls a
// nonexistent method with the wrong arguments; this identity is what a
// correct implementation must compute instead).
func (e *Encoder) Mod(x, y []netlist.Lit) ([]netlist.Lit, error) {
	q, err := e.Div(x, y)
	if err != nil {
		return nil, err
	}
	qy, err := e.Mul(q, y)
	if err != nil {
		return nil, err
	}
	return e.Sub(x, qy)
}

// ltSeeded computes the carry-style unsigned comparison of x and y, MSB
// first, processing bits from LSB to MSB (the same direction as the
// ripple-carry adder): at each bit, c' = (¬x_i ∧ y_i) ∨ ((x_i ↔ y_i) ∧ c).
// Seeding c with false yields strict "<"; seeding with true yields "<=".
//
// DESIGN.md note: spec.md §4.2's prose states the first disjunct as
// (x_i ∧ y_i); that formula does not compute an order relation (it is
// satisfied whenever both bits happen to be 1, which the adjacent
// equivalence term already covers) and fails testable property 8 for
// concrete values such as x=1,y=2 in 3 bits. The negated form here is the
// standard unsigned bit-serial comparator and is what satisfies property 8;
// see DESIGN.md open-question (d).
func (e *Encoder) ltSeeded(x, y []netlist.Lit, seed netlist.Lit) (netlist.Lit, error) {
	if len(x) != len(y) {
		return 0, errors.Errorf("encode: comparison operands have different widths %d/%d", len(x), len(y))
	}
	cy := seed
	for i := len(x) - 1; i >= 0; i-- {
		differsLow := e.nl.AndGate(e.nl.NotLit(x[i]), y[i])
		carried := e.nl.AndGate(e.nl.Iff(x[i], y[i]), cy)
		cy = e.nl.OrMany(differsLow, carried)
	}
	return cy, nil
}

// Lt returns a literal true iff the unsigned value of x is strictly less
// than that of y.
func (e *Encoder) Lt(x, y []netlist.Lit) netlist.Lit {
	l, _ := e.ltSeeded(x, y, e.nl.ConstantFalse())
	return l
}

// Le returns a literal true iff the unsigned value of x is less than or
// equal to that of y.
func (e *Encoder) Le(x, y []netlist.Lit) netlist.Lit {
	l, _ := e.ltSeeded(x, y, e.nl.ConstantTrue())
	return l
}
