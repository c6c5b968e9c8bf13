// Package netlist implements C1: an incremental And-Inverter Graph with
// AIGER's canonical literal numbering, serializable to the standard ASCII
// AIGER form (spec.md §4.1).
package netlist

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Lit is an AIGER literal: a non-negative integer whose low bit is the
// negation flag (lit&1) and whose remaining bits are the variable index
// (lit>>1). 0 is constant false, 1 is constant true. This is the same
// convention as github.com/go-air/gini/z.Lit (Lit.Not is m^1, Lit.Var is
// m>>1); see DESIGN.md's netlist entry.
type Lit uint32

// FalseLit and TrueLit are the two constant literals.
const (
	FalseLit Lit = 0
	TrueLit  Lit = 1
)

// Not returns the negation of l.
func (l Lit) Not() Lit { return l ^ 1 }

// Var returns l's variable index.
func (l Lit) Var() uint32 { return uint32(l) >> 1 }

// IsNeg reports whether l is a negated literal.
func (l Lit) IsNeg() bool { return l&1 != 0 }

func (l Lit) String() string { return strconv.FormatUint(uint64(l), 10) }

// ErrDeclarationAfterGate is returned by DeclareInput/DeclareLatch once any
// gate has been constructed: AIGER requires input and latch variable
// indices to be contiguous blocks preceding all AND-gate indices
// (spec.md §3, §5).
var ErrDeclarationAfterGate = errors.New("netlist: cannot declare input/latch after gates have been created")

// ErrLatchAlreadySet is returned by SetLatchNext for a latch whose next
// literal has already been assigned (spec.md §8 invariant 3: exactly one
// call per latch).
var ErrLatchAlreadySet = errors.New("netlist: latch next-state literal already set")

// ErrUnknownLatch is returned by SetLatchNext for a literal that does not
// name a declared latch's output.
var ErrUnknownLatch = errors.New("netlist: not a declared latch output literal")

// ErrLatchNotSet is returned by Serialize for a latch that was declared but
// never given a next-state literal via SetLatchNext.
var ErrLatchNotSet = errors.New("netlist: latch has no next-state literal set")

type gate struct{ out, a, b Lit }

type latch struct {
	out     Lit
	next    Lit
	nextSet bool
}

// Netlist is a write-once-after-construction AIGER builder: gates may be
// appended freely, but each latch's next-state literal is assigned exactly
// once, and Serialize may only be called once every latch has been set.
type Netlist struct {
	nextVar     uint32
	inputs      []Lit
	latchIdx    map[Lit]int
	latches     []latch
	gates       []gate
	outputs     []Lit
	gatesBegun  bool
	bogusInput  Lit
	hasBogus    bool
}

// Option configures a new Netlist.
type Option func(*Netlist)

// WithBogusInput adds one extra boolean input ahead of any caller-declared
// inputs. This reproduces a workaround in the original implementation for
// an ABC AIGER-reader bug (SPEC_FULL.md §5.1); it is a property of the
// model-checker adapter being targeted, not of the netlist itself, so it is
// opt-in rather than unconditional.
func WithBogusInput() Option {
	return func(n *Netlist) {
		n.hasBogus = true
	}
}

// New returns an empty Netlist, applying any options.
func New(opts ...Option) *Netlist {
	n := &Netlist{
		nextVar:  1,
		latchIdx: make(map[Lit]int),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.hasBogus {
		n.bogusInput = n.declareVar(&n.inputs)
	}
	return n
}

func (n *Netlist) declareVar(into *[]Lit) Lit {
	lit := Lit(n.nextVar * 2)
	n.nextVar++
	*into = append(*into, lit)
	return lit
}

// ConstantTrue returns the literal for true.
func (n *Netlist) ConstantTrue() Lit { return TrueLit }

// ConstantFalse returns the literal for false.
func (n *Netlist) ConstantFalse() Lit { return FalseLit }

// DeclareInput allocates a fresh input literal. It must be called before
// any gate is created.
func (n *Netlist) DeclareInput() (Lit, error) {
	if n.gatesBegun {
		return 0, ErrDeclarationAfterGate
	}
	return n.declareVar(&n.inputs), nil
}

// DeclareLatch allocates a fresh latch literal. It must be called before
// any gate is created; SetLatchNext must be called on the result exactly
// once before Serialize.
func (n *Netlist) DeclareLatch() (Lit, error) {
	if n.gatesBegun {
		return 0, ErrDeclarationAfterGate
	}
	var lits []Lit
	out := n.declareVar(&lits)
	n.latchIdx[out] = len(n.latches)
	n.latches = append(n.latches, latch{out: out})
	return out, nil
}

// AndGate appends a gate computing a&&b and returns its output literal.
// Gates are not hashed or common-subexpression-eliminated: two syntactically
// identical AndGate calls produce two separate gates, tolerated per
// spec.md §4.1's algorithmic note (downstream tools rewrite the AIG). The
// two constant literals are folded away rather than wired into a gate
// (a&&0 is 0, a&&1 is a) — an absorption identity, not CSE, and the one
// that makes scenario S1's single-gate __fail circuit possible.
func (n *Netlist) AndGate(a, b Lit) Lit {
	if a == FalseLit || b == FalseLit {
		return FalseLit
	}
	if a == TrueLit {
		return b
	}
	if b == TrueLit {
		return a
	}
	n.gatesBegun = true
	out := Lit(n.nextVar * 2)
	n.nextVar++
	n.gates = append(n.gates, gate{out: out, a: a, b: b})
	return out
}

// AndMany folds AndGate left over xs; AndMany() is true.
func (n *Netlist) AndMany(xs ...Lit) Lit {
	res := TrueLit
	for i, x := range xs {
		if i == 0 {
			res = x
			continue
		}
		res = n.AndGate(res, x)
	}
	return res
}

// NotLit returns the negation of x. It never allocates.
func (n *Netlist) NotLit(x Lit) Lit { return x.Not() }

// OrMany returns the disjunction of xs via De Morgan's law over AndMany.
func (n *Netlist) OrMany(xs ...Lit) Lit {
	negated := make([]Lit, len(xs))
	for i, x := range xs {
		negated[i] = x.Not()
	}
	return n.AndMany(negated...).Not()
}

// Ite returns a literal for if c then t else e.
func (n *Netlist) Ite(c, t, e Lit) Lit {
	return n.OrMany(n.AndGate(c, t), n.AndGate(c.Not(), e))
}

// Iff returns a literal for the Boolean equivalence of x and y.
func (n *Netlist) Iff(x, y Lit) Lit {
	return n.OrMany(n.AndGate(x, y), n.AndGate(x.Not(), y.Not()))
}

// Xor returns a literal for the exclusive-or of x and y.
func (n *Netlist) Xor(x, y Lit) Lit {
	return n.Iff(x, y).Not()
}

// SetLatchNext assigns the next-state literal for a previously declared
// latch. It must be called exactly once per latch before Serialize.
func (n *Netlist) SetLatchNext(latchOut Lit, next Lit) error {
	idx, ok := n.latchIdx[latchOut]
	if !ok {
		return errors.Wrapf(ErrUnknownLatch, "literal %s", latchOut)
	}
	if n.latches[idx].nextSet {
		return errors.Wrapf(ErrLatchAlreadySet, "literal %s", latchOut)
	}
	n.latches[idx].next = next
	n.latches[idx].nextSet = true
	return nil
}

// AddOutput appends lit to the netlist's output list.
func (n *Netlist) AddOutput(lit Lit) {
	n.outputs = append(n.outputs, lit)
}

// NumInputs, NumLatches, NumGates, NumOutputs report the netlist's current
// sizes, for diagnostics and metrics.
func (n *Netlist) NumInputs() int   { return len(n.inputs) }
func (n *Netlist) NumLatches() int  { return len(n.latches) }
func (n *Netlist) NumGates() int    { return len(n.gates) }
func (n *Netlist) NumOutputs() int  { return len(n.outputs) }

// Serialize emits the standard ASCII AIGER representation: header
// "aag M I L O A" followed by inputs, latches ("lit_out lit_next"),
// outputs, and AND gates ("out a b"). It returns an error if any latch's
// next-state literal was never set.
func (n *Netlist) Serialize() (string, error) {
	for _, l := range n.latches {
		if !l.nextSet {
			return "", errors.Wrapf(ErrLatchNotSet, "latch %s has no next-state literal", l.out)
		}
	}

	m := n.nextVar - 1
	var b strings.Builder
	b.WriteString("aag ")
	b.WriteString(strconv.FormatUint(uint64(m), 10))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(n.inputs)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(n.latches)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(n.outputs)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(n.gates)))
	b.WriteByte('\n')

	for _, in := range n.inputs {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	for _, l := range n.latches {
		b.WriteString(l.out.String())
		b.WriteByte(' ')
		b.WriteString(l.next.String())
		b.WriteByte('\n')
	}
	for _, o := range n.outputs {
		b.WriteString(o.String())
		b.WriteByte('\n')
	}
	for _, g := range n.gates {
		b.WriteString(g.out.String())
		b.WriteByte(' ')
		b.WriteString(g.a.String())
		b.WriteByte(' ')
		b.WriteString(g.b.String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}
