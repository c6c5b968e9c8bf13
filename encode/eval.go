package encode

import (
	"github.com/pkg/errors"

	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/tsys"
)

// Eval compiles a first-order expression into its bit vector, recursing
// structurally over tsys.Expr's closed variant set (spec.md §4.2). Any
// atomic, non-operator symbol without already-allocated bits is resolved
// through the pending-definitions map set up by DefList, matching the
// teacher's getdef/deflist pattern: the first reference to a defined symbol
// triggers its evaluation, and the result is memoized for every later
// reference.
func (e *Encoder) Eval(expr tsys.Expr) ([]netlist.Lit, error) {
	switch v := expr.(type) {
	case tsys.Ite:
		cond, err := e.Eval(v.Cond)
		if err != nil {
			return nil, err
		}
		then, err := e.Eval(v.Then)
		if err != nil {
			return nil, err
		}
		els, err := e.Eval(v.Else)
		if err != nil {
			return nil, err
		}
		return e.IteV(cond, then, els)

	case tsys.Eq:
		lhs, err := e.Eval(v.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := e.Eval(v.Rhs)
		if err != nil {
			return nil, err
		}
		card, err := cardinalityOf(v.Lhs.Result())
		if err != nil {
			return nil, err
		}
		lit, err := e.Eq(card, lhs, rhs)
		if err != nil {
			return nil, err
		}
		return []netlist.Lit{lit}, nil

	case tsys.And:
		args, err := e.evalAll(v.Args)
		if err != nil {
			return nil, err
		}
		return e.andv(args...), nil

	case tsys.Or:
		args, err := e.evalAll(v.Args)
		if err != nil {
			return nil, err
		}
		return e.orv(args...), nil

	case tsys.Not:
		arg, err := e.Eval(v.Arg)
		if err != nil {
			return nil, err
		}
		return e.notv(arg), nil

	case tsys.Quant:
		return nil, errors.Errorf("encode: quantifier reached the encoder unabstracted: %v", v.Var)

	case tsys.App:
		return e.evalApp(v)

	default:
		return nil, errors.Errorf("encode: unhandled expression variant %T", expr)
	}
}

func (e *Encoder) evalAll(exprs []tsys.Expr) ([][]netlist.Lit, error) {
	res := make([][]netlist.Lit, len(exprs))
	for i, x := range exprs {
		bits, err := e.Eval(x)
		if err != nil {
			return nil, err
		}
		res[i] = bits
	}
	return res, nil
}

func (e *Encoder) evalApp(v tsys.App) ([]netlist.Lit, error) {
	sym := v.Sym

	switch {
	case sym.IsConstructor:
		n, err := sym.Sort.EncodingBits()
		if err != nil {
			return nil, err
		}
		return e.BinEnc(sym.CtorIndex, n), nil

	case sym.IsNumeral:
		n, err := sym.Sort.EncodingBits()
		if err != nil {
			return nil, err
		}
		return e.BinEnc(sym.NumeralValue, n), nil

	case sym.Operator != "":
		if len(v.Args) != 2 {
			return nil, errors.Errorf("encode: operator %q applied to %d arguments, want 2", sym.Operator, len(v.Args))
		}
		x, err := e.Eval(v.Args[0])
		if err != nil {
			return nil, err
		}
		y, err := e.Eval(v.Args[1])
		if err != nil {
			return nil, err
		}
		return e.applyOp(sym.Operator, x, y)

	default:
		if len(v.Args) != 0 {
			return nil, errors.Errorf("encode: unexpected application of non-operator symbol %q", sym.Name)
		}
		return e.resolveSymbol(sym)
	}
}

func (e *Encoder) applyOp(op string, x, y []netlist.Lit) ([]netlist.Lit, error) {
	switch op {
	case "+":
		return e.Add(x, y)
	case "-":
		return e.Sub(x, y)
	case "*":
		return e.Mul(x, y)
	case "/":
		return e.Div(x, y)
	case "%":
		return e.Mod(x, y)
	case "<":
		return []netlist.Lit{e.Lt(x, y)}, nil
	default:
		return nil, errors.Errorf("encode: unknown operator %q", op)
	}
}

// cardinalityOf returns the size of a finite sort's value space for equality
// saturation: an enum's constructor count, or 2^width for a bit-vector or
// Boolean sort (a power of two, so the saturation disjunct in Eq is
// vacuously subsumed by the pointwise comparison).
func cardinalityOf(sort tsys.Sort) (int, error) {
	if sort.Kind == tsys.EnumKind {
		return sort.Cardinality(), nil
	}
	bits, err := sort.EncodingBits()
	if err != nil {
		return 0, err
	}
	return 1 << uint(bits), nil
}

// resolveSymbol returns sym's bits, resolving and memoizing a pending
// definition on first reference. It is the sole recursive entry point
// through which defined-but-not-yet-encoded symbols reach the netlist.
func (e *Encoder) resolveSymbol(sym tsys.Symbol) ([]netlist.Lit, error) {
	if bits, ok := e.encoding[sym.Name]; ok {
		return bits, nil
	}
	if rhs, ok := e.pending[sym.Name]; ok {
		delete(e.pending, sym.Name)
		val, err := e.Eval(rhs)
		if err != nil {
			return nil, err
		}
		e.encoding[sym.Name] = val
		return val, nil
	}
	return nil, DefinitionDependencyError{Symbol: sym}
}

// DefList processes a transition's definitions, matching spec.md §4.2's
// deflist contract: each defined symbol's right-hand side is only evaluated
// once, on first need, regardless of the order defs are given in, since
// every definition is registered as pending before any is evaluated.
func (e *Encoder) DefList(defs []tsys.Definition) error {
	for _, d := range defs {
		e.pending[d.Sym.Name] = d.Rhs
	}
	for _, d := range defs {
		if _, already := e.encoding[d.Sym.Name]; already {
			continue
		}
		if _, err := e.resolveSymbol(d.Sym); err != nil {
			return err
		}
	}
	return nil
}
