package compiler

import (
	log "github.com/sirupsen/logrus"

	"github.com/tscheck/tscheck/abstract"
	"github.com/tscheck/tscheck/encode"
	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/tsys"
)

const nondetPrefix = "nondet$"

// Driver runs C4: composing, abstracting, encoding, and serializing a
// Module into AIGER text.
type Driver struct {
	opts []netlist.Option
}

// New returns a Driver. opts are threaded into the netlist built for every
// Compile call.
func New(opts ...netlist.Option) *Driver {
	return &Driver{opts: opts}
}

// Result is what Compile hands back: the serialized AIGER text plus enough
// bookkeeping for C5 to later decode a witness against this exact
// compilation (spec.md §4.4 step 7, §4.5).
type Result struct {
	Aiger string
	// Latches lists every declared latch symbol in netlist declaration
	// order. The final two entries are always __init and __cnst.
	Latches []tsys.Symbol
	Encoder *encode.Encoder
}

func isInterpreted(sym tsys.Symbol) bool {
	return sym.IsNumeral || sym.IsConstructor || sym.Operator != ""
}

func containsName(syms []tsys.Symbol, name string) bool {
	for _, s := range syms {
		if s.Name == name {
			return true
		}
	}
	return false
}

// nondetRewrite is spec.md §4.4 step 2: for every (already-abstracted) state
// variable s that has a next-state definition, introduce a fresh symbol
// nondet(s) of s's sort, rewrite s's next-state definition to
// new(s) ≡ nondet(s), and add a new top-level definition nondet(s) ≡ rhs,
// where rhs was s's original next-state value. Because nondet(s) is itself
// defined, partitionInputs treats it as internal: it is a combinational
// alias of rhs, not an AIGER input, so the latch's next value is still rhs.
func nondetRewrite(res abstract.Result) []tsys.Definition {
	defs := append([]tsys.Definition{}, res.Defs...)
	var extra []tsys.Definition
	for _, s := range res.StVars {
		nextName := tsys.New(s).Name
		for i, d := range defs {
			if d.Sym.Name != nextName {
				continue
			}
			nondetSym := tsys.Sym(nondetPrefix+s.Name, s.Sort)
			extra = append(extra, tsys.Definition{Sym: nondetSym, Rhs: d.Rhs})
			defs[i] = tsys.Definition{Sym: d.Sym, Rhs: tsys.Atom(nondetSym)}
			break
		}
	}
	return append(defs, extra...)
}

// partitionInputs is spec.md §4.4 step 4: every symbol used in a
// definition's right-hand side that is neither defined nor a state variable
// nor interpreted (a numeral, constructor, or arithmetic/comparison
// operator — those synthesize inline via Eval and never need a declared
// input) must be declared as an AIGER input.
func partitionInputs(stvars []tsys.Symbol, defs []tsys.Definition) []tsys.Symbol {
	defSet := make(map[string]bool, len(defs)+len(stvars))
	for _, d := range defs {
		defSet[d.Sym.Name] = true
	}
	for _, s := range stvars {
		defSet[s.Name] = true
	}

	var inputs []tsys.Symbol
	seen := make(map[string]bool)
	for _, d := range defs {
		for _, used := range tsys.UsedSymbols(d.Rhs) {
			if defSet[used.Name] || isInterpreted(used) || seen[used.Name] {
				continue
			}
			seen[used.Name] = true
			inputs = append(inputs, used)
		}
	}
	return inputs
}

// Compile runs the whole of C4 over mod: compose (§4.3 steps 1-3), abstract
// (C3, via a), the nondet rewrite and __cnst/__fail wiring (§4.4 steps 2-5),
// encode (C2, §4.4 step 6), and serialize (C1, §4.4 step 7).
func (d *Driver) Compile(mod Module) (Result, error) {
	composed := compose(mod)

	a := abstract.New(composed.StVars)
	absResult, err := a.Abstract(composed, mod.Invariant)
	if err != nil {
		return Result{}, err
	}

	defs := nondetRewrite(absResult)

	cnstDef := tsys.Definition{
		Sym: tsys.New(cnstVar),
		Rhs: tsys.Not{Arg: tsys.And{Args: absResult.Fmlas}},
	}
	defs = append(defs, cnstDef)
	stvars := append(append([]tsys.Symbol{}, absResult.StVars...), cnstVar)

	inputs := partitionInputs(stvars, defs)

	// A state variable with no next-state definition (a stateful
	// proposition introduced by abstraction) takes an unconstrained next
	// value: its next-state symbol is declared as an input and drives the
	// latch directly.
	for _, s := range stvars {
		next := tsys.New(s)
		if _, ok := findDef(defs, next.Name); !ok {
			inputs = append(inputs, next)
			defs = append(defs, tsys.Definition{Sym: next, Rhs: tsys.Atom(next)})
		}
	}

	failExpr := tsys.And{Args: []tsys.Expr{
		tsys.Atom(initVar),
		tsys.Not{Arg: tsys.Atom(cnstVar)},
		tsys.Not{Arg: absResult.Invariant},
	}}

	log.WithFields(log.Fields{
		"stvars": len(stvars),
		"inputs": len(inputs),
		"defs":   len(defs),
	}).Debug("compile: encoding")

	nl := netlist.New(d.opts...)
	enc := encode.New(nl)

	for _, sym := range inputs {
		if _, err := enc.DeclareInput(sym); err != nil {
			return Result{}, err
		}
	}

	// __init and __cnst are declared last so C5 can always find them by
	// position: the final two entries of the latch list, regardless of
	// where abstraction discovered other stateful propositions.
	latchOrder := make([]tsys.Symbol, 0, len(stvars))
	for _, s := range stvars {
		if s.Name == initVar.Name || s.Name == cnstVar.Name {
			continue
		}
		latchOrder = append(latchOrder, s)
	}
	latchOrder = append(latchOrder, initVar, cnstVar)

	for _, sym := range latchOrder {
		if _, err := enc.DeclareLatch(sym); err != nil {
			return Result{}, err
		}
	}

	var combDefs, nextDefs []tsys.Definition
	for _, def := range defs {
		if tsys.IsNew(def.Sym) {
			nextDefs = append(nextDefs, def)
		} else {
			combDefs = append(combDefs, def)
		}
	}
	if err := enc.DefList(combDefs); err != nil {
		return Result{}, err
	}

	for _, def := range nextDefs {
		cur := tsys.NewOf(def.Sym)
		latchBits, ok := enc.LitsOf(cur)
		if !ok {
			return Result{}, errLatchNotDeclared(cur)
		}
		nextBits, err := enc.Eval(def.Rhs)
		if err != nil {
			return Result{}, err
		}
		if len(nextBits) != len(latchBits) {
			return Result{}, errWidthMismatch(cur, len(latchBits), len(nextBits))
		}
		for i := range latchBits {
			if err := nl.SetLatchNext(latchBits[i], nextBits[i]); err != nil {
				return Result{}, err
			}
		}
	}

	failBits, err := enc.Eval(failExpr)
	if err != nil {
		return Result{}, err
	}
	nl.AddOutput(failBits[0])

	aiger, err := nl.Serialize()
	if err != nil {
		return Result{}, err
	}

	log.WithFields(log.Fields{
		"inputs":  nl.NumInputs(),
		"latches": nl.NumLatches(),
		"gates":   nl.NumGates(),
	}).Info("compile: done")

	return Result{Aiger: aiger, Latches: latchOrder, Encoder: enc}, nil
}
