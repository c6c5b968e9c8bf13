// Package abstract implements C3: propositional abstraction of a transition
// relation. Quantified subformulas and applications over infinite-sort
// arguments are replaced by fresh Boolean propositions, introducing latches
// for propositions that straddle the next-state boundary.
package abstract

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
	log "github.com/sirupsen/logrus"

	"github.com/tscheck/tscheck/tsys"
)

// Result is C3's output: the abstracted state-variable set, definitions,
// step formulas, and invariant, ready for C4's nondet rewrite.
type Result struct {
	StVars    []tsys.Symbol
	Defs      []tsys.Definition
	Fmlas     []tsys.Expr
	Invariant tsys.Expr
}

// Abstractor carries the per-compilation memoization state. A fresh
// Abstractor must be used for each compilation; it is not safe for
// concurrent or repeated use (spec.md §5: no shared mutable state beyond
// the running compilation).
type Abstractor struct {
	stvarset   map[string]bool
	memo       map[uint64]tsys.Symbol
	propAbsCtr int
	newStVars  []tsys.Symbol
}

// New returns an Abstractor over the given pre-abstraction state variables.
func New(stvars []tsys.Symbol) *Abstractor {
	set := make(map[string]bool, len(stvars))
	for _, s := range stvars {
		set[s.Name] = true
	}
	return &Abstractor{
		stvarset: set,
		memo:     make(map[uint64]tsys.Symbol),
	}
}

// Abstract runs steps 4-8 of spec.md §4.3 over trans and invariant. Steps
// 1-3 (constructing __init, composing the transition relation) are C4's
// responsibility per spec.md's component table ("C4: assemble
// initializer+external-action into one transition; thread through C3 then
// C2") — this Abstractor receives an already-composed transition.
func (a *Abstractor) Abstract(trans tsys.Transition, invariant tsys.Expr) (Result, error) {
	log.WithField("formulas", len(trans.Fmlas)).Debug("abstract: begin")

	fmlas := make([]tsys.Expr, len(trans.Fmlas))
	for i, f := range trans.Fmlas {
		af, err := a.absExpr(f)
		if err != nil {
			return Result{}, err
		}
		fmlas[i] = af
	}

	defs, err := a.abstractDefs(trans.Defs)
	if err != nil {
		return Result{}, err
	}

	absInvariant, err := a.abstractInvariant(invariant, trans.StVars)
	if err != nil {
		return Result{}, err
	}

	var finiteOriginals []tsys.Symbol
	for _, s := range trans.StVars {
		if s.Sort.IsFinite() {
			finiteOriginals = append(finiteOriginals, s)
		}
	}
	stvars := append(append([]tsys.Symbol{}, finiteOriginals...), a.newStVars...)

	log.WithField("stvars", len(stvars)).Debug("abstract: done")
	return Result{StVars: stvars, Defs: defs, Fmlas: fmlas, Invariant: absInvariant}, nil
}

// absExpr is spec.md §4.3 step 4: a quantifier, or a non-atomic expression
// any of whose children has a non-finite result sort, is abstracted whole
// via new_prop; everything else recurses structurally.
func (a *Abstractor) absExpr(t tsys.Expr) (tsys.Expr, error) {
	if q, ok := t.(tsys.Quant); ok {
		sym, err := a.newProp(q)
		if err != nil {
			return nil, err
		}
		return tsys.Atom(sym), nil
	}

	children := t.Children()
	for _, c := range children {
		if !c.Result().IsFinite() {
			sym, err := a.newProp(t)
			if err != nil {
				return nil, err
			}
			return tsys.Atom(sym), nil
		}
	}

	var recErr error
	rebuilt := tsys.Map(t, func(c tsys.Expr) tsys.Expr {
		if recErr != nil {
			return c
		}
		res, err := a.absExpr(c)
		if err != nil {
			recErr = err
			return c
		}
		return res
	})
	if recErr != nil {
		return nil, recErr
	}
	return rebuilt, nil
}

// newProp is spec.md §4.3 step 5. It is memoized on a structural hash of t
// (DESIGN.md's resolution of the "cyclic structure avoidance" design note:
// the original keys its memo on Python object identity of hash-consed
// expressions, which Go has no equivalent of, so a canonicalized structural
// hash via hashstructure stands in). A proposition that contains next-state
// symbols but no current-state variable is stateful: its current-state form
// is itself abstracted (recursively, and this recursion terminates because
// prev_expr strictly decreases next-state depth) and latched via New, so the
// proposition's truth persists across one step.
func (a *Abstractor) newProp(t tsys.Expr) (tsys.Symbol, error) {
	key, err := hashstructure.Hash(t, hashstructure.FormatV2, nil)
	if err != nil {
		return tsys.Symbol{}, err
	}
	if sym, ok := a.memo[key]; ok {
		return sym, nil
	}

	if prev := prevExpr(a.stvarset, t); prev != nil {
		pvSym, err := a.newProp(prev)
		if err != nil {
			return tsys.Symbol{}, err
		}
		nextSym := tsys.New(pvSym)
		a.memo[key] = nextSym
		a.newStVars = append(a.newStVars, pvSym)
		return nextSym, nil
	}

	sym := tsys.Sym(fmt.Sprintf("__abs[%d]", a.propAbsCtr), t.Result())
	a.propAbsCtr++
	a.memo[key] = sym
	log.WithField("prop", sym.Name).Trace("abstract: new proposition")
	return sym, nil
}

// prevExpr computes t's current-state form, or nil if t does not qualify:
// qualifying means t mentions no current-state variable (anywhere, as a
// function head or quantifier binder) but does mention at least one
// next-state symbol, which is renamed back to its current-state
// counterpart (spec.md §4.3 step 5).
func prevExpr(stvarset map[string]bool, expr tsys.Expr) tsys.Expr {
	for _, sym := range tsys.Symbols(expr) {
		if stvarset[sym.Name] {
			return nil
		}
	}
	var news []tsys.Symbol
	for _, sym := range tsys.UsedSymbols(expr) {
		if tsys.IsNew(sym) {
			news = append(news, sym)
		}
	}
	if len(news) == 0 {
		return nil
	}
	rn := make(map[string]tsys.Symbol, len(news))
	for _, sym := range news {
		rn[sym.Name] = tsys.NewOf(sym)
	}
	return tsys.Rename(expr, rn)
}

// abstractDefs is spec.md §4.3 step 6: a definition whose symbol is
// non-nullary or infinite-sorted is dropped (equivalent to replacing it with
// the trivial constraint "true": a constraint that is always true need not
// be carried forward at all); every other definition is kept with its
// right-hand side abstracted.
func (a *Abstractor) abstractDefs(defs []tsys.Definition) ([]tsys.Definition, error) {
	var out []tsys.Definition
	for _, d := range defs {
		if len(d.Sym.Domain) != 0 || !d.Sym.Sort.IsFinite() {
			continue
		}
		rhs, err := a.absExpr(d.Rhs)
		if err != nil {
			return nil, err
		}
		out = append(out, tsys.Definition{Sym: d.Sym, Rhs: rhs})
	}
	return out, nil
}

// abstractInvariant is spec.md §4.3 step 7: the invariant is abstracted for
// real, and a second, discarded abstraction pass runs over its
// next-state-renamed form solely for the memoization side effects — any
// additional stateful propositions that renaming exposes must still be
// registered as latches.
func (a *Abstractor) abstractInvariant(invariant tsys.Expr, stvars []tsys.Symbol) (tsys.Expr, error) {
	absInvariant, err := a.absExpr(invariant)
	if err != nil {
		return nil, err
	}

	rn := make(map[string]tsys.Symbol, len(stvars))
	for _, s := range stvars {
		rn[s.Name] = tsys.New(s)
	}
	renamed := tsys.Rename(invariant, rn)
	if _, err := a.absExpr(renamed); err != nil {
		return nil, err
	}
	return absInvariant, nil
}
