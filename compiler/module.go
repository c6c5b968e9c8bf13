// Package compiler implements C4: the driver that assembles a module's
// initializer and external action into one transition relation, threads it
// through C3 (abstract) and C2 (encode), wires up the `__init`, `__cnst`,
// and `__fail` bookkeeping symbols, and serializes the result through C1.
package compiler

import "github.com/tscheck/tscheck/tsys"

// Module is the minimal data a compilation needs: the RHS each state
// variable takes on before any external action has run, the external
// action's own transition relation, and the invariant to check. Evaluating
// an actual action-language program into this shape is the symbolic-
// execution front-end, explicitly out of scope (spec.md §1); `scenario`
// constructs Modules directly as data.
type Module struct {
	// InitDefs gives each state variable's initial-state value, keyed by
	// the variable's own (current-state) symbol.
	InitDefs []tsys.Definition
	// ExtTrans is the external action's transition relation: its StVars are
	// the module's state variables (not yet including __init), its Defs
	// include New(s) ≡ rhs for each one.
	ExtTrans tsys.Transition
	Invariant tsys.Expr
}

// initVar and cnstVar are the two book-keeping latches spec.md §4.3 step 2
// and §4.4 step 3 introduce.
var (
	initVar = tsys.Sym("__init", tsys.Bool)
	cnstVar = tsys.Sym("__cnst", tsys.Bool)
)

func findDef(defs []tsys.Definition, name string) (tsys.Expr, bool) {
	for _, d := range defs {
		if d.Sym.Name == name {
			return d.Rhs, true
		}
	}
	return nil, false
}

// compose implements spec.md §4.3 steps 1-3: introduce __init, and build the
// single transition relation for "if __init then ext_act else initializers;
// __init := true" by muxing each state variable's external-action successor
// against its initializer value on __init.
func compose(mod Module) tsys.Transition {
	stvars := append([]tsys.Symbol{initVar}, mod.ExtTrans.StVars...)

	defs := make([]tsys.Definition, 0, len(mod.ExtTrans.StVars)+1)
	for _, s := range mod.ExtTrans.StVars {
		extRhs, hasExt := findDef(mod.ExtTrans.Defs, tsys.New(s).Name)
		initRhs, hasInit := findDef(mod.InitDefs, s.Name)
		if !hasExt {
			extRhs = tsys.Atom(s)
		}
		if !hasInit {
			initRhs = tsys.Atom(s)
		}
		composed := tsys.Ite{Cond: tsys.Atom(initVar), Then: extRhs, Else: initRhs}
		defs = append(defs, tsys.Definition{Sym: tsys.New(s), Rhs: composed})
	}
	defs = append(defs, tsys.Definition{Sym: tsys.New(initVar), Rhs: tsys.True()})

	// Any definition in the external action that does not bind a state
	// variable's next value (an auxiliary combinational helper symbol) has
	// no initializer/successor to mux between and passes through as-is.
	stvarNextNames := make(map[string]bool, len(mod.ExtTrans.StVars))
	for _, s := range mod.ExtTrans.StVars {
		stvarNextNames[tsys.New(s).Name] = true
	}
	for _, d := range mod.ExtTrans.Defs {
		if !stvarNextNames[d.Sym.Name] {
			defs = append(defs, d)
		}
	}

	fmlas := make([]tsys.Expr, len(mod.ExtTrans.Fmlas))
	for i, f := range mod.ExtTrans.Fmlas {
		// A guard/constraint from the external action only binds once the
		// module has actually initialized and an external action is
		// running; on the initializing step it is vacuously satisfied.
		fmlas[i] = tsys.Ite{Cond: tsys.Atom(initVar), Then: f, Else: tsys.True()}
	}

	return tsys.Transition{StVars: stvars, Defs: defs, Fmlas: fmlas, Error: mod.ExtTrans.Error}
}
