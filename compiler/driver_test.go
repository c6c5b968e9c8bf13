package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscheck/tscheck/tsys"
)

// TestEmptyModuleCompilesToInitAndCnstOnly exercises the degenerate module
// with no state variables at all: the only latches should be __init and
// __cnst, and there should be exactly one output (with no formulas,
// __cnst's next value is always the negation of And() == true, i.e. always
// false; the invariant is true, so its negated conjunct folds the __fail
// output to constant false).
func TestEmptyModuleCompilesToInitAndCnstOnly(t *testing.T) {
	mod := Module{
		ExtTrans:  tsys.Transition{},
		Invariant: tsys.True(),
	}

	d := New()
	res, err := d.Compile(mod)
	require.NoError(t, err)

	require.Len(t, res.Latches, 2)
	assert.Equal(t, "__init", res.Latches[0].Name)
	assert.Equal(t, "__cnst", res.Latches[1].Name)

	lines := strings.Split(strings.TrimSpace(res.Aiger), "\n")
	header := strings.Fields(lines[0])
	require.Equal(t, "aag", header[0])
	assert.Equal(t, "2", header[3], "two latches")
	assert.Equal(t, "1", header[4], "one output")
}

// TestStateVariableThreadsThroughNondetRewrite exercises a single boolean
// state variable whose external action always flips it, checking that the
// module compiles without error and declares exactly three latches (the
// state variable plus __init and __cnst).
func TestStateVariableThreadsThroughNondetRewrite(t *testing.T) {
	s := tsys.Sym("s", tsys.Bool)

	extTrans := tsys.Transition{
		StVars: []tsys.Symbol{s},
		Defs: []tsys.Definition{
			{Sym: tsys.New(s), Rhs: tsys.Not{Arg: tsys.Atom(s)}},
		},
	}
	mod := Module{
		InitDefs:  []tsys.Definition{{Sym: s, Rhs: tsys.False()}},
		ExtTrans:  extTrans,
		Invariant: tsys.True(),
	}

	d := New()
	res, err := d.Compile(mod)
	require.NoError(t, err)

	require.Len(t, res.Latches, 3)
	assert.Equal(t, "__init", res.Latches[len(res.Latches)-2].Name)
	assert.Equal(t, "__cnst", res.Latches[len(res.Latches)-1].Name)
}

// TestUninterpretedSymbolBecomesInput checks that a free symbol mentioned
// only in a state variable's next-state definition, which is neither a state
// variable nor a definition target, is declared as a netlist input rather
// than erroring.
func TestUninterpretedSymbolBecomesInput(t *testing.T) {
	free := tsys.Sym("env", tsys.Bool)
	s := tsys.Sym("s", tsys.Bool)

	extTrans := tsys.Transition{
		StVars: []tsys.Symbol{s},
		Defs: []tsys.Definition{
			{Sym: tsys.New(s), Rhs: tsys.Atom(free)},
		},
	}
	mod := Module{
		InitDefs:  []tsys.Definition{{Sym: s, Rhs: tsys.False()}},
		ExtTrans:  extTrans,
		Invariant: tsys.True(),
	}

	d := New()
	res, err := d.Compile(mod)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(res.Aiger), "\n")
	header := strings.Fields(lines[0])
	assert.Equal(t, "1", header[2], "env must be declared as the sole input")
}
