package compiler

import (
	"strconv"
	"strings"
	"testing"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/require"

	"github.com/tscheck/tscheck/scenario"
)

// parsedAiger is the ascii AIGER text Driver.Compile produces, decoded back
// into its header counts and literal lists. Re-parsing our own serialized
// text independently of the writer that produced it is spec.md §8's
// testable property 1.
type parsedAiger struct {
	m, i, l, o, a int
	inputs        []uint32
	latches       [][2]uint32 // out, next
	outputs       []uint32
	gates         [][3]uint32 // out, a, b
}

func parseAiger(t *testing.T, text string) *parsedAiger {
	t.Helper()
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.NotEmpty(t, lines)

	header := strings.Fields(lines[0])
	require.Equal(t, "aag", header[0], "header must start with the ascii AIGER tag")
	require.Len(t, header, 6)

	var p parsedAiger
	nums := make([]int, 5)
	for i, f := range header[1:] {
		n, err := strconv.Atoi(f)
		require.NoError(t, err)
		nums[i] = n
	}
	p.m, p.i, p.l, p.o, p.a = nums[0], nums[1], nums[2], nums[3], nums[4]

	row := 1
	readLit := func() uint32 {
		n, err := strconv.ParseUint(lines[row], 10, 32)
		require.NoError(t, err)
		row++
		return uint32(n)
	}
	for k := 0; k < p.i; k++ {
		p.inputs = append(p.inputs, readLit())
	}
	for k := 0; k < p.l; k++ {
		fields := strings.Fields(lines[row])
		require.Len(t, fields, 2, "latch line %q", lines[row])
		out, err := strconv.ParseUint(fields[0], 10, 32)
		require.NoError(t, err)
		next, err := strconv.ParseUint(fields[1], 10, 32)
		require.NoError(t, err)
		p.latches = append(p.latches, [2]uint32{uint32(out), uint32(next)})
		row++
	}
	for k := 0; k < p.o; k++ {
		p.outputs = append(p.outputs, readLit())
	}
	for k := 0; k < p.a; k++ {
		fields := strings.Fields(lines[row])
		require.Len(t, fields, 3, "gate line %q", lines[row])
		var vals [3]uint32
		for j, f := range fields {
			n, err := strconv.ParseUint(f, 10, 32)
			require.NoError(t, err)
			vals[j] = uint32(n)
		}
		p.gates = append(p.gates, vals)
		row++
	}
	return &p
}

// evalDirect is a minimal AIG interpreter: literal l's value is the variable
// l>>1's bit, flipped if l is odd, and variable 0 is always false (so
// literal 0 evaluates false and literal 1 evaluates true with no special
// casing). Gates are processed in file order, which AIGER's contiguous
// index-block discipline (spec.md §3) guarantees is already topological.
func evalDirect(p *parsedAiger, bits map[uint32]bool) map[uint32]bool {
	val := make(map[uint32]bool, len(bits)+len(p.gates))
	for v, b := range bits {
		val[v] = b
	}
	lit := func(l uint32) bool {
		b := val[l>>1]
		if l&1 == 1 {
			b = !b
		}
		return b
	}
	for _, g := range p.gates {
		val[g[0]>>1] = lit(g[1]) && lit(g[2])
	}
	return val
}

// evalGini rebuilds the same AIG inside a gini logic.C circuit — an
// independent AND-inverter implementation from a separate library — fixes
// the same input/latch bits as unit assumptions, and reads back each output
// literal's value once the solver confirms the (trivially satisfiable,
// since it's a fully-determined circuit) assignment.
func evalGini(t *testing.T, p *parsedAiger, bits map[uint32]bool) map[uint32]bool {
	t.Helper()
	c := logic.NewCCap(p.m)
	vars := make(map[uint32]z.Lit, p.m)

	for _, in := range p.inputs {
		vars[in>>1] = c.Lit()
	}
	for _, lt := range p.latches {
		vars[lt[0]>>1] = c.Lit()
	}
	constTrue := c.Lit()

	resolve := func(l uint32) z.Lit {
		v := l >> 1
		base := vars[v]
		if v == 0 {
			base = constTrue
		}
		if l&1 == 1 {
			return base.Not()
		}
		return base
	}

	for _, g := range p.gates {
		vars[g[0]>>1] = c.And(resolve(g[1]), resolve(g[2]))
	}

	solver := gini.New()
	c.ToCnf(solver)
	solver.Assume(constTrue)
	for v, b := range bits {
		lit := vars[v]
		if !b {
			lit = lit.Not()
		}
		solver.Assume(lit)
	}
	require.Equal(t, 1, solver.Solve(), "gini: fully-assigned AIG must be satisfiable")

	valueOf := func(l uint32) bool {
		v := l >> 1
		base := vars[v]
		if v == 0 {
			base = constTrue
		}
		b := solver.Value(base)
		if l&1 == 1 {
			b = !b
		}
		return b
	}

	out := make(map[uint32]bool, len(p.outputs))
	for _, o := range p.outputs {
		out[o>>1] = valueOf(o)
	}
	return out
}

// TestSerializedAigerAgreesWithIndependentEvaluator compiles every built-in
// scenario, re-parses its AIGER text, and checks that a hand-rolled direct
// evaluator and a from-scratch gini reconstruction agree on every output bit
// for every input/latch assignment — spec.md §8's property 1.
func TestSerializedAigerAgreesWithIndependentEvaluator(t *testing.T) {
	for _, name := range scenario.Names {
		name := name
		t.Run(name, func(t *testing.T) {
			mod, err := scenario.Load(name)
			require.NoError(t, err)

			d := New()
			res, err := d.Compile(mod)
			if err != nil {
				t.Skipf("scenario %s does not compile on its own (%v); not a soundness target", name, err)
			}

			p := parseAiger(t, res.Aiger)
			free := append(append([]uint32{}, p.inputs...), latchOutVars(p)...)

			total := 1 << len(free)
			if total > 64 {
				t.Skipf("scenario %s has %d free bits, too many to enumerate exhaustively here", name, len(free))
			}
			for assignment := 0; assignment < total; assignment++ {
				bits := make(map[uint32]bool, len(free))
				for i, v := range free {
					bits[v>>1] = assignment&(1<<i) != 0
				}
				direct := evalDirect(p, bits)
				fromGini := evalGini(t, p, bits)
				for _, o := range p.outputs {
					want := fromGini[o>>1]
					got := direct[o>>1]
					if o&1 == 1 {
						got = !got
					}
					require.Equalf(t, want, got, "scenario %s: output %d disagrees under assignment %v", name, o, bits)
				}
			}
		})
	}
}

func latchOutVars(p *parsedAiger) []uint32 {
	out := make([]uint32, len(p.latches))
	for i, lt := range p.latches {
		out[i] = lt[0]
	}
	return out
}

// TestAigerLiteralDiscipline checks spec.md §8's property 2: every input,
// latch, and gate output literal is even (unnegated at its point of
// declaration) and gate output variables strictly increase, since AIGER
// requires each gate to be defined only in terms of already-declared
// variables.
func TestAigerLiteralDiscipline(t *testing.T) {
	for _, name := range scenario.Names {
		name := name
		t.Run(name, func(t *testing.T) {
			mod, err := scenario.Load(name)
			require.NoError(t, err)

			res, err := New().Compile(mod)
			if err != nil {
				t.Skipf("scenario %s does not compile on its own (%v)", name, err)
			}
			p := parseAiger(t, res.Aiger)

			for _, in := range p.inputs {
				require.Zerof(t, in&1, "input literal %d must be even", in)
			}
			for _, lt := range p.latches {
				require.Zerof(t, lt[0]&1, "latch output literal %d must be even", lt[0])
			}

			maxVar := uint32(0)
			for _, lt := range p.latches {
				if v := lt[0] >> 1; v > maxVar {
					maxVar = v
				}
			}
			for _, in := range p.inputs {
				if v := in >> 1; v > maxVar {
					maxVar = v
				}
			}
			for _, g := range p.gates {
				require.Zerof(t, g[0]&1, "gate output literal %d must be even", g[0])
				outVar := g[0] >> 1
				require.Greaterf(t, outVar, maxVar, "gate output var %d must exceed every previously declared var", outVar)
				require.LessOrEqualf(t, g[1]>>1, maxVar, "gate %d's operand %d references an undeclared variable", g[0], g[1])
				require.LessOrEqualf(t, g[2]>>1, maxVar, "gate %d's operand %d references an undeclared variable", g[0], g[2])
				maxVar = outVar
			}
		})
	}
}
