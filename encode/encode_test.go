package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/tsys"
)

// constBits returns value's width-bit constant encoding (constant literals
// only, no inputs declared), letting tests build concrete bit patterns
// without going through the netlist's input/latch declaration discipline.
func constBits(e *Encoder, value, width int) []netlist.Lit {
	return e.BinEnc(value, width)
}

func TestEncodingBitsMatchesVectorLength(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	sym := tsys.Sym("x", tsys.BitVec(5))
	bits, err := e.DeclareInput(sym)
	require.NoError(t, err)
	assert.Len(t, bits, 5)

	n, err := sym.Sort.EncodingBits()
	require.NoError(t, err)
	assert.Equal(t, len(bits), n)
}

func TestBinDecInvertsBinEnc(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	for _, v := range []int{0, 1, 5, 7, 15} {
		bits := e.BinEnc(v, 4)
		assert.Equal(t, v, e.BinDec(bits), "bin_dec(bin_enc(%d)) should round-trip", v)
	}
}

func TestEqSaturatesEnumOutOfRange(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	// 3-constructor enum encodes in 2 bits, so encoding 3 ("11") is an
	// out-of-range pattern that must be treated as equal to encoding 2.
	outOfRange := constBits(e, 3, 2)
	lastCtor := constBits(e, 2, 2)

	eqLit, err := e.Eq(3, outOfRange, lastCtor)
	require.NoError(t, err)
	assert.Equal(t, netlist.TrueLit, eqLit)
}

func TestEqRejectsDistinctInRangeValues(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	a := constBits(e, 0, 2)
	b := constBits(e, 1, 2)

	eqLit, err := e.Eq(3, a, b)
	require.NoError(t, err)
	assert.Equal(t, netlist.FalseLit, eqLit)
}

func TestArithmeticModuloWidth(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	cases := []struct {
		name     string
		op       func(x, y []netlist.Lit) ([]netlist.Lit, error)
		a, b, exp int
	}{
		{"add", e.Add, 3, 5, 8},
		{"add-wrap", e.Add, 15, 1, 0},
		{"sub", e.Sub, 5, 3, 2},
		{"sub-wrap", e.Sub, 0, 1, 15},
		{"mul", e.Mul, 3, 5, 15},
		{"mul-wrap", e.Mul, 6, 6, 4}, // 36 mod 16
		{"div", e.Div, 13, 4, 3},
		{"mod", e.Mod, 13, 4, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			x := e.BinEnc(c.a, 4)
			y := e.BinEnc(c.b, 4)
			res, err := c.op(x, y)
			require.NoError(t, err)
			assert.Equal(t, c.exp, e.BinDec(res), "%d %s %d", c.a, c.name, c.b)
		})
	}
}

func TestLtAndLe(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	one := e.BinEnc(1, 3)
	two := e.BinEnc(2, 3)

	assert.Equal(t, netlist.TrueLit, e.Lt(one, two))
	assert.Equal(t, netlist.FalseLit, e.Lt(two, one))
	assert.Equal(t, netlist.FalseLit, e.Lt(two, two))

	assert.Equal(t, netlist.TrueLit, e.Le(two, two))
	assert.Equal(t, netlist.TrueLit, e.Le(one, two))
	assert.Equal(t, netlist.FalseLit, e.Le(two, one))
}

func TestEvalArithmeticExpression(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	bv := tsys.BitVec(4)
	expr := tsys.App{
		Sym: tsys.Op("+", bv, bv),
		Args: []tsys.Expr{
			tsys.App{Sym: tsys.Numeral(3, bv)},
			tsys.App{Sym: tsys.Numeral(4, bv)},
		},
	}

	res, err := e.Eval(expr)
	require.NoError(t, err)
	assert.Equal(t, 7, e.BinDec(res))
}

func TestDefListMemoizesAndOrdersLazily(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	bv := tsys.BitVec(4)
	a := tsys.Sym("a", bv)
	b := tsys.Sym("b", bv)

	// b is defined in terms of a, listed before a's own definition: DefList
	// must still resolve correctly regardless of order, since both are
	// registered as pending before either is evaluated.
	defs := []tsys.Definition{
		{Sym: b, Rhs: tsys.App{Sym: tsys.Op("+", bv, bv), Args: []tsys.Expr{tsys.Atom(a), tsys.App{Sym: tsys.Numeral(1, bv)}}}},
		{Sym: a, Rhs: tsys.App{Sym: tsys.Numeral(5, bv)}},
	}
	require.NoError(t, e.DefList(defs))

	aBits, ok := e.LitsOf(a)
	require.True(t, ok)
	assert.Equal(t, 5, e.BinDec(aBits))

	bBits, ok := e.LitsOf(b)
	require.True(t, ok)
	assert.Equal(t, 6, e.BinDec(bBits))
}

func TestEvalUnknownSymbolErrorsWithDefinitionDependency(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	undeclared := tsys.Sym("ghost", tsys.Bool)
	_, err := e.Eval(tsys.Atom(undeclared))
	require.Error(t, err)
	var depErr DefinitionDependencyError
	assert.ErrorAs(t, err, &depErr)
}

func TestGetStateDecodesLatchesAndFlagsUnknown(t *testing.T) {
	nl := netlist.New()
	e := New(nl)

	boolSym := tsys.Sym("flag", tsys.Bool)
	enumSym := tsys.Sym("color", tsys.Enum("red", "green", "blue"))
	bvSym := tsys.Sym("n", tsys.BitVec(3))

	// flag: 1 bit, color: 2 bits, n: 3 bits -> total 6 bit witness string.
	state, err := e.GetState("1"+"10"+"101", []tsys.Symbol{boolSym, enumSym, bvSym})
	require.NoError(t, err)

	assert.True(t, state["flag"].Bool)
	assert.Equal(t, "blue", state["color"].Ctor)
	assert.Equal(t, 5, state["n"].Int)

	withUnknown, err := e.GetState("x"+"10"+"101", []tsys.Symbol{boolSym, enumSym, bvSym})
	require.NoError(t, err)
	assert.True(t, withUnknown["flag"].Unknown)
	assert.False(t, withUnknown["color"].Unknown)
}

func TestGetStateRejectsLengthMismatch(t *testing.T) {
	nl := netlist.New()
	e := New(nl)
	sym := tsys.Sym("n", tsys.BitVec(3))

	_, err := e.GetState("10", []tsys.Symbol{sym})
	assert.Error(t, err)
}
