package netlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvenOddDiscipline(t *testing.T) {
	n := New()
	a, err := n.DeclareInput()
	require.NoError(t, err)
	b, err := n.DeclareInput()
	require.NoError(t, err)

	out := n.AndGate(a, b)
	assert.True(t, out%2 == 0, "gate output must be even")
	assert.Greater(t, out.Var(), a.Var(), "gate output var must exceed its inputs")
	assert.Greater(t, out.Var(), b.Var(), "gate output var must exceed its inputs")
	assert.NotEqual(t, a.Not(), a)
	assert.Equal(t, a, a.Not().Not())
}

func TestDeclarationAfterGateRejected(t *testing.T) {
	n := New()
	a, _ := n.DeclareInput()
	_ = n.AndGate(a, a)
	_, err := n.DeclareInput()
	assert.ErrorIs(t, err, ErrDeclarationAfterGate)
	_, err = n.DeclareLatch()
	assert.ErrorIs(t, err, ErrDeclarationAfterGate)
}

func TestLatchMustBeSetExactlyOnce(t *testing.T) {
	n := New()
	l, err := n.DeclareLatch()
	require.NoError(t, err)

	_, err = n.Serialize()
	assert.ErrorIs(t, err, ErrLatchNotSet, "serialize before SetLatchNext must fail")

	require.NoError(t, n.SetLatchNext(l, TrueLit))
	_, err = n.Serialize()
	assert.NoError(t, err)

	err = n.SetLatchNext(l, FalseLit)
	assert.ErrorIs(t, err, ErrLatchAlreadySet)
}

func TestSetLatchNextUnknownLatch(t *testing.T) {
	n := New()
	in, _ := n.DeclareInput()
	err := n.SetLatchNext(in, TrueLit)
	assert.ErrorIs(t, err, ErrUnknownLatch)
}

// TestTrivialProvedShape reproduces spec.md §8 scenario S1's expected
// header: two bookkeeping latches (__init, __cnst), one output (__fail),
// one gate, no inputs.
func TestTrivialProvedShape(t *testing.T) {
	n := New()
	initLatch, _ := n.DeclareLatch()
	cnstLatch, _ := n.DeclareLatch()

	require.NoError(t, n.SetLatchNext(initLatch, TrueLit))
	require.NoError(t, n.SetLatchNext(cnstLatch, TrueLit))

	fail := n.AndMany(initLatch, cnstLatch.Not(), TrueLit.Not())
	n.AddOutput(fail)

	out, err := n.Serialize()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "aag 3 0 2 1 1", lines[0])
}

func TestIteIffXor(t *testing.T) {
	n := New()
	c, _ := n.DeclareInput()
	x, _ := n.DeclareInput()
	y, _ := n.DeclareInput()

	_ = n.Ite(c, x, y)
	_ = n.Iff(x, y)
	_ = n.Xor(x, y)

	assert.Equal(t, 3, n.NumInputs())
	assert.Greater(t, n.NumGates(), 0)
}

func TestWithBogusInput(t *testing.T) {
	n := New(WithBogusInput())
	assert.Equal(t, 1, n.NumInputs())
	real, err := n.DeclareInput()
	require.NoError(t, err)
	assert.Equal(t, 2, n.NumInputs())
	assert.NotEqual(t, n.bogusInput, real)
}

func TestAndManyEmptyIsTrue(t *testing.T) {
	n := New()
	assert.Equal(t, TrueLit, n.AndMany())
}

func TestOrManyEmptyIsFalse(t *testing.T) {
	n := New()
	assert.Equal(t, FalseLit, n.OrMany())
}
