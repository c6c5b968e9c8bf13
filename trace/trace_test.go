package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscheck/tscheck/encode"
	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/tsys"
)

func TestParseLiftsTwoStepWitness(t *testing.T) {
	nl := netlist.New()
	enc := encode.New(nl)

	s := tsys.Sym("s", tsys.Bool)
	initSym := tsys.Sym("__init", tsys.Bool)
	cnstSym := tsys.Sym("__cnst", tsys.Bool)
	latches := []tsys.Symbol{s, initSym, cnstSym}

	// Each latch is boolean, one bit: s, __init, __cnst.
	witness := "1\n" +
		"000 0 0 011\n" +
		"011 0 0 100\n"

	tr, err := Parse(strings.NewReader(witness), latches, enc)
	require.NoError(t, err)
	require.Len(t, tr.States, 2)
	assert.False(t, tr.States[0].Values["s"].Bool)
	assert.True(t, tr.States[1].Values["s"].Bool)
}

func TestParseRejectsNonCounterexampleHeader(t *testing.T) {
	nl := netlist.New()
	enc := encode.New(nl)
	latches := []tsys.Symbol{tsys.Sym("__init", tsys.Bool), tsys.Sym("__cnst", tsys.Bool)}

	_, err := Parse(strings.NewReader("0\n"), latches, enc)
	require.Error(t, err)
	var mw MalformedWitnessError
	assert.ErrorAs(t, err, &mw)
}

func TestParseRejectsWrongColumnCount(t *testing.T) {
	nl := netlist.New()
	enc := encode.New(nl)
	latches := []tsys.Symbol{tsys.Sym("__init", tsys.Bool), tsys.Sym("__cnst", tsys.Bool)}

	_, err := Parse(strings.NewReader("1\n00 0 00\n"), latches, enc)
	require.Error(t, err)
}

func TestTextRendersEachStep(t *testing.T) {
	nl := netlist.New()
	enc := encode.New(nl)

	s := tsys.Sym("s", tsys.Bool)
	latches := []tsys.Symbol{s, tsys.Sym("__init", tsys.Bool), tsys.Sym("__cnst", tsys.Bool)}
	witness := "1\n000 0 0 111\n"

	tr, err := Parse(strings.NewReader(witness), latches, enc)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, tr.Text(&sb))
	assert.Contains(t, sb.String(), "s = true")
}
