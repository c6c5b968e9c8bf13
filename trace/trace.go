// Package trace implements C5: lifting an AIGER witness back into a
// sequence of source-vocabulary states. The witness format is the four
// column per-step trace external model checkers emit for a falsified
// safety property: `pre inp out post`, one line per simulated step,
// preceded by a one-line header that is "1" if a counterexample follows and
// "0" if the property held (in which case there is nothing to lift).
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tscheck/tscheck/encode"
	"github.com/tscheck/tscheck/tsys"
)

// MalformedWitnessError reports a witness file that does not match the
// expected header/column shape — spec.md §7's "model checker returned
// mis-formatted witness" fatal error kind.
type MalformedWitnessError struct {
	Reason string
}

func (e MalformedWitnessError) Error() string {
	return fmt.Sprintf("trace: malformed witness: %s", e.Reason)
}

// State is one point along a trace: the source-vocabulary valuation of
// every state variable the witness pinned down. A symbol absent from
// Values means the witness left its value unconstrained ('x' in at least
// one of its bits) — skipped rather than reported, mirroring the original's
// treatment of an undetermined latch value as absent from the trace.
type State struct {
	Values map[string]*encode.StateValue
}

// Trace is the witness lifted to source vocabulary: States[0] is the
// initial state (the `__init` step), and each subsequent entry is one
// application of the external action.
type Trace struct {
	States []State
}

// Parse reads a witness in the four-column aag simulation-trace format from
// r, decoding each step's post-state column against latches (in netlist
// declaration order, including the trailing __init/__cnst pair, which
// Parse itself skips per spec.md §4.5's "last two latches are reserved").
// enc must be the same Encoder the compilation that produced the witness's
// AIGER text used, since GetState decodes according to each latch symbol's
// sort.
func Parse(r io.Reader, latches []tsys.Symbol, enc *encode.Encoder) (*Trace, error) {
	if len(latches) < 2 {
		return nil, MalformedWitnessError{Reason: "fewer than two latches (expected at least __init, __cnst)"}
	}
	reportedLatches := latches[:len(latches)-2]

	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, MalformedWitnessError{Reason: "empty witness file"}
	}
	header := strings.TrimSpace(sc.Text())
	if header != "1" {
		return nil, MalformedWitnessError{Reason: fmt.Sprintf("header %q, want \"1\" (a counterexample)", header)}
	}

	var tr Trace
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, " ")
		if len(cols) != 4 {
			return nil, MalformedWitnessError{Reason: fmt.Sprintf("line %q has %d columns, want 4", line, len(cols))}
		}
		post := cols[3]

		stmap, err := enc.GetState(post, latches)
		if err != nil {
			return nil, err
		}
		state := State{Values: make(map[string]*encode.StateValue, len(reportedLatches))}
		for _, sym := range reportedLatches {
			val := stmap[sym.Name]
			if val.Unknown {
				continue
			}
			state.Values[sym.Name] = val
		}
		tr.States = append(tr.States, state)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(tr.States) == 0 {
		return nil, MalformedWitnessError{Reason: "header promised a counterexample but no steps followed"}
	}
	return &tr, nil
}

// JSON renders the trace as a JSON array of step -> symbol -> value, the
// non-GUI analog of the original's Tk-based `IvyMCTrace` viewer (spec.md's
// trace visualization UI is explicitly out of scope; `cmd/tscheck trace`
// pipes this through gojq for querying instead of rendering a window).
func (t *Trace) JSON() ([]byte, error) {
	return json.MarshalIndent(t.States, "", "  ")
}

// Text renders a plain-text rendition, one "name = value" line per state
// variable per step, each step introduced by a "-- init 0 --" or
// "-- step N --" header line.
func (t *Trace) Text(w io.Writer) error {
	for i, state := range t.States {
		label := "step"
		if i == 0 {
			label = "init"
		}
		if _, err := fmt.Fprintf(w, "-- %s %d --\n", label, i); err != nil {
			return err
		}
		names := make([]string, 0, len(state.Values))
		for name := range state.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, err := fmt.Fprintf(w, "%s = %s\n", name, renderValue(state.Values[name])); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderValue(v *encode.StateValue) string {
	switch v.Sort.Kind {
	case tsys.EnumKind:
		return v.Ctor
	case tsys.BoolKind:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}
