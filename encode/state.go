package encode

import (
	"fmt"

	"github.com/tscheck/tscheck/tsys"
)

// StateValue is one symbol's decoded value from a model-checker witness.
// Unknown is set whenever any bit of the symbol's slice of the witness was
// 'x' (don't-care) — spec.md §4.2 treats an unknown bit as making the whole
// symbol's value unknown, rather than collapsing individual bits to 0 as the
// original implementation's state decoder sloppily did; see DESIGN.md.
type StateValue struct {
	Sort    tsys.Sort
	Unknown bool
	Bool    bool
	Int     int
	Ctor    string
}

// MalformedWitnessError is returned by GetState when a witness line's bit
// string does not match the symbols it is meant to decode — spec.md §7's
// "Malformed witness" error kind.
type MalformedWitnessError struct {
	Reason string
}

func (e MalformedWitnessError) Error() string {
	return "malformed witness: " + e.Reason
}

// GetState decodes one column ("pre", "post", etc.) of a witness's per-latch
// bit string into a value per latch symbol, consuming encoding_bits(sym)
// characters per symbol in declaration order.
func (e *Encoder) GetState(bits string, latchSymbols []tsys.Symbol) (map[string]*StateValue, error) {
	out := make(map[string]*StateValue, len(latchSymbols))
	offset := 0
	for _, sym := range latchSymbols {
		n, err := sym.Sort.EncodingBits()
		if err != nil {
			return nil, err
		}
		if offset+n > len(bits) {
			return nil, MalformedWitnessError{Reason: fmt.Sprintf("symbol %q needs %d bits at offset %d, witness has %d", sym.Name, n, offset, len(bits))}
		}
		chars := bits[offset : offset+n]
		offset += n

		val, err := decodeBits(sym.Sort, chars)
		if err != nil {
			return nil, err
		}
		out[sym.Name] = &val
	}
	if offset != len(bits) {
		return nil, MalformedWitnessError{Reason: "witness bit string length does not match the sum of its symbols' encoding widths"}
	}
	return out, nil
}

// decodeBits interprets chars (MSB-first '0'/'1'/'x') as a StateValue of the
// given sort. Any 'x' among the symbol's bits makes the whole value Unknown.
// An enum decode that exceeds the sort's cardinality saturates to the last
// constructor, mirroring Eq's saturation semantics on the encode side.
func decodeBits(sort tsys.Sort, chars string) (StateValue, error) {
	n := 0
	for _, c := range chars {
		switch c {
		case '0':
			n <<= 1
		case '1':
			n = (n << 1) | 1
		case 'x', 'X':
			return StateValue{Sort: sort, Unknown: true}, nil
		default:
			return StateValue{}, MalformedWitnessError{Reason: "witness bit string contains an unrecognized character"}
		}
	}

	switch sort.Kind {
	case tsys.BoolKind:
		return StateValue{Sort: sort, Bool: n != 0}, nil
	case tsys.EnumKind:
		idx := n
		if idx >= len(sort.Ctors) {
			idx = len(sort.Ctors) - 1
		}
		return StateValue{Sort: sort, Ctor: sort.Ctors[idx]}, nil
	case tsys.BitVecKind:
		return StateValue{Sort: sort, Int: n}, nil
	default:
		return StateValue{}, tsys.UnsupportedSortError{Sort: sort}
	}
}
