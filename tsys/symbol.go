package tsys

import "strings"

// nextPrefix tags a symbol name as the next-state counterpart of the
// current-state symbol with the same suffix. It is not a valid surface
// identifier, matching the teacher's convention of synthetic names like
// __init, __cnst, __fail.
const nextPrefix = "next$"

// Symbol is a named, sorted constant or function symbol. Function symbols
// (non-empty Domain) only ever appear applied (see App); the classification
// fields below are set once at construction instead of re-derived by
// isinstance-style checks at every use site.
type Symbol struct {
	Name   string
	Sort   Sort
	Domain []Sort

	// IsConstructor marks sym as the CtorIndex'th constructor of an enum
	// sort (Sort itself, not Domain — constructors are nullary).
	IsConstructor bool
	CtorIndex     int

	// IsNumeral marks sym as a numeral of an interpreted sort with the
	// given value.
	IsNumeral    bool
	NumeralValue int

	// Operator names one of {+,-,*,/,%,<} when sym is an operator
	// symbol; empty otherwise.
	Operator string
}

// Sym constructs a plain (non-function, non-constructor) symbol.
func Sym(name string, sort Sort) Symbol {
	return Symbol{Name: name, Sort: sort}
}

// Func constructs a function symbol over the given domain.
func Func(name string, domain []Sort, sort Sort) Symbol {
	return Symbol{Name: name, Sort: sort, Domain: domain}
}

// Ctor constructs the idx'th constructor symbol of an enum sort.
func Ctor(sort Sort, idx int) Symbol {
	return Symbol{Name: sort.Ctors[idx], Sort: sort, IsConstructor: true, CtorIndex: idx}
}

// Numeral constructs a numeral symbol of an interpreted (bit-vector) sort.
func Numeral(value int, sort Sort) Symbol {
	return Symbol{Name: "#" + itoa(value), Sort: sort, IsNumeral: true, NumeralValue: value}
}

// Op constructs an operator symbol over the given domain sort.
func Op(op string, domSort, resSort Sort) Symbol {
	return Symbol{Name: op, Sort: resSort, Domain: []Sort{domSort, domSort}, Operator: op}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// New returns the next-state counterpart of a current-state symbol.
func New(sym Symbol) Symbol {
	sym.Name = nextPrefix + sym.Name
	return sym
}

// NewOf returns the current-state counterpart of a next-state symbol; it is
// the inverse of New. Calling it on a symbol that is not new is a bug in the
// caller and panics, matching the hard-invariant the teacher's own
// tr.new_of enforces implicitly by only ever being called on new symbols.
func NewOf(sym Symbol) Symbol {
	if !IsNew(sym) {
		panic("tsys: NewOf called on a non-new symbol: " + sym.Name)
	}
	sym.Name = strings.TrimPrefix(sym.Name, nextPrefix)
	return sym
}

// IsNew reports whether sym is a next-state symbol.
func IsNew(sym Symbol) bool {
	return strings.HasPrefix(sym.Name, nextPrefix)
}

func (s Symbol) String() string {
	return s.Name
}
