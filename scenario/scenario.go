// Package scenario builds compiler.Module values directly from YAML
// fixtures, standing in for the action-language front-end spec.md §1
// excludes from scope: nothing here evaluates a program, it only decodes a
// tagged-union expression AST into tsys.Expr.
package scenario

import (
	"embed"
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/mapstructure"

	"github.com/tscheck/tscheck/compiler"
	"github.com/tscheck/tscheck/tsys"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// Names lists the built-in fixture names, without the .yaml suffix, in the
// order spec.md §8 introduces them.
var Names = []string{
	"s1_trivial_proved",
	"s2_immediate_violation",
	"s3_enum_saturation",
	"s4_bitvec_arithmetic",
	"s5_abstraction",
	"s6_witness_lifter_robustness",
	"s7_definition_cycle",
}

// Load reads a built-in fixture by name (one of Names) and decodes it.
func Load(name string) (compiler.Module, error) {
	data, err := fixtures.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		return compiler.Module{}, fmt.Errorf("scenario: unknown fixture %q: %w", name, err)
	}
	return Decode(data)
}

// Symbol is a scenario file's wire representation of a tsys.Symbol.
type Symbol struct {
	Name string `json:"name"`
	Sort Sort   `json:"sort"`
}

// Sort is a scenario file's wire representation of a tsys.Sort.
type Sort struct {
	Kind   string   `json:"kind"`
	Ctors  []string `json:"ctors,omitempty"`
	Width  int      `json:"width,omitempty"`
	Theory string   `json:"theory,omitempty"`
}

func (s Sort) toTsys() (tsys.Sort, error) {
	switch s.Kind {
	case "bool", "":
		return tsys.Bool, nil
	case "enum":
		return tsys.Enum(s.Ctors...), nil
	case "bitvec":
		return tsys.BitVec(s.Width), nil
	case "infinite":
		return tsys.Infinite(s.Theory), nil
	default:
		return tsys.Sort{}, fmt.Errorf("scenario: unknown sort kind %q", s.Kind)
	}
}

// Def is a scenario file's wire representation of a tsys.Definition, before
// the defined symbol has been resolved against the file's declared symbols.
type Def struct {
	Sym string                 `json:"sym"`
	Rhs map[string]interface{} `json:"rhs"`
}

type rawTransition struct {
	StVars []Symbol `json:"stvars"`
	Defs   []Def    `json:"defs"`
	// AuxVars declares auxiliary helper symbols ahead of decoding Aux, so
	// definitions may reference each other regardless of listed order.
	AuxVars []Symbol `json:"auxvars"`
	// Aux lists auxiliary combinational definitions that do not bind any
	// state variable's next value — their Sym is taken literally rather
	// than wrapped in tsys.New, unlike Defs.
	Aux   []Def                    `json:"aux"`
	Fmlas []map[string]interface{} `json:"fmlas"`
}

// File is the top-level shape of a scenario YAML document.
type File struct {
	Name      string                 `json:"name"`
	StVars    []Symbol               `json:"stvars"`
	Init      []Def                  `json:"init"`
	Action    rawTransition          `json:"action"`
	Invariant map[string]interface{} `json:"invariant"`
}

type symtab map[string]tsys.Symbol

func buildSymtab(groups ...[]Symbol) (symtab, error) {
	st := make(symtab)
	for _, syms := range groups {
		for _, s := range syms {
			sort, err := s.Sort.toTsys()
			if err != nil {
				return nil, err
			}
			st[s.Name] = tsys.Sym(s.Name, sort)
		}
	}
	return st, nil
}

// Decode parses a scenario YAML document (ghodss/yaml, struct-tag based)
// into a compiler.Module, resolving symbol references and decoding nested
// expression nodes via mapstructure as it walks the tagged-union AST.
func Decode(data []byte) (compiler.Module, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return compiler.Module{}, fmt.Errorf("scenario: %w", err)
	}

	st, err := buildSymtab(f.StVars, f.Action.StVars, f.Action.AuxVars)
	if err != nil {
		return compiler.Module{}, err
	}

	initDefs, err := decodeDefs(f.Init, st, false)
	if err != nil {
		return compiler.Module{}, err
	}
	actionDefs, err := decodeDefs(f.Action.Defs, st, true)
	if err != nil {
		return compiler.Module{}, err
	}
	auxDefs, err := decodeDefs(f.Action.Aux, st, false)
	if err != nil {
		return compiler.Module{}, err
	}
	actionDefs = append(actionDefs, auxDefs...)

	fmlas := make([]tsys.Expr, len(f.Action.Fmlas))
	for i, raw := range f.Action.Fmlas {
		e, err := decodeExpr(raw, st)
		if err != nil {
			return compiler.Module{}, err
		}
		fmlas[i] = e
	}

	var invariant tsys.Expr = tsys.True()
	if f.Invariant != nil {
		invariant, err = decodeExpr(f.Invariant, st)
		if err != nil {
			return compiler.Module{}, err
		}
	}

	actionStVars := make([]tsys.Symbol, len(f.Action.StVars))
	for i, s := range f.Action.StVars {
		actionStVars[i] = st[s.Name]
	}

	return compiler.Module{
		InitDefs:  initDefs,
		ExtTrans:  tsys.Transition{StVars: actionStVars, Defs: actionDefs, Fmlas: fmlas},
		Invariant: invariant,
	}, nil
}

// decodeDefs decodes {sym, rhs} pairs. next distinguishes an action
// relation's definitions (which bind a state variable's *next* value, so
// the defined symbol is tsys.New(sym)) from an initializer's (which bind
// the variable's initial value directly).
func decodeDefs(raws []Def, st symtab, next bool) ([]tsys.Definition, error) {
	out := make([]tsys.Definition, len(raws))
	for i, raw := range raws {
		sym, ok := st[raw.Sym]
		if !ok {
			return nil, fmt.Errorf("scenario: definition references undeclared symbol %q", raw.Sym)
		}
		rhs, err := decodeExpr(raw.Rhs, st)
		if err != nil {
			return nil, err
		}
		defSym := sym
		if next {
			defSym = tsys.New(sym)
		}
		out[i] = tsys.Definition{Sym: defSym, Rhs: rhs}
	}
	return out, nil
}

// exprShape is the common shape mapstructure decodes every expression node
// into before dispatch on Type; node-specific children (arg/args/lhs/rhs/
// cond/then/else) are pulled directly off the raw map since their own
// shape depends on Type.
type exprShape struct {
	Type  string `mapstructure:"type"`
	Sym   string `mapstructure:"sym"`
	Op    string `mapstructure:"op"`
	Value int    `mapstructure:"value"`
	Ctor  string `mapstructure:"ctor"`
	Sort  *Sort  `mapstructure:"sort"`
}

func decodeExpr(node map[string]interface{}, st symtab) (tsys.Expr, error) {
	if node == nil {
		return nil, fmt.Errorf("scenario: missing expression node")
	}
	// An unquoted `type: true` / `type: false` reaches here as a YAML bool.
	if b, ok := node["type"].(bool); ok {
		node["type"] = fmt.Sprint(b)
	}
	var shape exprShape
	if err := mapstructure.Decode(node, &shape); err != nil {
		return nil, fmt.Errorf("scenario: decoding expression node: %w", err)
	}

	switch shape.Type {
	case "true":
		return tsys.True(), nil
	case "false":
		return tsys.False(), nil
	case "atom":
		sym, ok := st[shape.Sym]
		if !ok {
			return nil, fmt.Errorf("scenario: atom references undeclared symbol %q", shape.Sym)
		}
		return tsys.Atom(sym), nil
	case "not":
		arg, err := decodeChild(node, "arg", st)
		if err != nil {
			return nil, err
		}
		return tsys.Not{Arg: arg}, nil
	case "and":
		args, err := decodeChildren(node, "args", st)
		if err != nil {
			return nil, err
		}
		return tsys.And{Args: args}, nil
	case "or":
		args, err := decodeChildren(node, "args", st)
		if err != nil {
			return nil, err
		}
		return tsys.Or{Args: args}, nil
	case "eq":
		lhs, err := decodeChild(node, "lhs", st)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeChild(node, "rhs", st)
		if err != nil {
			return nil, err
		}
		return tsys.Eq{Lhs: lhs, Rhs: rhs}, nil
	case "ite":
		cond, err := decodeChild(node, "cond", st)
		if err != nil {
			return nil, err
		}
		then, err := decodeChild(node, "then", st)
		if err != nil {
			return nil, err
		}
		els, err := decodeChild(node, "else", st)
		if err != nil {
			return nil, err
		}
		return tsys.Ite{Cond: cond, Then: then, Else: els}, nil
	case "app":
		if shape.Sort == nil {
			return nil, fmt.Errorf("scenario: app node missing sort")
		}
		domSort, err := shape.Sort.toTsys()
		if err != nil {
			return nil, err
		}
		args, err := decodeChildren(node, "args", st)
		if err != nil {
			return nil, err
		}
		resSort := domSort
		if shape.Op == "<" {
			resSort = tsys.Bool
		}
		return tsys.App{Sym: tsys.Op(shape.Op, domSort, resSort), Args: args}, nil
	case "numeral":
		if shape.Sort == nil {
			return nil, fmt.Errorf("scenario: numeral node missing sort")
		}
		sort, err := shape.Sort.toTsys()
		if err != nil {
			return nil, err
		}
		return tsys.App{Sym: tsys.Numeral(shape.Value, sort)}, nil
	case "ctor":
		if shape.Sort == nil {
			return nil, fmt.Errorf("scenario: ctor node missing sort")
		}
		sort, err := shape.Sort.toTsys()
		if err != nil {
			return nil, err
		}
		idx := -1
		for i, c := range sort.Ctors {
			if c == shape.Ctor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("scenario: sort %v has no constructor %q", sort, shape.Ctor)
		}
		return tsys.App{Sym: tsys.Ctor(sort, idx)}, nil
	default:
		return nil, fmt.Errorf("scenario: unknown expression node type %q", shape.Type)
	}
}

func decodeChild(node map[string]interface{}, key string, st symtab) (tsys.Expr, error) {
	child, ok := node[key].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("scenario: expected an object at %q", key)
	}
	return decodeExpr(child, st)
}

func decodeChildren(node map[string]interface{}, key string, st symtab) ([]tsys.Expr, error) {
	raw, ok := node[key].([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]tsys.Expr, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("scenario: expected an object in %q[%d]", key, i)
		}
		e, err := decodeExpr(m, st)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
