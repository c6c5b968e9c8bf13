package main

import (
	"fmt"
	"os"

	"github.com/tscheck/tscheck/compiler"
	"github.com/tscheck/tscheck/scenario"
)

// resolveModule loads a compiler.Module from a scenario argument that is
// either one of scenario.Names (a built-in fixture) or a path to a YAML file
// on disk, so every subcommand accepts the same argument shape.
func resolveModule(arg string) (compiler.Module, error) {
	for _, name := range scenario.Names {
		if arg == name {
			return scenario.Load(name)
		}
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return compiler.Module{}, fmt.Errorf("tscheck: %q is neither a built-in scenario nor a readable file: %w", arg, err)
	}
	return scenario.Decode(data)
}
