// Command tscheck compiles a transition-system module to AIGER, drives an
// external hardware model checker over it, and lifts any counterexample
// back to source-vocabulary states.
package main

import (
	"errors"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tscheck/tscheck/encode"
	"github.com/tscheck/tscheck/mcadapter"
	"github.com/tscheck/tscheck/trace"
	"github.com/tscheck/tscheck/tsys"
)

// Exit codes. 0/1 are the proved/disproved contract; everything past that
// is "a raised error" split by kind, so scripting against tscheck can tell
// an environment/input problem from an internal bug without scraping logs.
const (
	exitProved      = 0
	exitDisproved   = 1
	exitError       = 2
	exitInternalBug = 3
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "tscheck",
		Short: "tscheck",
		Long:  "tscheck compiles, checks, and lifts counterexamples for first-order transition systems.",

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "use debug log level")

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newTraceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitForError(err))
	}
}

// exitForError unwraps err with errors.As to classify it and logs
// accordingly: errDisproved is a normal outcome of check and gets an Info
// line, a DefinitionDependencyError means C3/C4 produced something the
// encoder could never have satisfied (an internal bug, not a user mistake)
// and is logged at Error with its full %+v stack trace, and the remaining
// typed fatal kinds from spec.md §7 get a one-line Error with their
// diagnostic fields attached.
func exitForError(err error) int {
	if errors.Is(err, errDisproved) {
		log.Info("tscheck: property disproved")
		return exitDisproved
	}

	var depErr encode.DefinitionDependencyError
	if errors.As(err, &depErr) {
		log.Errorf("tscheck: internal error: %+v", pkgerrors.WithStack(err))
		return exitInternalBug
	}

	var sortErr tsys.UnsupportedSortError
	var witErr trace.MalformedWitnessError
	var toolErr mcadapter.ExternalToolError
	switch {
	case errors.As(err, &sortErr):
		log.WithField("sort", sortErr.Sort).Error(err)
	case errors.As(err, &witErr):
		log.WithField("reason", witErr.Reason).Error(err)
	case errors.As(err, &toolErr):
		log.WithField("cmd", strings.Join(toolErr.Cmd, " ")).Error(err)
	default:
		log.Error(err)
	}
	return exitError
}
