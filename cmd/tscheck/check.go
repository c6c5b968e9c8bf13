package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tscheck/tscheck/compiler"
	"github.com/tscheck/tscheck/mcadapter"
	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/trace"
)

// errDisproved is returned by check's RunE once it has finished rendering a
// counterexample trace, so main can tell "ran fine, property is false" (exit
// 1) apart from "something broke" (exit 2) without treating a disproved
// property as a logged error.
var errDisproved = errors.New("tscheck: property disproved")

func newCheckCmd() *cobra.Command {
	var (
		bogusInput  bool
		timeout     time.Duration
		keepWitness string
		jsonTrace   bool
	)

	cmd := &cobra.Command{
		Use:   "check <scenario-or-file>",
		Short: "Compile a module and run it through an external model checker",
		Long: `check compiles a module to AIGER, invokes ABC's PDR engine against it,
and if the invariant does not hold lifts the returned witness back to
source-vocabulary states.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := resolveModule(args[0])
			if err != nil {
				return err
			}

			var opts []netlist.Option
			if bogusInput {
				opts = append(opts, netlist.WithBogusInput())
			}
			drv := compiler.New(opts...)
			res, err := drv.Compile(mod)
			if err != nil {
				return fmt.Errorf("tscheck: compile: %w", err)
			}

			aigFile, err := os.CreateTemp("", "tscheck-*.aag")
			if err != nil {
				return fmt.Errorf("tscheck: writing temporary AIGER file: %w", err)
			}
			defer os.Remove(aigFile.Name())
			if _, err := aigFile.WriteString(res.Aiger); err != nil {
				return fmt.Errorf("tscheck: writing temporary AIGER file: %w", err)
			}
			if err := aigFile.Close(); err != nil {
				return err
			}

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			outcome, err := mcadapter.Run(ctx, mcadapter.ABCModelChecker{}, aigFile.Name())
			if err != nil {
				return err
			}
			defer func() {
				if keepWitness == "" {
					os.Remove(outcome.WitPath)
				}
			}()

			if outcome.Proved {
				fmt.Println("proved")
				return nil
			}

			fmt.Println("violated")
			wit, err := os.Open(outcome.WitPath)
			if err != nil {
				return fmt.Errorf("tscheck: opening witness: %w", err)
			}
			defer wit.Close()

			tr, err := trace.Parse(wit, res.Latches, res.Encoder)
			if err != nil {
				log.Warnf("check: could not lift witness: %v", err)
				return errDisproved
			}

			if keepWitness != "" {
				if err := copyFile(outcome.WitPath, keepWitness); err != nil {
					log.Warnf("check: could not keep witness: %v", err)
				}
			}

			if jsonTrace {
				b, err := tr.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return errDisproved
			}
			if err := tr.Text(os.Stdout); err != nil {
				return err
			}
			return errDisproved
		},
	}

	cmd.Flags().BoolVar(&bogusInput, "bogus-input", true, "add the ABC-workaround leading input bit (on by default: ABC's AIGER reader needs it)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "kill the model checker after this long (0 disables)")
	cmd.Flags().StringVar(&keepWitness, "keep-witness", "", "save the raw witness file here for later `tscheck trace`")
	cmd.Flags().BoolVar(&jsonTrace, "json", false, "render a violating trace as JSON instead of text")

	return cmd
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
