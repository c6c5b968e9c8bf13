package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/tscheck/tscheck/compiler"
	"github.com/tscheck/tscheck/netlist"
	"github.com/tscheck/tscheck/trace"
)

func newTraceCmd() *cobra.Command {
	var (
		bogusInput bool
		query      string
	)

	cmd := &cobra.Command{
		Use:   "trace <witness-file> <scenario-or-file>",
		Short: "Lift a saved witness file back to source-vocabulary states",
		Long: `trace re-compiles <scenario-or-file> to recover its latch layout and
encoder, then lifts <witness-file> (as saved by "tscheck check --keep-witness")
into a sequence of states. With --query, the lifted trace is piped through a
jq filter instead of being printed as plain text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			witPath, scenarioArg := args[0], args[1]

			mod, err := resolveModule(scenarioArg)
			if err != nil {
				return err
			}

			var opts []netlist.Option
			if bogusInput {
				opts = append(opts, netlist.WithBogusInput())
			}
			res, err := compiler.New(opts...).Compile(mod)
			if err != nil {
				return fmt.Errorf("tscheck: compile: %w", err)
			}

			wit, err := os.Open(witPath)
			if err != nil {
				return fmt.Errorf("tscheck: opening witness: %w", err)
			}
			defer wit.Close()

			tr, err := trace.Parse(wit, res.Latches, res.Encoder)
			if err != nil {
				return err
			}

			if query == "" {
				return tr.Text(os.Stdout)
			}
			return runJQ(query, tr)
		},
	}

	cmd.Flags().BoolVar(&bogusInput, "bogus-input", false, "add the ABC-workaround leading input bit (must match whatever the original compile/check used)")
	cmd.Flags().StringVar(&query, "query", "", "a jq filter applied to the trace's JSON rendering, e.g. '.[0]'")

	return cmd
}

func runJQ(query string, tr *trace.Trace) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("tscheck: parsing --query: %w", err)
	}

	raw, err := tr.JSON()
	if err != nil {
		return err
	}
	var input interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	iter := parsed.Run(input)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("tscheck: --query: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}
