package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tscheck/tscheck/compiler"
	"github.com/tscheck/tscheck/netlist"
)

func newCompileCmd() *cobra.Command {
	var (
		out         string
		bogusInput  bool
		watch       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "compile <scenario-or-file>",
		Short: "Compile a module to AIGER",
		Long: `compile runs a module through abstraction and encoding and writes the
resulting AIGER ascii text to --out (or stdout). <scenario-or-file> is either
one of the built-in fixture names or a path to a scenario YAML file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []netlist.Option
			if bogusInput {
				opts = append(opts, netlist.WithBogusInput())
			}

			var drv compiler.Compiler = compiler.New(opts...)
			if metricsAddr != "" {
				compiler.Register()
				drv = compiler.NewInstrumented(drv)
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				go func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						log.Errorf("compile: metrics server exited: %v", err)
					}
				}()
				log.Infof("compile: serving metrics on %s/metrics", metricsAddr)
			}

			runOnce := func() error {
				return compileOnce(drv, args[0], out)
			}

			if !watch {
				return runOnce()
			}
			return watchAndCompile(args[0], runOnce)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write AIGER text here instead of stdout")
	cmd.Flags().BoolVar(&bogusInput, "bogus-input", false, "add the ABC-workaround leading input bit (default off: compile doesn't know which model checker will read its output; pass --bogus-input if it's headed for ABC)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompile whenever the scenario file changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus compile metrics on this address (e.g. :9091)")

	return cmd
}

func compileOnce(drv compiler.Compiler, arg, out string) error {
	mod, err := resolveModule(arg)
	if err != nil {
		return err
	}
	res, err := drv.Compile(mod)
	if err != nil {
		return fmt.Errorf("tscheck: compile: %w", err)
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("tscheck: opening --out: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := fmt.Fprint(w, res.Aiger); err != nil {
		return fmt.Errorf("tscheck: writing AIGER text: %w", err)
	}
	log.WithFields(log.Fields{
		"inputs":  res.Encoder.Netlist().NumInputs(),
		"latches": res.Encoder.Netlist().NumLatches(),
		"gates":   res.Encoder.Netlist().NumGates(),
	}).Info("compile: done")
	return nil
}

// watchAndCompile re-runs runOnce on every write to the scenario file at
// arg, debouncing bursts of events (editors commonly emit several writes per
// save) with a token-bucket limiter rather than a fixed sleep.
func watchAndCompile(arg string, runOnce func() error) error {
	if err := runOnce(); err != nil {
		log.Errorf("compile: %v", err)
	}

	if _, err := os.Stat(arg); err != nil {
		return fmt.Errorf("tscheck: --watch requires %q to be a file on disk, not a built-in scenario", arg)
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tscheck: starting watcher: %w", err)
	}
	defer notify.Close()

	dir := filepath.Dir(arg)
	if err := notify.Add(dir); err != nil {
		return fmt.Errorf("tscheck: watching %s: %w", dir, err)
	}

	limiter := rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	target := filepath.Clean(arg)

	for {
		select {
		case event, ok := <-notify.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !limiter.Allow() {
				continue
			}
			log.Debugf("compile: %s changed, recompiling", event.Name)
			if err := runOnce(); err != nil {
				log.Errorf("compile: %v", err)
			}
		case err, ok := <-notify.Errors:
			if !ok {
				return nil
			}
			log.Warnf("compile: watcher error: %v", err)
		}
	}
}
