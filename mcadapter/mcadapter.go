// Package mcadapter invokes an external hardware model checker over a
// compiled AIGER netlist and classifies its output, grounded on
// ivy_mc.py's ABCModelChecker/check_isolate.
package mcadapter

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ExternalToolError wraps a failure launching or running the external model
// checker process — spec.md §7's "External tool error" fatal error kind.
type ExternalToolError struct {
	Cmd    []string
	Reason string
}

func (e ExternalToolError) Error() string {
	return "mcadapter: " + e.Reason + ": " + joinCmd(e.Cmd)
}

func joinCmd(cmd []string) string {
	var b bytes.Buffer
	for i, c := range cmd {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c)
	}
	return b.String()
}

// ModelChecker adapts one external model-checking tool: how to invoke it
// over an AIGER file pair, and how to tell a proof from a disproof in its
// stdout.
type ModelChecker interface {
	// Command returns the argv for invoking the tool against aigPath,
	// writing any counterexample witness to outPath.
	Command(aigPath, outPath string) []string
	// Scrape reports whether stdout indicates the property was proved.
	Scrape(stdout string) bool
}

// ABCModelChecker targets the ABC logic synthesis/verification tool's PDR
// engine: `abc -c "read_aiger <in>; pdr; write_aiger_cex <out>"`, and looks
// for the substring "Property proved" in its output.
type ABCModelChecker struct{}

func (ABCModelChecker) Command(aigPath, outPath string) []string {
	return []string{"abc", "-c", "read_aiger " + aigPath + "; pdr; write_aiger_cex " + outPath}
}

func (ABCModelChecker) Scrape(stdout string) bool {
	return bytes.Contains([]byte(stdout), []byte("Property proved"))
}

// Outcome is the result of running a model checker to completion.
type Outcome struct {
	Proved  bool
	Stdout  string
	WitPath string
}

// Run invokes mc over aigPath, writing any witness to a temp file it
// creates (and that the caller owns — Run does not remove it, since a
// disproof outcome needs the witness read afterward by the trace package;
// the caller should remove it once done). Stdout is drained concurrently
// with waiting for the process to exit, matching the original's chunked
// `stdout.read(256)` loop paired with `p.wait()` — two decoupled operations
// run as one errgroup so a model checker that blocks on a full pipe buffer
// while the caller is still waiting for exit can never deadlock this call.
func Run(ctx context.Context, mc ModelChecker, aigPath string) (Outcome, error) {
	outFile, err := os.CreateTemp("", "tscheck-*.out")
	if err != nil {
		return Outcome{}, errors.Wrap(err, "mcadapter: creating witness output file")
	}
	outPath := outFile.Name()
	outFile.Close()

	cmd := mc.Command(aigPath, outPath)
	log.WithField("cmd", cmd).Debug("mcadapter: invoking model checker")

	proc := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return Outcome{}, ExternalToolError{Cmd: cmd, Reason: "failed to attach stdout pipe"}
	}
	if err := proc.Start(); err != nil {
		return Outcome{}, ExternalToolError{Cmd: cmd, Reason: "failed to run model checker"}
	}

	var buf bytes.Buffer
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		chunk := make([]byte, 256)
		for {
			n, rerr := stdout.Read(chunk)
			if n > 0 {
				buf.Write(chunk[:n])
			}
			if rerr != nil {
				return nil
			}
		}
	})
	g.Go(proc.Wait)

	if err := g.Wait(); err != nil {
		return Outcome{}, ExternalToolError{Cmd: cmd, Reason: "model checker returned non-zero status"}
	}

	alltext := buf.String()
	log.WithField("stdout_bytes", len(alltext)).Trace("mcadapter: model checker finished")

	return Outcome{
		Proved:  mc.Scrape(alltext),
		Stdout:  alltext,
		WitPath: outPath,
	}, nil
}
