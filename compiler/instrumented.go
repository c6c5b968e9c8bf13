package compiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Compiler is the interface InstrumentedDriver wraps — satisfied by *Driver,
// and by test doubles.
type Compiler interface {
	Compile(Module) (Result, error)
}

var _ Compiler = &Driver{}

var (
	compileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tscheck_compile_duration_seconds",
			Help: "Time to compile a module to AIGER.",
		},
	)

	compileGateCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tscheck_compile_gate_count",
			Help:    "Number of AND gates in the compiled netlist.",
			Buckets: prometheus.ExponentialBuckets(8, 4, 10),
		},
	)

	compileFailureCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tscheck_compile_failure_count",
			Help: "Monotonic count of compilations that errored before producing AIGER text.",
		},
	)
)

// Register registers tscheck's compiler metrics with the default Prometheus
// registry. Callers that expose their own registry should register these
// collectors themselves instead.
func Register() {
	prometheus.MustRegister(compileDuration)
	prometheus.MustRegister(compileGateCount)
	prometheus.MustRegister(compileFailureCount)
}

// InstrumentedDriver decorates a Compiler with compile-duration and
// gate-count metrics, mirroring the teacher's InstrumentedResolver pattern:
// a thin wrapper around the same interface it implements, timing the
// delegate call and recording outcome-dependent metrics.
type InstrumentedDriver struct {
	inner Compiler
}

var _ Compiler = &InstrumentedDriver{}

// NewInstrumented wraps inner with metrics recording.
func NewInstrumented(inner Compiler) *InstrumentedDriver {
	return &InstrumentedDriver{inner: inner}
}

func (id *InstrumentedDriver) Compile(mod Module) (Result, error) {
	start := time.Now()
	res, err := id.inner.Compile(mod)
	compileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		compileFailureCount.Inc()
		return res, err
	}
	compileGateCount.Observe(float64(res.Encoder.Netlist().NumGates()))
	return res, nil
}
