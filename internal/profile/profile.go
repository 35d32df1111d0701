// Package profile accumulates wall-clock time per operator kind.
//
// A Profiler is created once per run, injected into the CPU backend, reset
// between named phases and read at the end. It is accumulate-only and not
// safe for concurrent use; the engine is single-threaded.
package profile

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Op identifies an operator kind whose time is accumulated.
type Op int

// Operator kinds.
const (
	OpIm2col Op = iota
	OpMatMul
	OpPool
	OpReLU
	OpNorm
	OpOverall

	numOps // keep last
)

// String returns the report label of the operator kind.
func (op Op) String() string {
	switch op {
	case OpIm2col:
		return "im2col"
	case OpMatMul:
		return "matmul"
	case OpPool:
		return "pooling"
	case OpReLU:
		return "relu"
	case OpNorm:
		return "norm"
	case OpOverall:
		return "overall"
	default:
		return "unknown"
	}
}

// Profiler holds one duration counter and one call counter per Op.
//
// All methods are no-ops on a nil *Profiler, so operators can be run
// without instrumentation.
type Profiler struct {
	times [numOps]time.Duration
	calls [numOps]int
	now   func() time.Time
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) {
		p.now = now
	}
}

// New creates a Profiler with all counters at zero.
func New(opts ...Option) *Profiler {
	p := &Profiler{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddTime adds d to the counter of op.
func (p *Profiler) AddTime(op Op, d time.Duration) {
	if p == nil || op < 0 || op >= numOps {
		return
	}
	p.times[op] += d
	p.calls[op]++
}

// Track starts a scoped measurement of op. The returned function stops it
// and adds the elapsed time:
//
//	defer p.Track(profile.OpMatMul)()
func (p *Profiler) Track(op Op) func() {
	if p == nil {
		return func() {}
	}
	start := p.now()
	return func() {
		p.AddTime(op, p.now().Sub(start))
	}
}

// Time returns the accumulated time of op.
func (p *Profiler) Time(op Op) time.Duration {
	if p == nil || op < 0 || op >= numOps {
		return 0
	}
	return p.times[op]
}

// Calls returns how many measurements were added to op.
func (p *Profiler) Calls(op Op) int {
	if p == nil || op < 0 || op >= numOps {
		return 0
	}
	return p.calls[op]
}

// Reset zeroes every counter.
func (p *Profiler) Reset() {
	if p == nil {
		return
	}
	p.times = [numOps]time.Duration{}
	p.calls = [numOps]int{}
}

// Report is a snapshot of the counters in milliseconds.
type Report struct {
	Im2col  float64
	MatMul  float64
	Pool    float64
	ReLU    float64
	Norm    float64
	Others  float64 // Overall minus every measured operator kind.
	Overall float64
}

// Report snapshots the counters.
func (p *Profiler) Report() Report {
	r := Report{
		Im2col:  millis(p.Time(OpIm2col)),
		MatMul:  millis(p.Time(OpMatMul)),
		Pool:    millis(p.Time(OpPool)),
		ReLU:    millis(p.Time(OpReLU)),
		Norm:    millis(p.Time(OpNorm)),
		Overall: millis(p.Time(OpOverall)),
	}
	r.Others = r.Overall - r.Im2col - r.MatMul - r.Pool - r.ReLU - r.Norm
	return r
}

// Print writes the report as "ms, cycles" rows, converting milliseconds
// to cycles with cyclesPerMs.
func (r Report) Print(w io.Writer, cyclesPerMs int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	rows := []struct {
		label string
		ms    float64
	}{
		{OpIm2col.String(), r.Im2col},
		{OpMatMul.String(), r.MatMul},
		{OpPool.String(), r.Pool},
		{OpReLU.String(), r.ReLU},
		{OpNorm.String(), r.Norm},
		{"others", r.Others},
		{OpOverall.String(), r.Overall},
	}

	fmt.Fprintln(tw, "===== Operator Time (ms, cycles) =====")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t: %.3f, %.0f\n", row.label, row.ms, row.ms*float64(cyclesPerMs))
	}
	fmt.Fprintln(tw, "======================================")
	return tw.Flush()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
