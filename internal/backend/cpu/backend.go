// Package cpu implements the single-threaded CPU compute engine: the GEMM
// kernel, im2col, convolution, pooling, normalization and activations.
package cpu

import (
	"github.com/cpuinfer/cpuinfer/internal/profile"
)

// CPUBackend runs operators on the CPU and reports their time to an
// optional Profiler.
//
// A CPUBackend holds no tensor state; every operator allocates and returns
// a new output and never mutates its inputs.
type CPUBackend struct {
	prof *profile.Profiler
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithProfiler routes operator timings to p.
func WithProfiler(p *profile.Profiler) Option {
	return func(cpu *CPUBackend) {
		cpu.prof = p
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Profiler returns the profiler operators report to (may be nil).
func (cpu *CPUBackend) Profiler() *profile.Profiler {
	return cpu.prof
}
