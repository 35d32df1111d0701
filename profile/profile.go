// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package profile accumulates wall-clock time per operator kind.
//
// Example:
//
//	prof := profile.New()
//	backend := cpu.New(cpu.WithProfiler(prof))
//	// ... run a model ...
//	_ = prof.Report().Print(os.Stdout, 80000)
package profile

import "github.com/cpuinfer/cpuinfer/internal/profile"

// Profiler holds one duration counter per operator kind.
type Profiler = profile.Profiler

// Op identifies an operator kind.
type Op = profile.Op

// Report is a snapshot of the counters in milliseconds.
type Report = profile.Report

// Option configures a Profiler.
type Option = profile.Option

// Operator kinds.
const (
	OpIm2col  = profile.OpIm2col
	OpMatMul  = profile.OpMatMul
	OpPool    = profile.OpPool
	OpReLU    = profile.OpReLU
	OpNorm    = profile.OpNorm
	OpOverall = profile.OpOverall
)

// New creates a Profiler with all counters at zero.
func New(opts ...Option) *Profiler {
	return profile.New(opts...)
}

// WithClock replaces time.Now, for deterministic tests.
var WithClock = profile.WithClock
