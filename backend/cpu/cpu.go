// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/profile"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Option configures a Backend.
type Option = internalcpu.Option

// Operator params.
type (
	Conv2DParams    = internalcpu.Conv2DParams
	Pool2DParams    = internalcpu.Pool2DParams
	BatchNormParams = internalcpu.BatchNormParams
	LayerNormParams = internalcpu.LayerNormParams
)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New(cpu.WithProfiler(profile.New()))
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithProfiler routes operator timings to p.
func WithProfiler(p *profile.Profiler) Option {
	return internalcpu.WithProfiler(p)
}

// Same returns convolution params with equal stride and padding on both axes.
func Same(stride, pad int) Conv2DParams {
	return internalcpu.Same(stride, pad)
}

// Window returns square pooling params.
func Window(kernel, stride, pad int) Pool2DParams {
	return internalcpu.Window(kernel, stride, pad)
}
