// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the single-threaded CPU compute engine.
//
// # Overview
//
// Every operator is a method on Backend that takes tensors plus a params
// aggregate and returns a newly allocated tensor:
//   - Gemm / MatMul: dense matmul with float64 accumulation
//   - Im2Col, Conv2D, DepthwiseConv2D: convolution as GEMM
//   - MaxPool2D, AvgPool2D, GlobalAvgPool2D
//   - BatchNorm2D, LayerNorm, ReLU, ReLU6, Softmax, Add
//
// # Basic Usage
//
//	prof := profile.New()
//	backend := cpu.New(cpu.WithProfiler(prof))
//
//	y := backend.Conv2D(x, w, bias, cpu.Same(1, 1))
//	y = backend.ReLU(y)
//
// # Profiling
//
// With a Profiler attached, each primitive adds its wall time to the
// matching counter (im2col, matmul, pooling, relu, norm). Without one,
// operators run uninstrumented.
package cpu
