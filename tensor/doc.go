// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensor container of the cpuinfer engine.
//
// # Overview
//
// A Tensor[T] owns a contiguous row-major buffer and an immutable shape:
//   - T is float32 or float64
//   - every dimension is positive; the buffer length is the shape product
//   - operators never alias their inputs; they return new tensors
//
// # Basic Usage
//
//	x, err := tensor.New[float32](tensor.Shape{1, 3, 224, 224})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x.Set4(0.5, 0, 2, 10, 10)
//
// # Four-dimensional addressing
//
// At4/Set4/Offset4 view any tensor as [d0, d1, d2, d3]. Shapes of rank
// below four are padded with trailing ones, so a [rows, cols] matrix is
// addressed as At4(row, col, 0, 0). Higher ranks fold their leading
// dimensions into d0.
//
// # Half precision
//
// RoundToHalf, ToHalf and FromHalf convert between float buffers and
// IEEE 754 binary16.
package tensor
