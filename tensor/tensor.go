// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/x448/float16"
)

// Scalar is the element type constraint: float32 or float64.
type Scalar = tensor.Scalar

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense N-dimensional array with a row-major buffer.
type Tensor[T Scalar] = tensor.Tensor[T]

// Construction errors.
var (
	ErrEmptyShape       = tensor.ErrEmptyShape
	ErrInvalidDimension = tensor.ErrInvalidDimension
	ErrSizeMismatch     = tensor.ErrSizeMismatch
)

// New creates a zero-filled tensor with the given shape.
func New[T Scalar](shape Shape) (*Tensor[T], error) {
	return tensor.New[T](shape)
}

// MustNew is like New but panics on an invalid shape.
func MustNew[T Scalar](shape Shape) *Tensor[T] {
	return tensor.MustNew[T](shape)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T Scalar](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// Empty returns a tensor with no shape and no buffer.
func Empty[T Scalar]() *Tensor[T] {
	return tensor.Empty[T]()
}

// RoundToHalf returns a copy of t rounded to binary16 precision.
func RoundToHalf[T Scalar](t *Tensor[T]) *Tensor[T] {
	return tensor.RoundToHalf(t)
}

// ToHalf converts the tensor buffer to packed binary16 values.
func ToHalf[T Scalar](t *Tensor[T]) []float16.Float16 {
	return tensor.ToHalf(t)
}

// FromHalf builds a tensor from packed binary16 values.
func FromHalf[T Scalar](data []float16.Float16, shape Shape) (*Tensor[T], error) {
	return tensor.FromHalf[T](data, shape)
}
