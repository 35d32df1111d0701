package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
// An empty shape has no elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape is non-empty and every dimension is > 0.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return ErrEmptyShape
	}
	for i, dim := range s {
		if dim <= 0 {
			return errors.Wrapf(ErrInvalidDimension, "index %d: %d", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// As4D views the shape as exactly four dimensions [d0, d1, d2, d3].
//
// Shapes of rank < 4 are padded with trailing 1s, so a [rows, cols] matrix
// becomes [rows, cols, 1, 1]. Shapes of rank > 4 fold their leading rank-3
// dimensions into d0. The dimensions are always read from the shape itself,
// never from fixed positions, so tensors of every rank share one addressing
// law.
func (s Shape) As4D() [4]int {
	dims := [4]int{1, 1, 1, 1}
	switch {
	case len(s) <= 4:
		copy(dims[:], s)
	default:
		lead := len(s) - 3
		for _, d := range s[:lead] {
			dims[0] *= d
		}
		copy(dims[1:], s[lead:])
	}
	return dims
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}
