package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tensor is a dense N-dimensional array with a contiguous row-major buffer.
//
// The shape is fixed at construction. There is no in-place reshape:
// reinterpreting the same elements under another shape produces a new
// Tensor (see Reshaped). Tensors are never shared between operators; an
// operator that needs to mutate its input works on a Clone.
//
// Example:
//
//	x := tensor.MustNew[float32](tensor.Shape{1, 3, 224, 224})
//	x.Set4(1.0, 0, 2, 10, 10)
//	y := x.Clone()
type Tensor[T Scalar] struct {
	shape Shape
	data  []T
}

// Empty returns a tensor with no shape and no buffer.
func Empty[T Scalar]() *Tensor[T] {
	return &Tensor[T]{}
}

// New creates a zero-filled tensor with the given shape.
//
// Returns ErrEmptyShape if shape has no dimensions and ErrInvalidDimension
// if any dimension is not positive.
func New[T Scalar](shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(err, "new tensor %v", []int(shape))
	}
	return &Tensor[T]{
		shape: shape.Clone(),
		data:  make([]T, shape.NumElements()),
	}, nil
}

// MustNew is like New but panics on an invalid shape.
// Operators use it for shapes derived from already-valid inputs.
func MustNew[T Scalar](shape Shape) *Tensor[T] {
	t, err := New[T](shape)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Scalar](data []T, shape Shape) (*Tensor[T], error) {
	t, err := New[T](shape)
	if err != nil {
		return nil, err
	}
	if len(data) != len(t.data) {
		return nil, errors.Wrapf(ErrSizeMismatch, "shape %v requires %d elements, got %d",
			[]int(shape), len(t.data), len(data))
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape.Clone()
}

// Dim returns the size of dimension i.
func (t *Tensor[T]) Dim(i int) int {
	return t.shape[i]
}

// Rank returns the number of dimensions.
func (t *Tensor[T]) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return len(t.data)
}

// IsEmpty reports whether the tensor was created without a shape.
func (t *Tensor[T]) IsEmpty() bool {
	return len(t.shape) == 0
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return inferDataType[T]()
}

// Data returns the backing buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// At returns the element at flat index i.
func (t *Tensor[T]) At(i int) T {
	return t.data[i]
}

// Set stores v at flat index i.
func (t *Tensor[T]) Set(i int, v T) {
	t.data[i] = v
}

// Offset4 returns the linear offset of (n, c, h, w) under the tensor's
// four-dimensional view (see Shape.As4D):
//
//	offset = ((n*d1 + c)*d2 + h)*d3 + w
//
// Logically 2D and 3D tensors are addressed by passing 0 for the unused
// trailing indices, e.g. Offset4(row, col, 0, 0) on a [rows, cols] matrix.
// Indices are not bounds-checked beyond the buffer access itself.
func (t *Tensor[T]) Offset4(n, c, h, w int) int {
	d := t.shape.As4D()
	return ((n*d[1]+c)*d[2]+h)*d[3] + w
}

// At4 returns the element at (n, c, h, w).
func (t *Tensor[T]) At4(n, c, h, w int) T {
	return t.data[t.Offset4(n, c, h, w)]
}

// Set4 stores v at (n, c, h, w).
func (t *Tensor[T]) Set4(v T, n, c, h, w int) {
	t.data[t.Offset4(n, c, h, w)] = v
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &Tensor[T]{
		shape: t.shape.Clone(),
		data:  data,
	}
}

// Reshaped returns a new tensor holding a copy of t's elements under shape.
// The element count must match.
func (t *Tensor[T]) Reshaped(shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(err, "reshape %v", []int(shape))
	}
	if shape.NumElements() != len(t.data) {
		return nil, errors.Wrapf(ErrSizeMismatch, "reshape %v to %v", []int(t.shape), []int(shape))
	}
	return FromSlice(t.data, shape)
}

// MustReshaped is like Reshaped but panics on mismatch.
func (t *Tensor[T]) MustReshaped(shape Shape) *Tensor[T] {
	r, err := t.Reshaped(shape)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	if t.IsEmpty() {
		return fmt.Sprintf("Tensor[%s]<empty>", t.DType())
	}
	return fmt.Sprintf("Tensor[%s]%v", t.DType(), []int(t.shape))
}
