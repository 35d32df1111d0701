package tensor

import "github.com/x448/float16"

// RoundToHalf returns a new tensor whose elements are t's elements rounded
// to IEEE 754 binary16 and widened back to T.
//
// Models use it to hold weights at fp16 precision while every operator
// keeps computing in float32 with double accumulation.
func RoundToHalf[T Scalar](t *Tensor[T]) *Tensor[T] {
	out := t.Clone()
	for i, v := range out.data {
		out.data[i] = T(float16.Fromfloat32(float32(v)).Float32())
	}
	return out
}

// ToHalf converts the tensor buffer to packed binary16 values.
func ToHalf[T Scalar](t *Tensor[T]) []float16.Float16 {
	out := make([]float16.Float16, len(t.data))
	for i, v := range t.data {
		out[i] = float16.Fromfloat32(float32(v))
	}
	return out
}

// FromHalf builds a tensor from packed binary16 values.
func FromHalf[T Scalar](data []float16.Float16, shape Shape) (*Tensor[T], error) {
	wide := make([]T, len(data))
	for i, h := range data {
		wide[i] = T(h.Float32())
	}
	return FromSlice(wide, shape)
}
