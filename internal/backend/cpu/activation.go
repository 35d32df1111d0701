package cpu

import (
	"fmt"
	"math"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// ReLU returns max(0, x) elementwise. The input is cloned, never mutated.
func (cpu *CPUBackend) ReLU(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpReLU)()

	output := input.Clone()
	data := output.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return output
}

// ReLU6 returns min(max(0, x), 6) elementwise.
func (cpu *CPUBackend) ReLU6(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpReLU)()

	output := input.Clone()
	data := output.Data()
	for i, v := range data {
		switch {
		case v < 0:
			data[i] = 0
		case v > 6:
			data[i] = 6
		}
	}
	return output
}

// SoftmaxRows applies a numerically stable softmax to each length-cols row
// of data in place. The row max is subtracted before exponentiating and the
// exponent sum is accumulated in float64.
func SoftmaxRows[T tensor.Scalar](data []T, cols int) {
	for off := 0; off+cols <= len(data); off += cols {
		row := data[off : off+cols]
		m := math.Inf(-1)
		for _, v := range row {
			m = math.Max(m, float64(v))
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v) - m)
		}
		for i, v := range row {
			row[i] = T(math.Exp(float64(v)-m) / sum)
		}
	}
}

// Softmax computes a row-wise softmax over a [N, C] tensor.
func (cpu *CPUBackend) Softmax(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if input.Rank() != 2 {
		panic(fmt.Sprintf("softmax: expected 2D input [N,C], got %dD", input.Rank()))
	}
	output := input.Clone()
	SoftmaxRows(output.Data(), input.Dim(1))
	return output
}

// Add returns a + b elementwise. Shapes must match exactly.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("add: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	output := a.Clone()
	dst := output.Data()
	for i, v := range b.Data() {
		dst[i] += v
	}
	return output
}
