package nn

import (
	"math"
	"math/rand"

	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Values come from rng so that a seed reproduces the same model.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor[float32] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.MustNew[float32](shape)
	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Ones returns a slice of n ones (normalization gammas and variances).
func Ones(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
