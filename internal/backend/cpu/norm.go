package cpu

import (
	"fmt"
	"math"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// BatchNormParams holds per-channel inference statistics and the affine
// transform of a batch normalization layer.
type BatchNormParams struct {
	Gamma []float32
	Beta  []float32
	Mean  []float32
	Var   []float32
	Eps   float32
}

// IdentityBatchNorm returns params that leave the input unchanged up to
// eps: gamma 1, beta 0, mean 0, var 1.
func IdentityBatchNorm(channels int) BatchNormParams {
	p := BatchNormParams{
		Gamma: make([]float32, channels),
		Beta:  make([]float32, channels),
		Mean:  make([]float32, channels),
		Var:   make([]float32, channels),
		Eps:   1e-5,
	}
	for c := 0; c < channels; c++ {
		p.Gamma[c] = 1
		p.Var[c] = 1
	}
	return p
}

// BatchNorm2D applies inference-mode batch normalization to [N, C, H, W]:
//
//	y = gamma[c] * (x - mean[c]) / sqrt(var[c] + eps) + beta[c]
func (cpu *CPUBackend) BatchNorm2D(input *tensor.Tensor[float32], p BatchNormParams) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpNorm)()

	if input.Rank() != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", input.Rank()))
	}
	N, C := input.Dim(0), input.Dim(1)
	spatial := input.Dim(2) * input.Dim(3)

	output := tensor.MustNew[float32](input.Shape())
	src := input.Data()
	dst := output.Data()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			scale := p.Gamma[c] / float32(math.Sqrt(float64(p.Var[c]+p.Eps)))
			shift := p.Beta[c] - p.Mean[c]*scale
			off := (n*C + c) * spatial
			for i := off; i < off+spatial; i++ {
				dst[i] = src[i]*scale + shift
			}
		}
	}

	return output
}

// LayerNormParams holds the affine transform of a layer normalization.
type LayerNormParams struct {
	Gamma []float32
	Beta  []float32
	Eps   float32
}

// IdentityLayerNorm returns params with gamma 1, beta 0 and eps 1e-5.
func IdentityLayerNorm(dim int) LayerNormParams {
	p := LayerNormParams{
		Gamma: make([]float32, dim),
		Beta:  make([]float32, dim),
		Eps:   1e-5,
	}
	for i := range p.Gamma {
		p.Gamma[i] = 1
	}
	return p
}

// LayerNorm normalizes over the last dimension of input.
//
// Shapes:
//   - input: [..., d]
//   - output: [..., d]
//
// Mean and E[x^2] are accumulated in float64; var = E[x^2] - mean^2.
func (cpu *CPUBackend) LayerNorm(input *tensor.Tensor[float32], p LayerNormParams) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpNorm)()

	d := input.Dim(input.Rank() - 1)
	output := tensor.MustNew[float32](input.Shape())
	src := input.Data()
	dst := output.Data()

	for off := 0; off < len(src); off += d {
		row := src[off : off+d]
		var sum, sumSq float64
		for _, v := range row {
			sum += float64(v)
			sumSq += float64(v) * float64(v)
		}
		mean := sum / float64(d)
		variance := sumSq/float64(d) - mean*mean
		inv := 1.0 / math.Sqrt(variance+float64(p.Eps))

		out := dst[off : off+d]
		for i, v := range row {
			xhat := float32((float64(v) - mean) * inv)
			out[i] = p.Gamma[i]*xhat + p.Beta[i]
		}
	}

	return output
}
