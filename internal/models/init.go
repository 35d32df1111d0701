// Package models assembles the engine's primitives into fixed network
// topologies: ResNet50, MobileNetV2, BERT and DeiT-Tiny.
//
// Models own their weights. Nothing is loaded from disk; an Initializer
// fills every tensor deterministically from a seed so forward passes are
// reproducible and exercise real arithmetic.
package models

import (
	"math/rand"

	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// Initializer produces model parameters.
//
// Weights are Xavier-uniform from a math/rand source seeded with Seed.
// Biases are zero and normalization layers start as the identity. With
// HalfWeights set, every weight is rounded to fp16 precision.
type Initializer struct {
	Seed        int64
	HalfWeights bool

	rng *rand.Rand
}

// NewInitializer creates an Initializer seeded with seed.
func NewInitializer(seed int64, halfWeights bool) *Initializer {
	return &Initializer{
		Seed:        seed,
		HalfWeights: halfWeights,
		rng:         rand.New(rand.NewSource(seed)), //nolint:gosec // weight init, not security-critical
	}
}

// Weight returns a Xavier-initialized tensor of the given shape.
func (in *Initializer) Weight(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor[float32] {
	if in.rng == nil {
		in.rng = rand.New(rand.NewSource(in.Seed)) //nolint:gosec // weight init, not security-critical
	}
	w := nn.Xavier(in.rng, fanIn, fanOut, shape)
	if in.HalfWeights {
		w = tensor.RoundToHalf(w)
	}
	return w
}

// Conv returns a [out, in, k, k] convolution kernel.
func (in *Initializer) Conv(outCh, inCh, k int) *tensor.Tensor[float32] {
	return in.Weight(inCh*k*k, outCh*k*k, tensor.Shape{outCh, inCh, k, k})
}

// Depthwise returns a [channels, 1, k, k] depthwise kernel.
func (in *Initializer) Depthwise(channels, k int) *tensor.Tensor[float32] {
	return in.Weight(k*k, k*k, tensor.Shape{channels, 1, k, k})
}

// Square returns a [n, n] projection matrix.
func (in *Initializer) Square(n int) *tensor.Tensor[float32] {
	return in.Weight(n, n, tensor.Shape{n, n})
}

// Linear returns a fully connected layer with zero bias.
func (in *Initializer) Linear(inFeatures, outFeatures int) nn.LinearParams {
	return nn.LinearParams{
		Weight: in.Weight(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}),
		Bias:   make([]float32, outFeatures),
	}
}

// BatchNorm returns identity batch normalization statistics.
func (in *Initializer) BatchNorm(channels int) cpu.BatchNormParams {
	return cpu.IdentityBatchNorm(channels)
}

// LayerNorm returns an identity layer normalization.
func (in *Initializer) LayerNorm(dim int) cpu.LayerNormParams {
	return cpu.IdentityLayerNorm(dim)
}
