// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/cpuinfer/cpuinfer/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/tensor"
)

// Layer params.
type (
	AttentionParams   = nn.AttentionParams
	LinearParams      = nn.LinearParams
	FeedForwardParams = nn.FeedForwardParams
	EmbeddingParams   = nn.EmbeddingParams
	PatchEmbedParams  = nn.PatchEmbedParams
)

// Domain errors.
var (
	ErrIndexOutOfRange = nn.ErrIndexOutOfRange
	ErrHeadCount       = nn.ErrHeadCount
	ErrShape           = nn.ErrShape
)

// MultiHeadSelfAttention computes [batch, seq, hidden] -> [batch, seq, hidden].
func MultiHeadSelfAttention(b *cpu.Backend, x *tensor.Tensor[float32], p AttentionParams) (*tensor.Tensor[float32], error) {
	return nn.MultiHeadSelfAttention(b, x, p)
}

// Linear computes x @ W.T + b over the last dimension.
func Linear(b *cpu.Backend, x *tensor.Tensor[float32], p LinearParams) (*tensor.Tensor[float32], error) {
	return nn.Linear(b, x, p)
}

// FeedForward computes ReLU(x @ W1 + b1) @ W2 + b2.
func FeedForward(b *cpu.Backend, x *tensor.Tensor[float32], p FeedForwardParams) (*tensor.Tensor[float32], error) {
	return nn.FeedForward(b, x, p)
}

// Embedding maps ids [batch, seq] to [batch, seq, dim].
func Embedding(ids *tensor.Tensor[float32], p EmbeddingParams) (*tensor.Tensor[float32], error) {
	return nn.Embedding(ids, p)
}

// PatchEmbed maps [N, C, H, W] to [N, patches, dim].
func PatchEmbed(b *cpu.Backend, x *tensor.Tensor[float32], p PatchEmbedParams) (*tensor.Tensor[float32], error) {
	return nn.PatchEmbed(b, x, p)
}

// Xavier returns a Glorot-uniform tensor drawn from rng.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor[float32] {
	return nn.Xavier(rng, fanIn, fanOut, shape)
}
