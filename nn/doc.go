// Copyright 2025 The cpuinfer Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers built on the CPU backend's primitives.
//
// # Layers
//
//   - MultiHeadSelfAttention: unmasked multi-head self-attention
//   - Linear: y = x @ W.T + b
//   - FeedForward: ReLU MLP of a transformer block
//   - Embedding: id lookup with range checking
//   - PatchEmbed: vision transformer patch projection
//
// # Errors
//
// Layers return ErrShape, ErrHeadCount or ErrIndexOutOfRange (test with
// errors.Is). Any error aborts the forward pass.
//
// # Example
//
//	backend := cpu.New()
//	y, err := nn.MultiHeadSelfAttention(backend, x, nn.AttentionParams{
//	    Wq: wq, Wk: wk, Wv: wv, Wo: wo,
//	    NumHeads: 12,
//	})
package nn
