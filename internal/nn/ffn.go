package nn

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// FeedForwardParams holds the two projections of a transformer MLP.
//
//   - W1: [embed_dim, ffn_dim], B1: [ffn_dim]
//   - W2: [ffn_dim, embed_dim], B2: [embed_dim]
//
// Weights are stored input-major, so each projection is a plain x @ W.
type FeedForwardParams struct {
	W1 *tensor.Tensor[float32]
	B1 []float32
	W2 *tensor.Tensor[float32]
	B2 []float32
}

// FeedForward implements the position-wise MLP of a transformer block.
//
// Architecture:
//
//	FFN(x) = ReLU(x @ W1 + b1) @ W2 + b2
//
// The usual expansion is ffn_dim = 4 * embed_dim (BERT: 768 -> 3072).
//
// Shapes: [..., embed_dim] -> [..., embed_dim].
func FeedForward(b *cpu.CPUBackend, x *tensor.Tensor[float32], p FeedForwardParams) (*tensor.Tensor[float32], error) {
	if p.W1 == nil || p.W2 == nil || p.W1.Rank() != 2 || p.W2.Rank() != 2 {
		return nil, errors.Wrap(ErrShape, "feedforward: weights must be 2D")
	}
	d, f := p.W1.Dim(0), p.W1.Dim(1)
	if p.W2.Dim(0) != f || p.W2.Dim(1) != d {
		return nil, errors.Wrapf(ErrShape, "feedforward: W1 %v and W2 %v do not chain", p.W1.Shape(), p.W2.Shape())
	}
	if x.Dim(x.Rank()-1) != d {
		return nil, errors.Wrapf(ErrShape, "feedforward: input %v, want [..., %d]", x.Shape(), d)
	}
	rows := x.NumElements() / d

	hidden := tensor.MustNew[float32](tensor.Shape{rows, f})
	b.Gemm(x.Data(), p.W1.Data(), hidden.Data(), rows, d, f)
	addRowBias(hidden.Data(), p.B1)
	hidden = b.ReLU(hidden)

	y := tensor.MustNew[float32](x.Shape())
	b.Gemm(hidden.Data(), p.W2.Data(), y.Data(), rows, f, d)
	addRowBias(y.Data(), p.B2)
	return y, nil
}
